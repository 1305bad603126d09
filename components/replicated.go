package components

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/reconcile"
	"github.com/yohamta/donburi"
)

// ReplicatedData ties a world entity to its reconciliation engine. ID is 0
// for objects that exist only on this peer (an unconfirmed predicted shot).
type ReplicatedData struct {
	ID     netconfig.EntityID
	Kind   netconfig.EntityKind
	Owner  netconfig.EntityID // firing character for projectiles
	Engine reconcile.Runner
}

var Replicated = donburi.NewComponentType[ReplicatedData]()
