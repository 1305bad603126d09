package messages

import (
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
)

// Snapshot is the authoritative post-step state of one entity, broadcast by
// the server to every peer after each step.
type Snapshot struct {
	Tick     netconfig.Tick
	EntityID netconfig.EntityID
	State    netcomponents.State
}

func (s Snapshot) GetTick() netconfig.Tick { return s.Tick }
