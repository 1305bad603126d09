package components

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/yohamta/donburi"
)

// LifetimeData counts down the ticks left before the entity is destroyed.
// Authoritative lifetimes broadcast a despawn; local ones only clean up.
// Counting starts on the tick after Since.
type LifetimeData struct {
	Remaining     netconfig.Tick
	Since         netconfig.Tick
	Authoritative bool
}

var Lifetime = donburi.NewComponentType[LifetimeData]()
