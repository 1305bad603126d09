package messages

import (
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// SpawnEvent is broadcast when a new networked entity spawns. Tick is the
// last tick already accounted for in State; the entity first steps at Tick+1.
type SpawnEvent struct {
	EntityID   netconfig.EntityID
	Kind       netconfig.EntityKind
	OwnerID    netconfig.EntityID // character that owns or fired it, 0 for none
	SourceTick netconfig.Tick     // fire command tick for projectiles
	Tick       netconfig.Tick
	State      netcomponents.State
	Velocity   mgl64.Vec3 // launch velocity for projectiles
}

// DespawnEvent is broadcast when an entity is removed.
type DespawnEvent struct {
	EntityID netconfig.EntityID
}
