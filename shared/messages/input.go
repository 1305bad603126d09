package messages

import (
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// Ticked is implemented by every tick-tagged message. Histories, snapshots and
// the reconciliation engine key everything on GetTick, never on arrival order.
type Ticked interface {
	GetTick() netconfig.Tick
}

// Command is sent from the owning client to the server once per tick with the
// input sampled for that tick. It is immutable after creation and is applied
// identically by every peer that steps the entity.
type Command struct {
	Tick       netconfig.Tick
	EntityID   netconfig.EntityID
	Horizontal float64    // -1..1, maps to world X
	Vertical   float64    // -1..1, maps to world Z
	Jump       bool       // edge-triggered, latched between ticks
	Fire       bool       // edge-triggered, latched between ticks
	Aim        mgl64.Vec3 // facing / fire direction, zero when unset
}

func (c Command) GetTick() netconfig.Tick { return c.Tick }

// Placeholder stands in for a command that never arrived: continuous axes
// are held, edge-triggered flags are dropped.
func (c Command) Placeholder(tick netconfig.Tick) Command {
	c.Tick = tick
	c.Jump = false
	c.Fire = false
	return c
}

// ProjectileCommand carries the launch velocity a projectile re-applies every tick.
type ProjectileCommand struct {
	Tick     netconfig.Tick
	EntityID netconfig.EntityID
	Velocity mgl64.Vec3
}

func (c ProjectileCommand) GetTick() netconfig.Tick { return c.Tick }

func (c ProjectileCommand) Placeholder(tick netconfig.Tick) ProjectileCommand {
	c.Tick = tick
	return c
}
