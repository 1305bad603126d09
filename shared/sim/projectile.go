package sim

import (
	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
)

// StepProjectile advances a projectile by one tick. The launch velocity is
// re-applied every tick so a reconciled projectile cannot drift off its line.
func (s Stepper) StepProjectile(prev netcomponents.State, cmd messages.ProjectileCommand, _ Params) netcomponents.State {
	next := prev
	next.Velocity = cmd.Velocity
	if yaw, ok := gamemath.YawOf(cmd.Velocity); ok {
		next.Rotation = gamemath.QuatFromYaw(yaw)
	}
	next.Position = prev.Position.Add(next.Velocity.Mul(s.Body.Dt))
	return next
}
