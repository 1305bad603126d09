package sim

import (
	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
)

// Stepper binds the immutable collaborators of a character step: its body
// and the static ground geometry.
type Stepper struct {
	Body   Body
	Ground Ground
}

// Step advances prev by one tick under cmd. It is a pure function of its
// arguments and the stepper's static geometry.
func (s Stepper) Step(prev netcomponents.State, cmd messages.Command, p Params) netcomponents.State {
	next := prev

	// Planar velocity from input; vertical carried over from the body.
	vel := gamemath.PlanarDirection(cmd.Horizontal, cmd.Vertical).Mul(p.MoveRate)
	vel[1] = prev.Velocity.Y()

	grounded := Grounded(s.Ground, prev.Position, s.Body.GroundRadius, s.Body.GroundLayer)
	if cmd.Jump && grounded {
		vel[1] = p.JumpForce
	}
	next.Velocity = vel

	if yaw, ok := gamemath.YawOf(cmd.Aim); ok {
		next.Rotation = gamemath.EaseYaw(prev.Rotation, yaw, p.TurnRate*s.Body.Dt)
	}

	return s.integrate(next, grounded)
}

// integrate is the rigid body's own step: gravity while airborne, position
// from velocity, then contact with the floor. Surfaces further above the feet
// than this tick's fall plus the probe radius are walls, not floors.
func (s Stepper) integrate(st netcomponents.State, grounded bool) netcomponents.State {
	dt := s.Body.Dt
	if !grounded {
		st.Velocity[1] -= s.Body.Gravity * dt
	}
	st.Position = st.Position.Add(st.Velocity.Mul(dt))

	if s.Ground == nil || st.Velocity.Y() > 0 {
		return st
	}
	h, ok := s.Ground.Surface(st.Position, s.Body.GroundRadius, s.Body.GroundLayer)
	if !ok {
		return st
	}
	gap := st.Position.Y() - h
	reach := s.Body.GroundRadius - st.Velocity.Y()*dt
	landed := gap < 0 && -gap <= reach
	// A grounded body follows the floor down small steps instead of hovering.
	stuck := grounded && gap >= 0 && gap <= s.Body.GroundRadius
	if landed || stuck {
		st.Position[1] = h
		st.Velocity[1] = 0
	}
	return st
}
