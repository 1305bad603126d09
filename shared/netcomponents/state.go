package netcomponents

import "github.com/go-gl/mathgl/mgl64"

// State is the simulated physical state of one entity. It is a value type:
// copies never alias, so a State can be threaded through a step, stored in
// history and sent in a snapshot without sharing.
type State struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Rotation        mgl64.Quat
	AngularVelocity mgl64.Vec3
}

// NewState builds a resting state at the given position with identity rotation.
func NewState(pos mgl64.Vec3) State {
	return State{
		Position: pos,
		Rotation: mgl64.QuatIdent(),
	}
}

// Pose returns the renderable part of the state.
func (s State) Pose() Pose {
	return Pose{Position: s.Position, Rotation: s.Rotation}
}

// ApproxEqual reports whether two states agree within eps on every component.
func (s State) ApproxEqual(o State, eps float64) bool {
	return s.Position.ApproxEqualThreshold(o.Position, eps) &&
		s.Velocity.ApproxEqualThreshold(o.Velocity, eps) &&
		s.AngularVelocity.ApproxEqualThreshold(o.AngularVelocity, eps) &&
		rotationsMatch(s.Rotation, o.Rotation, eps)
}

// q and -q describe the same rotation.
func rotationsMatch(a, b mgl64.Quat, eps float64) bool {
	if a.ApproxEqualThreshold(b, eps) {
		return true
	}
	return a.ApproxEqualThreshold(b.Scale(-1), eps)
}
