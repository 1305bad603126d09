// Package sim holds the deterministic simulation step shared by the owning
// client and the authoritative server. Nothing in here reads a clock, a random
// source or any global state; the same inputs always give the same State.
package sim

// Params are the movement tunables. The owner uses its locally configured
// copy; the authority uses the copy captured by a Resolver at spawn.
type Params struct {
	MoveRate  float64 // planar speed, units per second
	JumpForce float64 // vertical launch speed
	TurnRate  float64 // radians per second
}

// DefaultParams matches the shipped character tuning.
func DefaultParams() Params {
	return Params{
		MoveRate:  5,
		JumpForce: 7,
		TurnRate:  10,
	}
}

// Body describes the rigid body every peer integrates identically. Unlike
// Params it is never tunable per peer.
type Body struct {
	Gravity      float64 // downward acceleration, positive
	GroundRadius float64 // ground probe radius around the feet
	GroundLayer  string  // only ground on this layer counts
	Dt           float64 // fixed tick duration in seconds
}

// DefaultBody returns the character body at the given tick duration.
func DefaultBody(dt float64) Body {
	return Body{
		Gravity:      9.81,
		GroundRadius: 0.2,
		GroundLayer:  LayerGround,
		Dt:           dt,
	}
}

// ProjectileBody returns a weightless body that ignores ground.
func ProjectileBody(dt float64) Body {
	return Body{Dt: dt}
}
