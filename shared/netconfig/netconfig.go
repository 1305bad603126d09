// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on ebiten or any
// graphics library so the dedicated server binary stays headless.
package netconfig

import "time"

// Tick numbers a fixed-duration simulation step. Tick 0 is never simulated;
// an entity spawned at tick T first steps at T+1.
type Tick uint32

// EntityID identifies a networked entity on every peer.
type EntityID uint32

// Role is the relationship between one peer and one entity.
type Role int

const (
	RoleObserver  Role = iota // Renders authoritative state, never steps
	RoleOwner                 // Samples input and predicts
	RoleAuthority             // Steps with authoritative parameters and broadcasts snapshots
)

func (r Role) String() string {
	switch r {
	case RoleObserver:
		return "observer"
	case RoleOwner:
		return "owner"
	case RoleAuthority:
		return "authority"
	}
	return "unknown"
}

// Timing and buffer sizing shared by every peer.
const (
	TickRate     = 30
	TickDuration = time.Second / TickRate

	// InterpolationDelay is how far behind the newest snapshot observers render, in seconds.
	InterpolationDelay = 0.1
	// InterpolationCapacity bounds the per-entity interpolation queue.
	InterpolationCapacity = 10
	// HistorySize bounds the per-entity command history ring.
	HistorySize = 128

	// ReconcileEpsilon is the tolerance for predicted vs authoritative state.
	ReconcileEpsilon = 1e-3
	// CommandRedundancy is how many unconfirmed commands the owner resends each tick.
	CommandRedundancy = 3
	// MaxStarveTicks is how long the authority waits for a missing command
	// before stepping with placeholders.
	MaxStarveTicks = 10
	// MaxCommandBacklog is how many received commands the authority lets
	// queue ahead of its last step before it executes extra steps in one tick.
	MaxCommandBacklog = 4
	// MaxCatchUpSteps caps how many steps the authority runs in one tick
	// while working through a backlog.
	MaxCatchUpSteps = 8
	// MaxLeadTicks caps the round trip an owner adds to its clock when the
	// authority has caught up with it.
	MaxLeadTicks = 15

	// ProjectileLifetime is the authoritative lifetime of a fired projectile, in seconds.
	ProjectileLifetime = 3.0
)

// TickSeconds is the fixed tick duration in seconds.
func TickSeconds() float64 {
	return TickDuration.Seconds()
}

// TicksFor converts a duration in seconds to a whole number of ticks, rounding up.
func TicksFor(seconds float64) Tick {
	n := seconds * TickRate
	t := Tick(n)
	if float64(t) < n {
		t++
	}
	return t
}

// EntityKind distinguishes what a spawned entity simulates.
type EntityKind int

const (
	KindCharacter EntityKind = iota
	KindProjectile
)

func (k EntityKind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindProjectile:
		return "projectile"
	}
	return "unknown"
}

// ActionID represents a logical edge-triggered game action.
type ActionID int

const (
	ActionNone ActionID = iota
	ActionJump
	ActionFire
	ActionCount // Must be last - used for array sizing
)
