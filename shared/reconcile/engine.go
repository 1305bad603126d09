// Package reconcile runs the per-entity tick cycle: owner-side prediction with
// rewind and replay on divergence, authority-side stepping and snapshot
// broadcast, and observer-side interpolation input.
package reconcile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/automoto/doomerang-netcode/shared/interp"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/replication"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/go-gl/mathgl/mgl64"
)

// Input is a replayable command kind.
type Input[C any] interface {
	messages.Ticked
	// Placeholder returns the command to run for tick when the real one is
	// missing.
	Placeholder(tick netconfig.Tick) C
}

// StepFunc is a pure simulation step.
type StepFunc[C any] func(prev netcomponents.State, cmd C, p sim.Params) netcomponents.State

// Config wires one entity's engine. Only Step is required for every role;
// an owner also needs Sample.
type Config[C Input[C]] struct {
	EntityID netconfig.EntityID
	Role     netconfig.Role
	Start    netconfig.Tick // last tick already reflected in State
	State    netcomponents.State
	Step     StepFunc[C]
	Params   *sim.Resolver

	// Sample produces the command for a tick. Required for owners; an
	// authority with a sampler drives itself instead of waiting for
	// remote commands.
	Sample func(netconfig.Tick) C
	// Send transmits commands (owner) or snapshots (authority). Nil sends nothing.
	Send func(msg any) error
	// OnApply runs once when a command is first applied, never on replay.
	OnApply func(cmd C, state netcomponents.State)
	// OnPhase observes owner phase transitions.
	OnPhase func(Phase)

	Epsilon    float64
	Redundancy int
	MaxStarve  int
	MaxBacklog int
	MaxCatchUp int
}

// Engine owns one entity's simulation state and buffers. It is not safe for
// concurrent use: every method runs on the tick goroutine.
type Engine[C Input[C]] struct {
	cfg      Config[C]
	strategy strategy[C]

	state     netcomponents.State
	phase     Phase
	tick      netconfig.Tick // last simulated tick
	confirmed netconfig.Tick // newest snapshot applied or produced
	history   *replication.History[C]
	interp    *interp.Buffer
	pending   []messages.Snapshot

	last    C // last executed (authority) or sampled (owner) command
	hasLast bool
	starve  int
	lead    netconfig.Tick // owner ticks ahead of the newest snapshot, last seen

	correction    mgl64.Vec3
	hasCorrection bool

	stats  Stats
	closed bool
}

// New builds an engine for cfg.Role. It fails only when the entity has
// nothing to simulate with.
func New[C Input[C]](cfg Config[C]) (*Engine[C], error) {
	if cfg.Step == nil {
		return nil, fmt.Errorf("entity %d: %w", cfg.EntityID, ErrNoBody)
	}
	if cfg.Role == netconfig.RoleOwner && cfg.Sample == nil {
		return nil, fmt.Errorf("entity %d: %w", cfg.EntityID, ErrNoInput)
	}
	if cfg.Params == nil {
		cfg.Params = sim.NewResolver(nil, cfg.Role)
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = netconfig.ReconcileEpsilon
	}
	if cfg.Redundancy <= 0 {
		cfg.Redundancy = netconfig.CommandRedundancy
	}
	if cfg.MaxStarve <= 0 {
		cfg.MaxStarve = netconfig.MaxStarveTicks
	}
	if cfg.MaxBacklog <= 0 {
		cfg.MaxBacklog = netconfig.MaxCommandBacklog
	}
	if cfg.MaxCatchUp <= 0 {
		cfg.MaxCatchUp = netconfig.MaxCatchUpSteps
	}

	e := &Engine[C]{
		cfg:       cfg,
		strategy:  strategyFor[C](cfg.Role),
		state:     cfg.State,
		tick:      cfg.Start,
		confirmed: cfg.Start,
		history:   replication.NewHistory[C](cfg.Start),
	}
	if cfg.Role == netconfig.RoleObserver {
		e.interp = interp.NewBuffer()
	}
	return e, nil
}

// EntityID returns the entity this engine simulates.
func (e *Engine[C]) EntityID() netconfig.EntityID { return e.cfg.EntityID }

// Role returns this peer's role for the entity.
func (e *Engine[C]) Role() netconfig.Role { return e.cfg.Role }

// State returns the current simulation state.
func (e *Engine[C]) State() netcomponents.State { return e.state }

// Phase returns the owner reconciliation phase.
func (e *Engine[C]) Phase() Phase { return e.phase }

// LastTick returns the last simulated (or, for observers, applied) tick.
func (e *Engine[C]) LastTick() netconfig.Tick { return e.tick }

// Confirmed returns the newest authoritative tick seen.
func (e *Engine[C]) Confirmed() netconfig.Tick { return e.confirmed }

// Stats returns the condition counters.
func (e *Engine[C]) Stats() Stats { return e.stats }

// Pending returns the number of unconfirmed (owner) or unexecuted
// (authority) commands held.
func (e *Engine[C]) Pending() int { return e.history.Len() }

// Closed reports whether the entity has been destroyed.
func (e *Engine[C]) Closed() bool { return e.closed }

// DeliverSnapshot queues a snapshot for the next tick.
func (e *Engine[C]) DeliverSnapshot(s messages.Snapshot) {
	if e.closed || e.cfg.Role == netconfig.RoleAuthority {
		return
	}
	if len(e.pending) >= netconfig.HistorySize {
		e.pending = e.pending[1:]
		e.stats.StaleSnapshots++
	}
	e.pending = append(e.pending, s)
}

// Deliver records a remote command on the authority. Stale, duplicate and
// far-future deliveries are counted and reported but are not failures of
// the entity. Any delivery, even a rejected one, ends starvation: the owner
// is still sending, so the authority waits for its commands again.
func (e *Engine[C]) Deliver(cmd C) error {
	if e.closed {
		return ErrClosed
	}
	if e.cfg.Role != netconfig.RoleAuthority || e.cfg.Sample != nil {
		return nil
	}
	e.starve = 0
	err := e.history.Record(cmd)
	e.countRecord(err)
	return err
}

// DeliverCommand is Deliver for callers that only hold an untyped message.
func (e *Engine[C]) DeliverCommand(msg any) error {
	cmd, ok := msg.(C)
	if !ok {
		return fmt.Errorf("entity %d got %T: %w", e.cfg.EntityID, msg, ErrWrongCommand)
	}
	return e.Deliver(cmd)
}

// Tick runs one tick of this entity's role strategy. now is the local time
// in seconds, used to stamp interpolation samples.
func (e *Engine[C]) Tick(now float64) {
	if e.closed {
		return
	}
	e.strategy.tick(e, now)
}

// Pose returns what presentation should draw at local time now: the
// interpolated pose for observers, the simulated pose otherwise.
func (e *Engine[C]) Pose(now float64) (netcomponents.Pose, bool) {
	if e.closed {
		return netcomponents.Pose{}, false
	}
	if e.interp != nil {
		if p, ok := e.interp.Resolve(now); ok {
			return p, true
		}
	}
	return e.state.Pose(), true
}

// Interpolation exposes the observer's interpolation buffer, nil otherwise.
func (e *Engine[C]) Interpolation() *interp.Buffer { return e.interp }

// TakeCorrection returns and clears the positional jump the last replays
// caused, for presentation-layer smoothing.
func (e *Engine[C]) TakeCorrection() (mgl64.Vec3, bool) {
	c, ok := e.correction, e.hasCorrection
	e.correction, e.hasCorrection = mgl64.Vec3{}, false
	return c, ok
}

// Close discards every buffer immediately. No pending replay or correction
// is completed for a destroyed entity.
func (e *Engine[C]) Close() {
	e.closed = true
	e.history.Reset(e.tick)
	e.pending = nil
	if e.interp != nil {
		e.interp.Clear()
	}
}

func (e *Engine[C]) params() sim.Params {
	return e.cfg.Params.Resolve(e.cfg.Role)
}

func (e *Engine[C]) setPhase(p Phase) {
	e.phase = p
	if e.cfg.OnPhase != nil {
		e.cfg.OnPhase(p)
	}
}

// takeSnapshots drains queued snapshots in ascending tick order.
func (e *Engine[C]) takeSnapshots() []messages.Snapshot {
	if len(e.pending) == 0 {
		return nil
	}
	snaps := e.pending
	e.pending = nil
	slices.SortStableFunc(snaps, func(a, b messages.Snapshot) int {
		return int(int64(a.Tick) - int64(b.Tick))
	})
	return snaps
}

func (e *Engine[C]) send(msg any) {
	if e.cfg.Send == nil {
		return
	}
	if err := e.cfg.Send(msg); err != nil {
		e.stats.SendErrors++
	}
}

func (e *Engine[C]) countRecord(err error) {
	switch {
	case err == nil:
	case errors.Is(err, replication.ErrDuplicateCommand):
		e.stats.DuplicateCommands++
	case errors.Is(err, replication.ErrFutureCommand):
		e.stats.FutureCommands++
	default:
		e.stats.StaleCommands++
	}
}
