package reconcile

import (
	"github.com/automoto/doomerang-netcode/shared/interp"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	log "github.com/sirupsen/logrus"
)

// strategy is one role's tick cycle. The role is fixed for the lifetime of
// an engine, so it is resolved once instead of branching on every tick.
type strategy[C Input[C]] interface {
	tick(e *Engine[C], now float64)
}

func strategyFor[C Input[C]](role netconfig.Role) strategy[C] {
	switch role {
	case netconfig.RoleOwner:
		return ownerStrategy[C]{}
	case netconfig.RoleAuthority:
		return authorityStrategy[C]{}
	default:
		return observerStrategy[C]{}
	}
}

// ownerStrategy reconciles against the authority, then predicts the next tick.
type ownerStrategy[C Input[C]] struct{}

func (ownerStrategy[C]) tick(e *Engine[C], _ float64) {
	behind := false
	for _, s := range e.takeSnapshots() {
		if reconcileSnapshot(e, s) {
			behind = true
		}
	}
	if behind && e.hasLast {
		runAhead(e)
	}

	cmd := e.cfg.Sample(e.tick + 1)
	if !predict(e, cmd) {
		return
	}
	e.last, e.hasLast = cmd, true

	// Resend the newest unconfirmed commands; the authority drops the
	// duplicates, and any one copy getting through is enough.
	from := e.confirmed
	if r := netconfig.Tick(e.cfg.Redundancy); e.tick > r && e.tick-r > from {
		from = e.tick - r
	}
	for _, rec := range e.history.After(from) {
		e.send(rec.Command)
	}
}

// predict records cmd, steps the owner's state under it and fires its side
// effects. It reports whether the command could be recorded.
func predict[C Input[C]](e *Engine[C], cmd C) bool {
	next := cmd.GetTick()
	if next > e.history.Floor()+netconfig.HistorySize {
		// Nothing confirmed for a whole window: the oldest predictions go.
		e.history.DiscardUpTo(next - netconfig.HistorySize)
	}
	if err := e.history.Record(cmd); err != nil {
		e.countRecord(err)
		log.WithFields(log.Fields{"entity": e.cfg.EntityID, "tick": next}).
			Warnf("[reconcile] unrecordable owner command: %v", err)
		return false
	}
	state := e.cfg.Step(e.state, cmd, e.params())
	e.history.SetPredicted(next, state)
	e.state, e.tick = state, next
	e.stats.Steps++
	if e.cfg.OnApply != nil {
		e.cfg.OnApply(cmd, state)
	}
	return true
}

// runAhead moves an owner the authority has caught up with back in front of
// it, by the last observed round trip plus the resend window. The skipped
// ticks hold the last sampled input, as the authority's placeholders do.
func runAhead[C Input[C]](e *Engine[C]) {
	from := e.tick
	target := e.confirmed + min(e.lead, netconfig.MaxLeadTicks) + netconfig.Tick(e.cfg.Redundancy)
	for e.tick < target {
		if !predict(e, e.last.Placeholder(e.tick+1)) {
			break
		}
		e.stats.LeadTicks++
	}
	log.WithFields(log.Fields{
		"entity": e.cfg.EntityID,
		"from":   from,
		"to":     e.tick,
	}).Debug("[reconcile] authority caught up, running ahead")
}

// reconcileSnapshot compares one authoritative snapshot with the prediction
// recorded for its tick and rewinds and replays on divergence. It reports
// whether the snapshot was ahead of the owner's own clock.
func reconcileSnapshot[C Input[C]](e *Engine[C], s messages.Snapshot) bool {
	if s.Tick <= e.confirmed {
		e.stats.StaleSnapshots++
		return false
	}
	e.confirmed = s.Tick
	if s.Tick < e.tick {
		e.lead = e.tick - s.Tick
	}

	rec, ok := e.history.Get(s.Tick)
	if ok && rec.HasPrediction && rec.Predicted.ApproxEqual(s.State, e.cfg.Epsilon) {
		e.history.DiscardUpTo(s.Tick)
		return false
	}

	e.setPhase(Diverged)
	before := e.state

	e.setPhase(Replaying)
	state := s.State
	params := e.params()
	replayed := 0
	for _, r := range e.history.After(s.Tick) {
		if r.Tick() > e.tick {
			break
		}
		state = e.cfg.Step(state, r.Command, params)
		e.history.SetPredicted(r.Tick(), state)
		replayed++
	}
	ahead := s.Tick > e.tick
	if ahead {
		// The authority is ahead of us; adopt its clock.
		e.tick = s.Tick
	}
	e.state = state
	e.history.DiscardUpTo(s.Tick)

	e.stats.Replays++
	e.stats.ReplayedCommands += replayed
	e.correction = e.correction.Add(state.Position.Sub(before.Position))
	e.hasCorrection = true

	log.WithFields(log.Fields{
		"entity":   e.cfg.EntityID,
		"tick":     s.Tick,
		"replayed": replayed,
		"offset":   state.Position.Sub(before.Position).Len(),
	}).Debug("[reconcile] prediction diverged, replayed")

	e.setPhase(Predicting)
	return ahead
}

// authorityStrategy executes commands in tick order and broadcasts a
// snapshot after every step.
type authorityStrategy[C Input[C]] struct{}

func (authorityStrategy[C]) tick(e *Engine[C], _ float64) {
	e.pending = nil
	for range e.cfg.MaxCatchUp {
		if !authorityStep(e) {
			return
		}
		if e.cfg.Sample != nil || e.history.Newest() <= e.tick+netconfig.Tick(e.cfg.MaxBacklog) {
			return
		}
	}
}

func authorityStep[C Input[C]](e *Engine[C]) bool {
	next := e.tick + 1
	cmd, ok := nextCommand(e, next)
	if !ok {
		return false
	}
	state := e.cfg.Step(e.state, cmd, e.params())
	e.state, e.tick, e.confirmed, e.last = state, next, next, cmd
	// Anything for this tick or earlier that shows up later is stale.
	e.history.DiscardUpTo(next)
	e.stats.Steps++
	if e.cfg.OnApply != nil {
		e.cfg.OnApply(cmd, state)
	}
	e.send(messages.Snapshot{Tick: next, EntityID: e.cfg.EntityID, State: state})
	return true
}

// nextCommand picks the command for tick: the sampled one for self-driven
// entities, the received one if present, otherwise a placeholder once a
// later command proves this one lost or the stream has starved.
func nextCommand[C Input[C]](e *Engine[C], tick netconfig.Tick) (C, bool) {
	if e.cfg.Sample != nil {
		return e.cfg.Sample(tick), true
	}
	if rec, ok := e.history.Get(tick); ok {
		e.starve = 0
		return rec.Command, true
	}
	if e.history.Newest() > tick || e.starve >= e.cfg.MaxStarve {
		e.stats.Placeholders++
		return e.last.Placeholder(tick), true
	}
	e.starve++
	var zero C
	return zero, false
}

// observerStrategy applies snapshots as authoritative state and feeds the
// newest one to interpolation. It never steps the simulation.
type observerStrategy[C Input[C]] struct{}

func (observerStrategy[C]) tick(e *Engine[C], now float64) {
	var (
		latest messages.Snapshot
		have   bool
	)
	for _, s := range e.takeSnapshots() {
		if s.Tick <= e.confirmed {
			e.stats.StaleSnapshots++
			continue
		}
		e.confirmed, e.tick, e.state = s.Tick, s.Tick, s.State
		latest, have = s, true
	}
	if !have {
		return
	}
	e.interp.Enqueue(interp.Sample{
		Position: latest.State.Position,
		Rotation: latest.State.Rotation,
		Time:     now,
	})
}
