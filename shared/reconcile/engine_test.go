package reconcile

import (
	"testing"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/replication"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slide moves MoveRate units per tick along the input axes.
func slide(prev netcomponents.State, cmd messages.Command, p sim.Params) netcomponents.State {
	next := prev
	next.Velocity = mgl64.Vec3{cmd.Horizontal, 0, cmd.Vertical}.Mul(p.MoveRate)
	next.Position = prev.Position.Add(next.Velocity)
	if cmd.Jump {
		next.Position[1]++
	}
	return next
}

func right(tick netconfig.Tick) messages.Command {
	return messages.Command{Tick: tick, EntityID: 1, Horizontal: 1}
}

type recorder struct {
	sent []any
}

func (r *recorder) send(msg any) error {
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recorder) commandTicks() []netconfig.Tick {
	var out []netconfig.Tick
	for _, m := range r.sent {
		if c, ok := m.(messages.Command); ok {
			out = append(out, c.Tick)
		}
	}
	return out
}

func (r *recorder) snapshots() []messages.Snapshot {
	var out []messages.Snapshot
	for _, m := range r.sent {
		if s, ok := m.(messages.Snapshot); ok {
			out = append(out, s)
		}
	}
	return out
}

func newOwner(t *testing.T, rec *recorder, mutate ...func(*Config[messages.Command])) *Engine[messages.Command] {
	t.Helper()
	cfg := Config[messages.Command]{
		EntityID: 1,
		Role:     netconfig.RoleOwner,
		State:    netcomponents.NewState(mgl64.Vec3{}),
		Step:     slide,
		Sample:   right,
		Send:     rec.send,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func newAuthority(t *testing.T, rec *recorder, mutate ...func(*Config[messages.Command])) *Engine[messages.Command] {
	t.Helper()
	cfg := Config[messages.Command]{
		EntityID: 1,
		Role:     netconfig.RoleAuthority,
		State:    netcomponents.NewState(mgl64.Vec3{}),
		Step:     slide,
		Send:     rec.send,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config[messages.Command]{EntityID: 3})
	assert.ErrorIs(t, err, ErrNoBody)

	_, err = New(Config[messages.Command]{EntityID: 3, Role: netconfig.RoleOwner, Step: slide})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestOwner_PredictsAndSendsRedundantCommands(t *testing.T) {
	rec := &recorder{}
	e := newOwner(t, rec)

	e.Tick(0)
	assert.Equal(t, []netconfig.Tick{1}, rec.commandTicks())

	rec.sent = nil
	for i := 0; i < 4; i++ {
		e.Tick(0)
	}
	assert.Equal(t, netconfig.Tick(5), e.LastTick())
	assert.InDelta(t, 25.0, e.State().Position.X(), 1e-12)
	assert.Equal(t, 5, e.Pending())

	rec.sent = nil
	e.Tick(0)
	assert.Equal(t, []netconfig.Tick{4, 5, 6}, rec.commandTicks())
}

func TestOwner_MatchingSnapshotConfirmsWithoutReplay(t *testing.T) {
	rec := &recorder{}
	var phases []Phase
	e := newOwner(t, rec, func(c *Config[messages.Command]) {
		c.OnPhase = func(p Phase) { phases = append(phases, p) }
	})
	for i := 0; i < 3; i++ {
		e.Tick(0)
	}

	predicted := netcomponents.NewState(mgl64.Vec3{10, 0, 0})
	predicted.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 2, EntityID: 1, State: predicted})
	e.Tick(0)

	assert.Empty(t, phases)
	assert.Equal(t, Predicting, e.Phase())
	assert.Equal(t, 0, e.Stats().Replays)
	assert.Equal(t, netconfig.Tick(2), e.Confirmed())
	assert.Equal(t, 2, e.Pending(), "ticks 3 and 4 remain unconfirmed")
	_, hasCorrection := e.TakeCorrection()
	assert.False(t, hasCorrection)
}

func TestOwner_DivergenceRewindsAndReplays(t *testing.T) {
	rec := &recorder{}
	var phases []Phase
	e := newOwner(t, rec, func(c *Config[messages.Command]) {
		c.OnPhase = func(p Phase) { phases = append(phases, p) }
	})
	for i := 0; i < 5; i++ {
		e.Tick(0)
	}
	require.InDelta(t, 25.0, e.State().Position.X(), 1e-12)

	// The authority says the body was pushed to z=3 by tick 2.
	auth := netcomponents.NewState(mgl64.Vec3{10, 0, 3})
	auth.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 2, EntityID: 1, State: auth})
	e.Tick(0)

	assert.Equal(t, []Phase{Diverged, Replaying, Predicting}, phases)
	assert.Equal(t, 1, e.Stats().Replays)
	assert.Equal(t, 3, e.Stats().ReplayedCommands, "ticks 3..5")
	// Replayed 3..5 from the snapshot, then predicted tick 6.
	assert.InDelta(t, 30.0, e.State().Position.X(), 1e-12)
	assert.InDelta(t, 3.0, e.State().Position.Z(), 1e-12)

	corr, ok := e.TakeCorrection()
	require.True(t, ok)
	assert.InDelta(t, 3.0, corr.Z(), 1e-12)
	_, ok = e.TakeCorrection()
	assert.False(t, ok, "correction is consumed")

	// Predictions were rewritten: a snapshot agreeing with the replay is a match.
	replayed := netcomponents.NewState(mgl64.Vec3{20, 0, 3})
	replayed.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 4, EntityID: 1, State: replayed})
	e.Tick(0)
	assert.Equal(t, 1, e.Stats().Replays)
}

func TestOwner_StaleSnapshotsDiscarded(t *testing.T) {
	rec := &recorder{}
	e := newOwner(t, rec)
	for i := 0; i < 4; i++ {
		e.Tick(0)
	}

	good := netcomponents.NewState(mgl64.Vec3{15, 0, 0})
	good.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 3, EntityID: 1, State: good})
	// Out of order within one batch is fine.
	early := netcomponents.NewState(mgl64.Vec3{5, 0, 0})
	early.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 1, EntityID: 1, State: early})
	e.Tick(0)
	assert.Equal(t, 0, e.Stats().StaleSnapshots)
	assert.Equal(t, netconfig.Tick(3), e.Confirmed())

	// Anything at or below the confirmed tick is stale from now on.
	e.DeliverSnapshot(messages.Snapshot{Tick: 3, EntityID: 1, State: good})
	e.DeliverSnapshot(messages.Snapshot{Tick: 2, EntityID: 1})
	e.Tick(0)
	assert.Equal(t, 2, e.Stats().StaleSnapshots)
	assert.Equal(t, 0, e.Stats().Replays)
}

func TestOwner_RunsAheadWhenAuthorityOvertakes(t *testing.T) {
	rec := &recorder{}
	e := newOwner(t, rec)
	e.Tick(0)

	rec.sent = nil
	e.DeliverSnapshot(messages.Snapshot{Tick: 9, EntityID: 1, State: netcomponents.NewState(mgl64.Vec3{})})
	e.Tick(0)

	// Adopted tick 9, held the last input through 10..12, sampled 13.
	assert.Equal(t, netconfig.Tick(9), e.Confirmed())
	assert.Equal(t, netconfig.Tick(13), e.LastTick())
	assert.Equal(t, netconfig.CommandRedundancy, e.Stats().LeadTicks)
	assert.InDelta(t, 20.0, e.State().Position.X(), 1e-12)
	assert.Equal(t, []netconfig.Tick{11, 12, 13}, rec.commandTicks())
}

func TestOwner_RunAheadAddsObservedLead(t *testing.T) {
	rec := &recorder{}
	e := newOwner(t, rec)
	for i := 0; i < 5; i++ {
		e.Tick(0)
	}
	matching := netcomponents.NewState(mgl64.Vec3{15, 0, 0})
	matching.Velocity = mgl64.Vec3{5, 0, 0}
	e.DeliverSnapshot(messages.Snapshot{Tick: 3, EntityID: 1, State: matching})
	e.Tick(0)
	require.Equal(t, 0, e.Stats().Replays)

	e.DeliverSnapshot(messages.Snapshot{Tick: 20, EntityID: 1, State: netcomponents.NewState(mgl64.Vec3{})})
	e.Tick(0)

	// Snapshot 3 reached us at tick 5: two ticks of lead on top of the resend window.
	assert.Equal(t, netconfig.Tick(20+2+netconfig.CommandRedundancy+1), e.LastTick())
	assert.Equal(t, 2+netconfig.CommandRedundancy, e.Stats().LeadTicks)
}

func TestOwner_ReplayDoesNotRefireSideEffects(t *testing.T) {
	rec := &recorder{}
	fired := map[netconfig.Tick]int{}
	e := newOwner(t, rec, func(c *Config[messages.Command]) {
		c.Sample = func(tick netconfig.Tick) messages.Command {
			cmd := right(tick)
			cmd.Fire = tick%2 == 0
			return cmd
		}
		c.OnApply = func(cmd messages.Command, _ netcomponents.State) {
			if cmd.Fire {
				fired[cmd.Tick]++
			}
		}
	})
	for i := 0; i < 6; i++ {
		e.Tick(0)
	}
	e.DeliverSnapshot(messages.Snapshot{Tick: 1, EntityID: 1, State: netcomponents.NewState(mgl64.Vec3{0, 0, 9})})
	e.Tick(0)

	require.Equal(t, 1, e.Stats().Replays)
	assert.Equal(t, map[netconfig.Tick]int{2: 1, 4: 1, 6: 1}, fired)
}

func TestAuthority_ExecutesInTickOrderAndBroadcasts(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	require.NoError(t, e.Deliver(right(2)))
	require.NoError(t, e.Deliver(right(1)))

	e.Tick(0)
	e.Tick(0)
	e.Tick(0) // nothing for tick 3 yet

	snaps := rec.snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, netconfig.Tick(1), snaps[0].Tick)
	assert.Equal(t, netconfig.Tick(2), snaps[1].Tick)
	assert.InDelta(t, 10.0, snaps[1].State.Position.X(), 1e-12)
	assert.Equal(t, 0, e.Stats().Placeholders)
}

func TestAuthority_StaleAndDuplicateCommands(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	require.NoError(t, e.Deliver(right(1)))
	assert.ErrorIs(t, e.Deliver(right(1)), replication.ErrDuplicateCommand)
	e.Tick(0)
	assert.ErrorIs(t, e.Deliver(right(1)), replication.ErrStaleCommand)

	st := e.Stats()
	assert.Equal(t, 1, st.DuplicateCommands)
	assert.Equal(t, 1, st.StaleCommands)
	assert.Equal(t, 1, st.Steps)
}

func TestAuthority_PlaceholderForLostCommand(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	require.NoError(t, e.Deliver(right(1)))
	e.Tick(0)

	lost := right(2)
	lost.Jump = true
	next := right(3)
	require.NoError(t, e.Deliver(next))
	e.Tick(0)

	assert.Equal(t, 1, e.Stats().Placeholders)
	assert.Equal(t, netconfig.Tick(2), e.LastTick())
	// Axes held from tick 1, jump never invented.
	assert.InDelta(t, 10.0, e.State().Position.X(), 1e-12)
	assert.InDelta(t, 0.0, e.State().Position.Y(), 1e-12)

	e.Tick(0)
	assert.Equal(t, netconfig.Tick(3), e.LastTick())
	// The lost command showing up late is stale.
	assert.ErrorIs(t, e.Deliver(lost), replication.ErrStaleCommand)
}

func TestAuthority_StarvationFallsBackToPlaceholders(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	for i := 0; i < netconfig.MaxStarveTicks; i++ {
		e.Tick(0)
	}
	assert.Equal(t, 0, e.Stats().Steps)

	e.Tick(0)
	e.Tick(0)
	assert.Equal(t, 2, e.Stats().Steps)
	assert.Equal(t, 2, e.Stats().Placeholders)
	assert.Len(t, rec.snapshots(), 2)
}

func TestAuthority_CatchesUpOnBacklog(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	for tick := netconfig.Tick(1); tick <= 10; tick++ {
		require.NoError(t, e.Deliver(right(tick)))
	}
	e.Tick(0)

	assert.Equal(t, netconfig.Tick(10-netconfig.MaxCommandBacklog), e.LastTick())
	assert.Len(t, rec.snapshots(), 10-netconfig.MaxCommandBacklog)
}

func TestAuthority_BoundsCatchUpPerTick(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)

	require.NoError(t, e.Deliver(right(1)))
	require.NoError(t, e.Deliver(right(100)))
	assert.ErrorIs(t, e.Deliver(right(2_000_000)), replication.ErrFutureCommand)
	assert.Equal(t, 1, e.Stats().FutureCommands)

	e.Tick(0)
	assert.Equal(t, netconfig.Tick(netconfig.MaxCatchUpSteps), e.LastTick())
	assert.Len(t, rec.snapshots(), netconfig.MaxCatchUpSteps)

	e.Tick(0)
	assert.Equal(t, netconfig.Tick(2*netconfig.MaxCatchUpSteps), e.LastTick())
}

func TestAuthority_ArrivalEndsStarvation(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)
	for i := 0; i < netconfig.MaxStarveTicks+5; i++ {
		e.Tick(0)
	}
	require.Equal(t, netconfig.Tick(5), e.LastTick())

	// A late command proves the owner is alive: wait for it to catch up.
	assert.ErrorIs(t, e.Deliver(right(3)), replication.ErrStaleCommand)
	e.Tick(0)
	e.Tick(0)
	assert.Equal(t, netconfig.Tick(5), e.LastTick())

	require.NoError(t, e.Deliver(right(6)))
	e.Tick(0)
	assert.Equal(t, netconfig.Tick(6), e.LastTick())
	assert.Equal(t, 5, e.Stats().Placeholders)
}

func TestAuthority_SelfDriven(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec, func(c *Config[messages.Command]) {
		c.Sample = right
	})
	require.NoError(t, e.Deliver(messages.Command{Tick: 1, Vertical: 1}), "remote commands are ignored")

	for i := 0; i < 3; i++ {
		e.Tick(0)
	}
	assert.Equal(t, netconfig.Tick(3), e.LastTick())
	assert.InDelta(t, 15.0, e.State().Position.X(), 1e-12)
	assert.InDelta(t, 0.0, e.State().Position.Z(), 1e-12)
}

func TestAuthority_IgnoresSnapshots(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)
	e.DeliverSnapshot(messages.Snapshot{Tick: 5, EntityID: 1, State: netcomponents.NewState(mgl64.Vec3{9, 9, 9})})
	e.Tick(0)
	assert.Equal(t, mgl64.Vec3{}, e.State().Position)
}

func TestAuthority_UsesCapturedParams(t *testing.T) {
	rec := &recorder{}
	local := sim.DefaultParams()
	e := newAuthority(t, rec, func(c *Config[messages.Command]) {
		c.Params = sim.NewResolver(&local, netconfig.RoleAuthority)
	})
	local.MoveRate = 100

	require.NoError(t, e.Deliver(right(1)))
	e.Tick(0)
	assert.InDelta(t, 5.0, e.State().Position.X(), 1e-12)
}

func TestObserver_AppliesNewestSnapshotAndInterpolates(t *testing.T) {
	e, err := New(Config[messages.Command]{
		EntityID: 1,
		Role:     netconfig.RoleObserver,
		State:    netcomponents.NewState(mgl64.Vec3{}),
		Step:     slide,
	})
	require.NoError(t, err)

	at := func(tick netconfig.Tick, x float64) messages.Snapshot {
		return messages.Snapshot{Tick: tick, EntityID: 1, State: netcomponents.NewState(mgl64.Vec3{x, 0, 0})}
	}

	e.DeliverSnapshot(at(2, 2))
	e.DeliverSnapshot(at(1, 1))
	e.Tick(1.0)
	assert.Equal(t, 2.0, e.State().Position.X())
	assert.Equal(t, 1, e.Interpolation().Len(), "one sample per tick")

	e.DeliverSnapshot(at(1, 1))
	e.DeliverSnapshot(at(3, 4))
	e.Tick(1.1)
	assert.Equal(t, 1, e.Stats().StaleSnapshots)
	assert.Equal(t, 2, e.Interpolation().Len())

	pose, ok := e.Pose(1.05 + netconfig.InterpolationDelay)
	require.True(t, ok)
	assert.InDelta(t, 3.0, pose.Position.X(), 1e-9)
}

func TestClose_DiscardsEverything(t *testing.T) {
	rec := &recorder{}
	e := newOwner(t, rec)
	e.Tick(0)
	e.DeliverSnapshot(messages.Snapshot{Tick: 1, EntityID: 1})

	e.Close()
	rec.sent = nil
	e.Tick(0)

	assert.True(t, e.Closed())
	assert.Empty(t, rec.sent)
	assert.Equal(t, 0, e.Pending())
	assert.Equal(t, netconfig.Tick(1), e.LastTick())
	_, ok := e.Pose(0)
	assert.False(t, ok)
	assert.ErrorIs(t, e.Deliver(right(2)), ErrClosed)
}

func TestDeliverCommand_WrongKind(t *testing.T) {
	rec := &recorder{}
	e := newAuthority(t, rec)
	err := e.DeliverCommand(messages.ProjectileCommand{Tick: 1})
	assert.ErrorIs(t, err, ErrWrongCommand)
}

func TestOwnerAuthority_ConvergeAfterOneCorrection(t *testing.T) {
	ownerOut, authOut := &recorder{}, &recorder{}
	owner := newOwner(t, ownerOut)
	auth := newAuthority(t, authOut, func(c *Config[messages.Command]) {
		// The server spawned the body somewhere the client did not expect.
		c.State = netcomponents.NewState(mgl64.Vec3{0, 0, 2})
	})

	for i := 0; i < 20; i++ {
		owner.Tick(0)
		for _, m := range ownerOut.sent {
			_ = auth.DeliverCommand(m)
		}
		ownerOut.sent = nil

		auth.Tick(0)
		for _, s := range authOut.snapshots() {
			owner.DeliverSnapshot(s)
		}
		authOut.sent = nil
	}

	assert.Equal(t, 1, owner.Stats().Replays)
	assert.Equal(t, owner.LastTick(), auth.LastTick())
	assert.True(t, owner.State().ApproxEqual(auth.State(), netconfig.ReconcileEpsilon))
	assert.Equal(t, 20, auth.Stats().Steps)
	assert.Equal(t, 0, auth.Stats().Placeholders)
}
