package scenes

import (
	"fmt"
	"image/color"

	"github.com/automoto/doomerang-netcode/components"
	"github.com/automoto/doomerang-netcode/network"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/automoto/doomerang-netcode/systems"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	log "github.com/sirupsen/logrus"
)

// pixelsPerUnit maps world units to screen pixels.
const pixelsPerUnit = 24

// maxCatchUp bounds how many ticks one frame may run after a stall.
const maxCatchUp = 5

var (
	colorLocal      = color.RGBA{R: 0x4c, G: 0xc9, B: 0x5a, A: 0xff}
	colorRemote     = color.RGBA{R: 0x3d, G: 0x8b, B: 0xe0, A: 0xff}
	colorProjectile = color.RGBA{R: 0xf0, G: 0xc0, B: 0x30, A: 0xff}
	colorPredicted  = color.RGBA{R: 0xf0, G: 0x80, B: 0x30, A: 0xff}
)

// NetworkedScene runs the client peer: fixed-step ticks from ebiten's
// variable frame loop, input sampling, and a top-down debug view.
type NetworkedScene struct {
	netClient *network.Client
	peer      *systems.Peer
	sched     *systems.ManualScheduler
	sampler   *systems.InputSampler
	smoother  *systems.CorrectionSmoother
	clock     *systems.WallClock

	local     netconfig.EntityID
	joined    bool
	lastFrame float64
	accum     float64
}

// NewNetworkedScene builds the client world. params is the locally
// configured movement tuning used for prediction.
func NewNetworkedScene(client *network.Client, inbox *systems.Inbox, params *sim.Params, ground sim.Ground, smoothing float64) *NetworkedScene {
	ns := &NetworkedScene{
		netClient: client,
		sched:     &systems.ManualScheduler{},
		sampler:   systems.NewInputSampler(NewKeyboardInput()),
		smoother:  systems.NewCorrectionSmoother(),
		clock:     systems.NewWallClock(),
	}
	ns.smoother.Duration = float32(smoothing)

	sendFn := func(msg any) error {
		if ns.netClient.State() != network.StateJoinedGame {
			return nil
		}
		return ns.netClient.SendMessage(msg)
	}
	ns.peer = systems.NewPeer(systems.Config{
		Clock:  ns.clock,
		Ground: ground,
		Params: params,
		Input:  ns.sampler,
		Send:   sendFn,
		Inbox:  inbox,
	})
	ns.peer.Attach(ns.sched)
	ns.peer.OnPostTick(func(netconfig.Tick) {
		ns.smoother.Collect(ns.peer)
	})
	ns.peer.OnDespawn(ns.smoother.Forget)
	return ns
}

func (ns *NetworkedScene) Update() error {
	// Edges are latched every frame so none are lost between ticks.
	ns.sampler.Frame()

	now := ns.clock.Now()
	dt := now - ns.lastFrame
	ns.lastFrame = now

	if !ns.joined {
		return ns.awaitJoin()
	}

	ns.accum += dt
	if limit := maxCatchUp * netconfig.TickSeconds(); ns.accum > limit {
		ns.accum = limit
	}
	for ns.accum >= netconfig.TickSeconds() {
		ns.sched.Step(1)
		ns.accum -= netconfig.TickSeconds()
	}
	ns.smoother.Update(dt)

	switch ns.netClient.State() {
	case network.StateDisconnected, network.StateError:
		return fmt.Errorf("connection lost: %v", ns.netClient.LastError())
	}
	return nil
}

func (ns *NetworkedScene) awaitJoin() error {
	select {
	case accepted := <-ns.netClient.Joined():
		_, err := ns.peer.Spawn(systems.SpawnSpec{
			ID:    accepted.EntityID,
			Kind:  netconfig.KindCharacter,
			Role:  netconfig.RoleOwner,
			Tick:  accepted.Tick,
			State: accepted.State,
		})
		if err != nil {
			return fmt.Errorf("spawn local character: %w", err)
		}
		ns.local = accepted.EntityID
		ns.joined = true
		log.Infof("[networked] controlling entity %d from tick %d", accepted.EntityID, accepted.Tick)
	default:
		if ns.netClient.State() == network.StateError {
			return ns.netClient.LastError()
		}
	}
	return nil
}

func (ns *NetworkedScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if !ns.joined {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("%s...", ns.netClient.State()))
		return
	}

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	center := netcomponents.Pose{}
	if pose, ok := ns.peer.Pose(ns.local); ok {
		center = pose
	}

	ns.peer.Visit(func(data components.ReplicatedData, pose netcomponents.Pose) {
		pos := pose.Position
		size := float32(0.8 * pixelsPerUnit)
		clr := colorRemote
		switch {
		case data.Kind == netconfig.KindProjectile && data.ID == 0:
			size, clr = 0.3*pixelsPerUnit, colorPredicted
		case data.Kind == netconfig.KindProjectile:
			size, clr = 0.3*pixelsPerUnit, colorProjectile
		case data.ID == ns.local:
			pos = pos.Add(ns.smoother.Offset(data.ID))
			clr = colorLocal
		}
		// Top-down: world X right, world Z up the screen, height ignored.
		sx := float32(w)/2 + float32((pos.X()-center.Position.X())*pixelsPerUnit) - size/2
		sy := float32(h)/2 - float32((pos.Z()-center.Position.Z())*pixelsPerUnit) - size/2
		vector.FillRect(screen, sx, sy, size, size, clr, false)
	})

	status := fmt.Sprintf("server %s  tick %d  entities %d", ns.netClient.ServerName(), ns.peer.CurrentTick(), ns.peer.Len())
	if engine, ok := ns.peer.Engine(ns.local); ok {
		st := engine.Stats()
		status += fmt.Sprintf("\nreplays %d  replayed %d  stale snapshots %d  send errors %d",
			st.Replays, st.ReplayedCommands, st.StaleSnapshots, st.SendErrors)
	}
	ebitenutil.DebugPrint(screen, status+"\nWASD move  SPACE jump  F/click fire")
}
