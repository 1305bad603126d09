package systems

import (
	"sync/atomic"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
)

// RawInput is the frame-granular device state the sampler reads from.
type RawInput interface {
	// Axes returns the movement axes, each in -1..1.
	Axes() (horizontal, vertical float64)
	// Aim returns the facing / fire direction, zero when there is none.
	Aim() mgl64.Vec3
	// JustPressed reports an edge for action during the current frame.
	JustPressed(action netconfig.ActionID) bool
}

// InputSampler turns per-frame input into exactly one Command per tick.
// Edge-triggered actions are latched by Frame or Press, which may run many
// times (or not at all) between two ticks; Sample consumes each latch
// exactly once. Axes and aim are never latched.
type InputSampler struct {
	source  RawInput
	latches [netconfig.ActionCount]atomic.Bool
}

// NewInputSampler returns a sampler polling source. A nil source yields
// neutral axes and relies on Press for edges.
func NewInputSampler(source RawInput) *InputSampler {
	return &InputSampler{source: source}
}

// Frame polls the source for edges. Call it once per rendered frame.
func (s *InputSampler) Frame() {
	if s.source == nil {
		return
	}
	for a := netconfig.ActionID(1); a < netconfig.ActionCount; a++ {
		if s.source.JustPressed(a) {
			s.latches[a].Store(true)
		}
	}
}

// Press latches an edge-triggered action directly.
func (s *InputSampler) Press(action netconfig.ActionID) {
	if action <= netconfig.ActionNone || action >= netconfig.ActionCount {
		return
	}
	s.latches[action].Store(true)
}

// Latched reports whether action is waiting to be sampled.
func (s *InputSampler) Latched(action netconfig.ActionID) bool {
	return s.latches[action].Load()
}

// Sample builds the command for tick, clearing every latch it reads.
func (s *InputSampler) Sample(tick netconfig.Tick) messages.Command {
	cmd := messages.Command{
		Tick: tick,
		Jump: s.latches[netconfig.ActionJump].Swap(false),
		Fire: s.latches[netconfig.ActionFire].Swap(false),
	}
	if s.source != nil {
		cmd.Horizontal, cmd.Vertical = s.source.Axes()
		cmd.Aim = s.source.Aim()
	}
	return cmd
}
