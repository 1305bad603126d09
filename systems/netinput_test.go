package systems

import (
	"testing"

	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

type fakeInput struct {
	h, v    float64
	aim     mgl64.Vec3
	pressed map[netconfig.ActionID]bool
}

func (f *fakeInput) Axes() (float64, float64)              { return f.h, f.v }
func (f *fakeInput) Aim() mgl64.Vec3                       { return f.aim }
func (f *fakeInput) JustPressed(a netconfig.ActionID) bool { return f.pressed[a] }
func (f *fakeInput) press(a netconfig.ActionID)            { f.pressed = map[netconfig.ActionID]bool{a: true} }
func (f *fakeInput) release()                              { f.pressed = nil }

func TestInputSampler_TwoPressesOneTick(t *testing.T) {
	s := NewInputSampler(nil)

	s.Press(netconfig.ActionJump)
	s.Press(netconfig.ActionJump)

	cmd := s.Sample(7)
	assert.Equal(t, netconfig.Tick(7), cmd.Tick)
	assert.True(t, cmd.Jump)
	assert.False(t, cmd.Fire)
	assert.False(t, s.Latched(netconfig.ActionJump))

	assert.False(t, s.Sample(8).Jump)
}

func TestInputSampler_FrameLatchesEdges(t *testing.T) {
	in := &fakeInput{}
	s := NewInputSampler(in)

	// Pressed in frame 1, released by frame 2, tick sampled after frame 3.
	in.press(netconfig.ActionFire)
	s.Frame()
	in.release()
	s.Frame()
	s.Frame()

	assert.True(t, s.Sample(1).Fire)
	assert.False(t, s.Sample(2).Fire)
}

func TestInputSampler_AxesAreNotLatched(t *testing.T) {
	in := &fakeInput{h: 1, v: -1, aim: mgl64.Vec3{0, 0, 1}}
	s := NewInputSampler(in)

	cmd := s.Sample(1)
	assert.Equal(t, 1.0, cmd.Horizontal)
	assert.Equal(t, -1.0, cmd.Vertical)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, cmd.Aim)

	in.h, in.v = 0, 0
	cmd = s.Sample(2)
	assert.Zero(t, cmd.Horizontal)
	assert.Zero(t, cmd.Vertical)
}

func TestInputSampler_IgnoresUnknownActions(t *testing.T) {
	s := NewInputSampler(nil)
	s.Press(netconfig.ActionNone)
	s.Press(netconfig.ActionCount)
	cmd := s.Sample(1)
	assert.False(t, cmd.Jump)
	assert.False(t, cmd.Fire)
}
