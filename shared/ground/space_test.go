package ground

import (
	"testing"

	"github.com/automoto/doomerang-netcode/shared/leveldata"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLevel() *Space {
	return NewSpace(&leveldata.GroundData{
		Rects: []leveldata.GroundRect{
			{X: 0, Z: 0, W: 10, D: 10, Height: 0, Layer: sim.LayerGround},
			{X: 4, Z: 4, W: 2, D: 2, Height: 2, Layer: sim.LayerGround},
			{X: 8, Z: 0, W: 1, D: 1, Height: 5, Layer: "decor"},
		},
	})
}

func TestSurface_HighestUnderFootprint(t *testing.T) {
	s := testLevel()

	h, ok := s.Surface(mgl64.Vec3{1, 0, 1}, 0.2, sim.LayerGround)
	require.True(t, ok)
	assert.Equal(t, 0.0, h)

	h, ok = s.Surface(mgl64.Vec3{5, 0, 5}, 0.2, sim.LayerGround)
	require.True(t, ok)
	assert.Equal(t, 2.0, h)

	// Footprint just overlapping the platform edge.
	h, ok = s.Surface(mgl64.Vec3{6.1, 0, 5}, 0.2, sim.LayerGround)
	require.True(t, ok)
	assert.Equal(t, 2.0, h)

	h, ok = s.Surface(mgl64.Vec3{6.5, 0, 5}, 0.2, sim.LayerGround)
	require.True(t, ok)
	assert.Equal(t, 0.0, h)
}

func TestSurface_Misses(t *testing.T) {
	s := testLevel()

	_, ok := s.Surface(mgl64.Vec3{12, 0, 12}, 0.2, sim.LayerGround)
	assert.False(t, ok, "off the level")

	h, ok := s.Surface(mgl64.Vec3{8.5, 0, 0.5}, 0.2, sim.LayerGround)
	require.True(t, ok)
	assert.Equal(t, 0.0, h, "other layers are ignored")

	h, ok = s.Surface(mgl64.Vec3{8.5, 0, 0.5}, 0.2, "decor")
	require.True(t, ok)
	assert.Equal(t, 5.0, h)
}

func TestGrounded(t *testing.T) {
	s := NewFlat(20, 1)
	assert.True(t, sim.Grounded(s, mgl64.Vec3{0, 1, 0}, 0.2, sim.LayerGround))
	assert.True(t, sim.Grounded(s, mgl64.Vec3{0, 1.15, 0}, 0.2, sim.LayerGround))
	assert.False(t, sim.Grounded(s, mgl64.Vec3{0, 2, 0}, 0.2, sim.LayerGround))
	assert.False(t, sim.Grounded(s, mgl64.Vec3{30, 1, 0}, 0.2, sim.LayerGround))
}
