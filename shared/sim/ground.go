package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LayerGround is the collision layer walkable geometry is tagged with.
const LayerGround = "ground"

// Ground answers spatial queries against static level geometry. Every peer
// must hold the same geometry for replay to agree; differing local geometry
// shows up as correction jitter, not as an error.
type Ground interface {
	// Surface returns the height of the highest ground on layer under a
	// circular footprint of radius around pos.
	Surface(pos mgl64.Vec3, radius float64, layer string) (float64, bool)
}

// Grounded reports whether a body at pos is standing on ground: the surface
// under its footprint is within radius of its feet.
func Grounded(g Ground, pos mgl64.Vec3, radius float64, layer string) bool {
	if g == nil {
		return false
	}
	h, ok := g.Surface(pos, radius, layer)
	if !ok {
		return false
	}
	return math.Abs(pos.Y()-h) <= radius
}
