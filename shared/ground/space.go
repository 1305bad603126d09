// Package ground answers ground-contact queries against static level geometry
// using a resolv broadphase over the horizontal XZ plane.
package ground

import (
	"math"

	"github.com/automoto/doomerang-netcode/shared/leveldata"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

// resolv works in integer cells; world units are scaled so one unit spans
// one cell of cellSize.
const (
	cellSize = 16
	scale    = float64(cellSize)
	margin   = 4.0 // world units of empty space around the level bounds
)

// Space is a read-mostly ground index. Surface moves an internal probe, so a
// Space must only be queried from the tick goroutine that owns it.
type Space struct {
	space   *resolv.Space
	probe   *resolv.Object
	rects   map[*resolv.Object]leveldata.GroundRect
	originX float64
	originZ float64
}

// NewSpace indexes every ground rect in data.
func NewSpace(data *leveldata.GroundData) *Space {
	minX, minZ := math.Inf(1), math.Inf(1)
	maxX, maxZ := math.Inf(-1), math.Inf(-1)
	for _, r := range data.Rects {
		minX = math.Min(minX, r.X)
		minZ = math.Min(minZ, r.Z)
		maxX = math.Max(maxX, r.X+r.W)
		maxZ = math.Max(maxZ, r.Z+r.D)
	}
	if len(data.Rects) == 0 {
		minX, minZ, maxX, maxZ = 0, 0, 0, 0
	}

	s := &Space{
		rects:   make(map[*resolv.Object]leveldata.GroundRect, len(data.Rects)),
		originX: minX - margin,
		originZ: minZ - margin,
	}
	w := int(math.Ceil((maxX-minX+2*margin)*scale)) + cellSize
	h := int(math.Ceil((maxZ-minZ+2*margin)*scale)) + cellSize
	s.space = resolv.NewSpace(w, h, cellSize, cellSize)

	for _, r := range data.Rects {
		x, z := s.toSpace(r.X, r.Z)
		obj := resolv.NewObject(x, z, r.W*scale, r.D*scale, r.Layer)
		obj.SetShape(resolv.NewRectangle(0, 0, r.W*scale, r.D*scale))
		s.space.Add(obj)
		s.rects[obj] = r
	}

	s.probe = resolv.NewObject(0, 0, 1, 1, "probe")
	s.space.Add(s.probe)
	return s
}

// NewFlat builds a single plane of the given extent centred on the origin.
func NewFlat(extent, height float64) *Space {
	return NewSpace(leveldata.Flat(extent, height))
}

func (s *Space) toSpace(x, z float64) (float64, float64) {
	return (x - s.originX) * scale, (z - s.originZ) * scale
}

// Surface returns the highest ground height on layer under the circle of
// radius around pos's XZ footprint.
func (s *Space) Surface(pos mgl64.Vec3, radius float64, layer string) (float64, bool) {
	x, z := s.toSpace(pos.X()-radius, pos.Z()-radius)
	s.probe.X, s.probe.Y = x, z
	size := math.Max(1, 2*radius*scale)
	s.probe.W, s.probe.H = size, size
	s.probe.Update()

	check := s.probe.Check(0, 0, layer)
	if check == nil {
		return 0, false
	}

	best, found := 0.0, false
	for _, obj := range check.ObjectsByTags(layer) {
		r, ok := s.rects[obj]
		if !ok || !circleOverlapsRect(pos.X(), pos.Z(), radius, r) {
			continue
		}
		if !found || r.Height > best {
			best, found = r.Height, true
		}
	}
	return best, found
}

// circleOverlapsRect tests the footprint against a rect exactly; the resolv
// check above is only a cell-level broadphase.
func circleOverlapsRect(cx, cz, radius float64, r leveldata.GroundRect) bool {
	nx := math.Max(r.X, math.Min(cx, r.X+r.W))
	nz := math.Max(r.Z, math.Min(cz, r.Z+r.D))
	dx, dz := cx-nx, cz-nz
	return dx*dx+dz*dz <= radius*radius
}
