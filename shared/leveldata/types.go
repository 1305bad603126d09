// Package leveldata provides TMX level parsing shared between client and server.
// It has no dependencies on ebitengine, donburi, or resolv.
package leveldata

// GroundData holds all collision-relevant data parsed from a TMX level file,
// converted to world units (one tile = one unit). The map's X axis is world X
// and its Y axis is world Z.
type GroundData struct {
	Rects       []GroundRect
	SpawnPoints []SpawnPoint
	Width       float64
	Depth       float64
}

// GroundRect is a walkable footprint whose top surface sits at Height.
type GroundRect struct {
	X, Z, W, D float64
	Height     float64
	Layer      string
}

// SpawnPoint represents a player spawn location.
type SpawnPoint struct {
	X, Y, Z float64
	Index   int
}

// Flat returns a single ground plane of the given extent centred on the origin.
func Flat(extent, height float64) *GroundData {
	return &GroundData{
		Rects: []GroundRect{{
			X: -extent / 2, Z: -extent / 2,
			W: extent, D: extent,
			Height: height,
			Layer:  "ground",
		}},
		SpawnPoints: []SpawnPoint{{Y: height}},
		Width:       extent,
		Depth:       extent,
	}
}
