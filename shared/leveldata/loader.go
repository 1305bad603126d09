package leveldata

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/lafriks/go-tiled"
)

const defaultLayer = "ground"

// FlatExtent is the side length of the floor used when no map is given.
const FlatExtent = 200

// Load reads the map at path from disk, or returns a flat floor at height 0
// when path is empty. Every peer must load the same map.
func Load(path string) (*GroundData, error) {
	if path == "" {
		return Flat(FlatExtent, 0), nil
	}
	return LoadGroundData(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadGroundData parses a TMX file and returns ground footprints and player
// spawn points. It takes an fs.FS so callers can pass embed.FS or os.DirFS.
//
// Ground comes from rectangle objects in the "Ground" object group; each may
// carry a "height" float and a "layer" string property.
func LoadGroundData(fsys fs.FS, tmxPath string) (*GroundData, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	if levelMap.TileWidth == 0 || levelMap.TileHeight == 0 {
		return nil, fmt.Errorf("load TMX %s: zero tile size", tmxPath)
	}

	unitX := float64(levelMap.TileWidth)
	unitZ := float64(levelMap.TileHeight)
	data := &GroundData{
		Width: float64(levelMap.Width),
		Depth: float64(levelMap.Height),
	}

	for _, og := range levelMap.ObjectGroups {
		switch og.Name {
		case "Ground":
			for _, o := range og.Objects {
				layer := o.Properties.GetString("layer")
				if layer == "" {
					layer = defaultLayer
				}
				data.Rects = append(data.Rects, GroundRect{
					X:      o.X / unitX,
					Z:      o.Y / unitZ,
					W:      o.Width / unitX,
					D:      o.Height / unitZ,
					Height: o.Properties.GetFloat("height"),
					Layer:  layer,
				})
			}
		case "PlayerSpawn":
			for _, o := range og.Objects {
				data.SpawnPoints = append(data.SpawnPoints, SpawnPoint{
					X:     o.X / unitX,
					Y:     o.Properties.GetFloat("height"),
					Z:     o.Y / unitZ,
					Index: o.Properties.GetInt("spawnIndex"),
				})
			}
		}
	}

	if len(data.Rects) == 0 {
		return nil, fmt.Errorf("load TMX %s: no Ground objects", tmxPath)
	}

	// Sort spawns by index for consistent assignment
	sort.Slice(data.SpawnPoints, func(i, j int) bool {
		return data.SpawnPoints[i].Index < data.SpawnPoints[j].Index
	})

	return data, nil
}
