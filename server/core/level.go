package core

import (
	"fmt"

	"github.com/automoto/doomerang-netcode/shared/ground"
	"github.com/automoto/doomerang-netcode/shared/leveldata"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
)

// ServerLevel holds the server's ground index and spawn data.
type ServerLevel struct {
	Ground      *ground.Space
	SpawnPoints []leveldata.SpawnPoint
	Width       float64
	Depth       float64
}

// NewServerLevel indexes parsed ground data.
func NewServerLevel(data *leveldata.GroundData) *ServerLevel {
	log.Infof("[level] loaded %d ground rects, %d spawn points, %.0fx%.0f",
		len(data.Rects), len(data.SpawnPoints), data.Width, data.Depth)

	return &ServerLevel{
		Ground:      ground.NewSpace(data),
		SpawnPoints: data.SpawnPoints,
		Width:       data.Width,
		Depth:       data.Depth,
	}
}

// LoadServerLevel loads a .tmx ground map, or a flat floor when path is empty.
func LoadServerLevel(path string) (*ServerLevel, error) {
	data, err := leveldata.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load level %s: %w", path, err)
	}
	return NewServerLevel(data), nil
}

// SpawnPoint returns the n-th spawn point, cycling through the list.
func (l *ServerLevel) SpawnPoint(n int) leveldata.SpawnPoint {
	if len(l.SpawnPoints) == 0 {
		return leveldata.SpawnPoint{}
	}
	return l.SpawnPoints[n%len(l.SpawnPoints)]
}

func spawnState(x, y, z float64) netcomponents.State {
	return netcomponents.NewState(mgl64.Vec3{x, y, z})
}
