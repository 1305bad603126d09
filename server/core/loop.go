package core

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// GameLoop drives registered callbacks at a fixed rate. It implements
// systems.Scheduler.
type GameLoop struct {
	interval time.Duration
	tick     []func()
	post     []func()
	count    uint64
}

func NewGameLoop(interval time.Duration) *GameLoop {
	return &GameLoop{interval: interval}
}

// OnTick registers fn to run once per tick, in registration order.
func (g *GameLoop) OnTick(fn func()) { g.tick = append(g.tick, fn) }

// OnPostTick registers fn to run after every OnTick callback of a tick.
func (g *GameLoop) OnPostTick(fn func()) { g.post = append(g.post, fn) }

// Run ticks until ctx is done. Callbacks must be registered before Run.
func (g *GameLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	log.Infof("[loop] started at %v per tick", g.interval)

	for {
		select {
		case <-ctx.Done():
			log.Infof("[loop] stopped after %d ticks", g.count)
			return nil
		case <-ticker.C:
			g.Step()
		}
	}
}

// Step runs a single tick immediately.
func (g *GameLoop) Step() {
	g.count++
	for _, fn := range g.tick {
		fn()
	}
	for _, fn := range g.post {
		fn()
	}
}

// Ticks returns the number of ticks run.
func (g *GameLoop) Ticks() uint64 { return g.count }
