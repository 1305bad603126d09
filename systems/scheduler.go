package systems

// Scheduler is the fixed-rate tick source. The core only registers
// callbacks; rate control belongs to the scheduler.
type Scheduler interface {
	// OnTick registers fn to run once per tick.
	OnTick(fn func())
	// OnPostTick registers fn to run after every OnTick callback of a tick.
	OnPostTick(fn func())
}

// ManualScheduler runs ticks on demand. Tests and the ebiten client's
// fixed-step accumulator drive it.
type ManualScheduler struct {
	tick []func()
	post []func()
}

func (s *ManualScheduler) OnTick(fn func())     { s.tick = append(s.tick, fn) }
func (s *ManualScheduler) OnPostTick(fn func()) { s.post = append(s.post, fn) }

// Step runs n ticks.
func (s *ManualScheduler) Step(n int) {
	for i := 0; i < n; i++ {
		for _, fn := range s.tick {
			fn()
		}
		for _, fn := range s.post {
			fn()
		}
	}
}
