package systems

import (
	"github.com/automoto/doomerang-netcode/components"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"github.com/yohamta/donburi"
)

// DefaultSmoothing is how long a reconciliation jump takes to fade out on screen, in seconds.
const DefaultSmoothing = 0.15

// CorrectionSmoother hides reconciliation jumps from the player. It never
// touches simulation state: the drawn position is the simulated one plus an
// offset that eases from the jump back to zero.
type CorrectionSmoother struct {
	Duration float32
	active   map[netconfig.EntityID]*smoothing
}

type smoothing struct {
	offset mgl64.Vec3
	factor float64
	tween  *gween.Tween
}

// NewCorrectionSmoother returns a smoother with the default duration.
func NewCorrectionSmoother() *CorrectionSmoother {
	return &CorrectionSmoother{
		Duration: DefaultSmoothing,
		active:   make(map[netconfig.EntityID]*smoothing),
	}
}

// Observe starts hiding a correction of c. A correction arriving while an
// earlier one is still fading is folded into it.
func (s *CorrectionSmoother) Observe(id netconfig.EntityID, c mgl64.Vec3) {
	if s.Duration <= 0 {
		return
	}
	s.active[id] = &smoothing{
		offset: s.Offset(id).Sub(c),
		factor: 1,
		tween:  gween.New(1, 0, s.Duration, ease.OutQuad),
	}
}

// Update advances every fade by dt seconds.
func (s *CorrectionSmoother) Update(dt float64) {
	for id, sm := range s.active {
		f, done := sm.tween.Update(float32(dt))
		sm.factor = float64(f)
		if done {
			delete(s.active, id)
		}
	}
}

// Offset is what to add to id's simulated position when drawing.
func (s *CorrectionSmoother) Offset(id netconfig.EntityID) mgl64.Vec3 {
	sm, ok := s.active[id]
	if !ok {
		return mgl64.Vec3{}
	}
	return sm.offset.Mul(sm.factor)
}

// Forget drops any fade for id.
func (s *CorrectionSmoother) Forget(id netconfig.EntityID) {
	delete(s.active, id)
}

// Collect feeds every correction the peer's engines produced this tick.
func (s *CorrectionSmoother) Collect(p *Peer) {
	p.entities.Each(p.ecs.World, func(entry *donburi.Entry) {
		data := components.Replicated.Get(entry)
		if c, ok := data.Engine.TakeCorrection(); ok && data.ID != 0 {
			s.Observe(data.ID, c)
		}
	})
}
