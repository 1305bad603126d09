package config

import (
	"encoding/json"
	"fmt"

	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/quasilyte/gdata"
	log "github.com/sirupsen/logrus"
)

const tunablesKey = "tunables"

// Params converts the configured movement into simulation parameters.
func (m Movement) Params() sim.Params {
	return sim.Params{
		MoveRate:  m.MoveRate,
		JumpForce: m.JumpForce,
		TurnRate:  m.TurnRate,
	}
}

// SavedTunables is the on-disk form of the client's local movement tuning.
type SavedTunables struct {
	MoveRate  float64 `json:"moveRate"`
	JumpForce float64 `json:"jumpForce"`
	TurnRate  float64 `json:"turnRate"`
}

// Store persists client settings between runs.
type Store struct {
	m *gdata.Manager
}

// OpenStore opens the per-user data directory for app.
func OpenStore(app string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{m: m}, nil
}

// LoadTunables returns the saved local tuning, or the defaults when nothing
// usable was saved. A nil store always yields the defaults.
func (s *Store) LoadTunables() sim.Params {
	p := sim.DefaultParams()
	if s == nil || s.m == nil {
		return p
	}
	data, err := s.m.LoadItem(tunablesKey)
	if err != nil {
		log.Warnf("[config] could not load tunables: %v", err)
		return p
	}
	if len(data) == 0 {
		return p
	}

	var saved SavedTunables
	if err := json.Unmarshal(data, &saved); err != nil {
		log.Warnf("[config] could not parse saved tunables: %v", err)
		return p
	}
	if saved.MoveRate > 0 {
		p.MoveRate = saved.MoveRate
	}
	if saved.JumpForce > 0 {
		p.JumpForce = saved.JumpForce
	}
	if saved.TurnRate > 0 {
		p.TurnRate = saved.TurnRate
	}
	return p
}

// SaveTunables writes p as the local tuning.
func (s *Store) SaveTunables(p sim.Params) error {
	if s == nil || s.m == nil {
		return nil
	}
	data, err := json.Marshal(SavedTunables{
		MoveRate:  p.MoveRate,
		JumpForce: p.JumpForce,
		TurnRate:  p.TurnRate,
	})
	if err != nil {
		return fmt.Errorf("encode tunables: %w", err)
	}
	if err := s.m.SaveItem(tunablesKey, data); err != nil {
		return fmt.Errorf("save tunables: %w", err)
	}
	return nil
}
