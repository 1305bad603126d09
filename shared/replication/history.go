// Package replication retains tick-tagged commands until they are confirmed
// (owner side) or executed (authority side).
package replication

import (
	"errors"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
)

var (
	// ErrStaleCommand is returned for a command at or below the discard floor.
	ErrStaleCommand = errors.New("stale command")
	// ErrDuplicateCommand is returned when a tick is already recorded.
	ErrDuplicateCommand = errors.New("duplicate command")
	// ErrFutureCommand is returned for a command more than a full window
	// ahead of the discard floor.
	ErrFutureCommand = errors.New("command too far ahead")
)

const historySize = netconfig.HistorySize

// Record stores a command alongside the state predicted after applying it.
type Record[C messages.Ticked] struct {
	Command       C
	Predicted     netcomponents.State
	HasPrediction bool
}

// Tick returns the tick of the recorded command.
func (r Record[C]) Tick() netconfig.Tick {
	return r.Command.GetTick()
}

// History is a ring buffer of commands keyed by tick. Slots are addressed by
// tick modulo the ring size, so lookups, inserts and discards never scan
// more than the live window. Delivery order does not matter: a command lands
// in its tick's slot whenever it arrives.
type History[C messages.Ticked] struct {
	slots  [historySize]Record[C]
	used   [historySize]bool
	floor  netconfig.Tick // every tick <= floor has been discarded
	newest netconfig.Tick
	count  int
}

// NewHistory returns an empty history whose first accepted tick is floor+1.
func NewHistory[C messages.Ticked](floor netconfig.Tick) *History[C] {
	return &History[C]{floor: floor, newest: floor}
}

// Record stores cmd under its tick. Stale, duplicate and far-future
// deliveries are rejected with an error and leave the history unchanged.
// The live window is (floor, floor+size], so a slot never holds two live
// ticks.
func (h *History[C]) Record(cmd C) error {
	t := cmd.GetTick()
	if t <= h.floor {
		return ErrStaleCommand
	}
	if t-h.floor > historySize {
		return ErrFutureCommand
	}
	idx := t % historySize
	if h.used[idx] {
		return ErrDuplicateCommand
	}
	h.slots[idx] = Record[C]{Command: cmd}
	h.used[idx] = true
	h.count++
	if t > h.newest {
		h.newest = t
	}
	return nil
}

// Get retrieves the record for tick. Returns false if not found or
// discarded.
func (h *History[C]) Get(tick netconfig.Tick) (Record[C], bool) {
	if tick <= h.floor {
		return Record[C]{}, false
	}
	idx := tick % historySize
	if !h.used[idx] || h.slots[idx].Command.GetTick() != tick {
		return Record[C]{}, false
	}
	return h.slots[idx], true
}

// SetPredicted attaches the state predicted after applying tick's command.
func (h *History[C]) SetPredicted(tick netconfig.Tick, state netcomponents.State) bool {
	if _, ok := h.Get(tick); !ok {
		return false
	}
	idx := tick % historySize
	h.slots[idx].Predicted = state
	h.slots[idx].HasPrediction = true
	return true
}

// DiscardUpTo removes every record with tick <= tick and raises the floor,
// so later deliveries for those ticks are rejected as stale.
func (h *History[C]) DiscardUpTo(tick netconfig.Tick) {
	if tick <= h.floor {
		return
	}
	if tick-h.floor >= historySize {
		clear(h.used[:])
		h.count = 0
	} else {
		for t := h.floor + 1; t <= tick; t++ {
			idx := t % historySize
			if h.used[idx] && h.slots[idx].Command.GetTick() == t {
				h.used[idx] = false
				h.slots[idx] = Record[C]{}
				h.count--
			}
		}
	}
	h.floor = tick
	if h.newest < tick {
		h.newest = tick
	}
}

// After returns all records with tick greater than tick, in ascending tick order.
func (h *History[C]) After(tick netconfig.Tick) []Record[C] {
	start := max(tick, h.floor) + 1
	var out []Record[C]
	for t := start; t <= h.newest; t++ {
		if rec, ok := h.Get(t); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Floor returns the highest discarded tick.
func (h *History[C]) Floor() netconfig.Tick {
	return h.floor
}

// Newest returns the highest tick recorded or discarded so far.
func (h *History[C]) Newest() netconfig.Tick {
	return h.newest
}

// Len returns the number of live records.
func (h *History[C]) Len() int {
	return h.count
}

// Reset drops every record and moves the floor to tick.
func (h *History[C]) Reset(tick netconfig.Tick) {
	*h = History[C]{floor: tick, newest: tick}
}
