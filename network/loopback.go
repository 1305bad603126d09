package network

import (
	"math/rand"
	"sync"

	"github.com/automoto/doomerang-netcode/shared/protocol"
	log "github.com/sirupsen/logrus"
)

// Sink receives decoded messages. systems.Inbox implements it.
type Sink interface {
	Push(msg any) bool
}

// LoopbackConfig describes an unreliable one-way link.
type LoopbackConfig struct {
	Latency   int     // ticks before a packet is delivered
	Jitter    int     // extra random ticks, 0..Jitter
	Drop      float64 // probability a packet is lost
	Duplicate float64 // probability a packet is delivered twice
	Seed      int64
}

type inflight struct {
	due  int
	data []byte
}

// Loopback is an in-memory, byte-level transport between two peers. Every
// packet goes through the wire codec; loss, duplication and reordering
// come from a seeded generator so runs are reproducible.
type Loopback struct {
	mu     sync.Mutex
	cfg    LoopbackConfig
	rng    *rand.Rand
	dest   Sink
	now    int
	queue  []inflight
	sent   int
	lost   int
	failed int
}

// NewLoopback returns a link delivering into dest.
func NewLoopback(dest Sink, cfg LoopbackConfig) *Loopback {
	return &Loopback{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		dest: dest,
	}
}

// Send encodes msg and schedules its delivery. Loss is silent, as on a real
// datagram link; only encoding failures are reported.
func (l *Loopback) Send(msg any) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent++
	if l.rng.Float64() < l.cfg.Drop {
		l.lost++
		return nil
	}
	copies := 1
	if l.rng.Float64() < l.cfg.Duplicate {
		copies++
	}
	for i := 0; i < copies; i++ {
		due := l.now + l.cfg.Latency
		if l.cfg.Jitter > 0 {
			due += l.rng.Intn(l.cfg.Jitter + 1)
		}
		l.queue = append(l.queue, inflight{due: due, data: data})
	}
	return nil
}

// Advance moves the link one tick forward and delivers everything due, in
// the order it became due.
func (l *Loopback) Advance() {
	l.mu.Lock()
	l.now++
	var due [][]byte
	kept := l.queue[:0]
	for _, p := range l.queue {
		if p.due <= l.now {
			due = append(due, p.data)
			continue
		}
		kept = append(kept, p)
	}
	l.queue = kept
	l.mu.Unlock()

	for _, data := range due {
		msg, err := protocol.Decode(data)
		if err != nil {
			l.mu.Lock()
			l.failed++
			l.mu.Unlock()
			log.WithError(err).Warn("[loopback] dropping undecodable packet")
			continue
		}
		l.dest.Push(msg)
	}
}

// InFlight returns the number of queued packets.
func (l *Loopback) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// LoopbackStats counts what happened to sent packets.
type LoopbackStats struct {
	Sent, Lost, Undecodable int
}

// Stats returns the link counters.
func (l *Loopback) Stats() LoopbackStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LoopbackStats{Sent: l.sent, Lost: l.lost, Undecodable: l.failed}
}
