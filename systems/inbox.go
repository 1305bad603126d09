package systems

import log "github.com/sirupsen/logrus"

const inboxSize = 1024

// Inbox queues messages from transport goroutines until the tick drains
// them. It never blocks a sender: when full, the message is dropped, which
// the core already tolerates as network loss.
type Inbox struct {
	ch chan any
}

func NewInbox() *Inbox {
	return &Inbox{ch: make(chan any, inboxSize)}
}

// Push enqueues msg, non-blocking. It reports whether msg was kept.
func (i *Inbox) Push(msg any) bool {
	select {
	case i.ch <- msg:
		return true
	default:
		log.Debugf("[inbox] full, dropping %T", msg)
		return false
	}
}

// Drain returns all pending messages, non-blocking.
func (i *Inbox) Drain() []any {
	return drainChan(i.ch)
}

func drainChan[T any](ch chan T) []T {
	var out []T
	for {
		select {
		case v := <-ch:
			out = append(out, v)
		default:
			return out
		}
	}
}
