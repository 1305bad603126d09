package systems

import "github.com/automoto/doomerang-netcode/shared/netconfig"

// maxTombstones bounds how many despawned ids a peer remembers.
const maxTombstones = 1024

// tombstones remembers recently despawned ids so late snapshots and a spawn
// reordered behind its despawn cannot bring an entity back. The oldest id
// is forgotten first.
type tombstones struct {
	set  map[netconfig.EntityID]struct{}
	ring [maxTombstones]netconfig.EntityID
	next int
	full bool
}

func newTombstones() *tombstones {
	return &tombstones{set: make(map[netconfig.EntityID]struct{})}
}

func (t *tombstones) add(id netconfig.EntityID) {
	if _, dead := t.set[id]; dead {
		return
	}
	if t.full {
		delete(t.set, t.ring[t.next])
	}
	t.ring[t.next] = id
	t.set[id] = struct{}{}
	t.next++
	if t.next == maxTombstones {
		t.next, t.full = 0, true
	}
}

func (t *tombstones) has(id netconfig.EntityID) bool {
	_, dead := t.set[id]
	return dead
}

func (t *tombstones) len() int {
	return len(t.set)
}
