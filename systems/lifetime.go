package systems

import (
	"github.com/automoto/doomerang-netcode/components"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	log "github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// ExpireAfter schedules the authoritative destruction of id. The entity
// still steps on the tick its lifetime runs out and never again.
func (p *Peer) ExpireAfter(id netconfig.EntityID, seconds float64) {
	entity, ok := p.byID[id]
	if !ok || !p.ecs.World.Valid(entity) {
		log.WithField("entity", id).Warn("[lifetime] expire requested for unknown entity")
		return
	}
	entry := p.ecs.World.Entry(entity)
	if !entry.HasComponent(components.Lifetime) {
		entry.AddComponent(components.Lifetime)
	}
	components.Lifetime.SetValue(entry, components.LifetimeData{
		Remaining:     netconfig.TicksFor(seconds),
		Since:         p.tick,
		Authoritative: true,
	})
}

// runLifetimes counts lifetimes down and destroys what ran out. Removal is
// collected first; the world is not modified while it is being queried.
func (p *Peer) runLifetimes(e *ecs.ECS) {
	var expired []donburi.Entity
	p.lifetimes.Each(e.World, func(entry *donburi.Entry) {
		lt := components.Lifetime.Get(entry)
		if lt.Since >= p.tick {
			return
		}
		if lt.Remaining > 0 {
			lt.Remaining--
		}
		if lt.Remaining == 0 {
			expired = append(expired, entry.Entity())
		}
	})

	for _, entity := range expired {
		if !e.World.Valid(entity) {
			continue
		}
		entry := e.World.Entry(entity)
		data := components.Replicated.Get(entry)
		if components.Lifetime.Get(entry).Authoritative && data.ID != 0 {
			p.Despawn(data.ID)
			continue
		}
		log.WithFields(log.Fields{"shooter": data.Owner}).Debug("[lifetime] unconfirmed local object expired")
		p.remove(entity)
	}
}
