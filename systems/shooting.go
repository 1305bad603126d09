package systems

import (
	"github.com/automoto/doomerang-netcode/components"
	"github.com/automoto/doomerang-netcode/shared/gamemath"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
)

// orphanGrace is how long a predicted shot outlives its nominal lifetime
// when the authority never confirms it.
const orphanGrace = 0.5

// muzzleHeight lifts the spawn point off the character's feet.
const muzzleHeight = 1.0

type shotKey struct {
	shooter netconfig.EntityID
	tick    netconfig.Tick
}

// fire runs when a character's command with Fire set is applied for the
// first time. Replays never get here.
func (p *Peer) fire(shooter netconfig.EntityID, role netconfig.Role, cmd messages.Command, state netcomponents.State) {
	vel := gamemath.LaunchVelocity(cmd.Aim, state.Rotation, p.cfg.ProjectileSpeed)
	origin := state.Position.Add(mgl64.Vec3{0, muzzleHeight, 0})
	if vel.Len() > 0 {
		origin = origin.Add(vel.Normalize().Mul(p.cfg.MuzzleOffset))
	}

	spec := SpawnSpec{
		Kind:     netconfig.KindProjectile,
		Role:     role,
		Tick:     cmd.Tick,
		State:    netcomponents.NewState(origin),
		Owner:    shooter,
		Velocity: vel,
	}
	spec.State.Velocity = vel
	if yaw, ok := gamemath.YawOf(vel); ok {
		spec.State.Rotation = gamemath.QuatFromYaw(yaw)
	}

	switch role {
	case netconfig.RoleOwner:
		p.deferred = append(p.deferred, func() { p.spawnPredictedShot(spec) })
	case netconfig.RoleAuthority:
		p.deferred = append(p.deferred, func() { p.spawnAuthoritativeShot(spec) })
	}
}

// spawnPredictedShot creates the owner's local copy. It has no id until the
// authority's spawn event is matched to it.
func (p *Peer) spawnPredictedShot(spec SpawnSpec) {
	entity, err := p.Spawn(spec)
	if err != nil {
		log.WithError(err).Error("[shoot] predicted shot")
		return
	}
	entry := p.ecs.World.Entry(entity)
	entry.AddComponent(components.PredictedShot)
	components.PredictedShot.SetValue(entry, components.PredictedShotData{
		Shooter:    spec.Owner,
		SourceTick: spec.Tick,
	})
	entry.AddComponent(components.Lifetime)
	components.Lifetime.SetValue(entry, components.LifetimeData{
		Remaining: netconfig.TicksFor(netconfig.ProjectileLifetime + orphanGrace),
		Since:     p.tick,
	})
	p.shots[shotKey{shooter: spec.Owner, tick: spec.Tick}] = entity
}

// spawnAuthoritativeShot creates the real projectile, announces it and
// schedules its destruction.
func (p *Peer) spawnAuthoritativeShot(spec SpawnSpec) {
	spec.ID = p.AllocateID()
	if _, err := p.Spawn(spec); err != nil {
		log.WithError(err).Error("[shoot] authoritative shot")
		return
	}

	ev := messages.SpawnEvent{
		EntityID:   spec.ID,
		Kind:       spec.Kind,
		OwnerID:    spec.Owner,
		SourceTick: spec.Tick,
		Tick:       spec.Tick,
		State:      spec.State,
		Velocity:   spec.Velocity,
	}
	if p.cfg.Lifecycle == nil {
		p.ExpireAfter(spec.ID, netconfig.ProjectileLifetime)
		return
	}
	if err := p.cfg.Lifecycle.Promote(ev); err != nil {
		log.WithError(err).WithField("entity", spec.ID).Warn("[shoot] promote failed")
	}
	p.cfg.Lifecycle.DestroyAfter(spec.ID, netconfig.ProjectileLifetime)
}

// onSpawnEvent creates the local copy of an entity the authority announced.
// A projectile this peer already predicted is adopted instead.
func (p *Peer) onSpawnEvent(ev messages.SpawnEvent) {
	if _, exists := p.byID[ev.EntityID]; exists {
		return
	}
	if p.dead.has(ev.EntityID) {
		log.WithField("entity", ev.EntityID).Debug("[peer] spawn for despawned entity ignored")
		return
	}
	if ev.Kind == netconfig.KindProjectile {
		key := shotKey{shooter: ev.OwnerID, tick: ev.SourceTick}
		if entity, ok := p.shots[key]; ok && p.ecs.World.Valid(entity) {
			p.adopt(entity, key, ev.EntityID)
			return
		}
	}

	_, err := p.Spawn(SpawnSpec{
		ID:       ev.EntityID,
		Kind:     ev.Kind,
		Role:     netconfig.RoleObserver,
		Tick:     ev.Tick,
		State:    ev.State,
		Owner:    ev.OwnerID,
		Velocity: ev.Velocity,
	})
	if err != nil {
		log.WithError(err).Error("[peer] spawn event")
	}
}

func (p *Peer) adopt(entity donburi.Entity, key shotKey, id netconfig.EntityID) {
	delete(p.shots, key)
	entry := p.ecs.World.Entry(entity)
	data := components.Replicated.Get(entry)
	data.ID = id
	data.Engine.Bind(id)
	entry.RemoveComponent(components.PredictedShot)
	// The authority destroys it from here on.
	entry.RemoveComponent(components.Lifetime)

	p.byID[id] = entity
	p.flushWaiting(id, data.Engine)
	log.WithFields(log.Fields{"entity": id, "shooter": key.shooter, "tick": key.tick}).Debug("[shoot] adopted predicted shot")
}
