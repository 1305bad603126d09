package systems

import (
	"errors"
	"fmt"

	"github.com/automoto/doomerang-netcode/components"
	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/reconcile"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/go-gl/mathgl/mgl64"
	log "github.com/sirupsen/logrus"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
	"github.com/yohamta/donburi/filter"
)

// ErrAlreadySpawned is returned when an id is spawned twice.
var ErrAlreadySpawned = errors.New("entity already spawned")

const (
	// maxWaiting bounds messages held for an entity that has not spawned yet.
	maxWaiting = 32
	// maxWaitTicks is how long messages for an unknown id are held before
	// they are given up on.
	maxWaitTicks = 2 * netconfig.TickRate
)

// waitList holds messages for an id that has not spawned yet.
type waitList struct {
	since netconfig.Tick
	msgs  []any
}

// Lifecycle is what the core asks of the outside world when entities appear
// or expire. The server implements it; clients leave it nil.
type Lifecycle interface {
	// Promote turns a locally created object into a server-owned networked
	// one, announcing it to every peer.
	Promote(spawn messages.SpawnEvent) error
	// DestroyAfter schedules the authoritative destruction of id.
	DestroyAfter(id netconfig.EntityID, seconds float64)
}

// Config wires a Peer.
type Config struct {
	Clock     Clock
	Ground    sim.Ground
	Params    *sim.Params // locally configured movement tunables
	Input     *InputSampler
	Send      func(msg any) error
	Lifecycle Lifecycle
	Inbox     *Inbox // created when nil

	ProjectileSpeed float64
	MuzzleOffset    float64
}

// SpawnSpec describes an entity to create on this peer.
type SpawnSpec struct {
	ID    netconfig.EntityID // 0 for local-only objects
	Kind  netconfig.EntityKind
	Role  netconfig.Role
	Tick  netconfig.Tick // last tick reflected in State
	State netcomponents.State

	// Controlled marks an authority entity driven by this peer's own input
	// (a host playing on its server).
	Controlled bool

	Owner    netconfig.EntityID // firing character, projectiles only
	Velocity mgl64.Vec3         // launch velocity, projectiles only
}

// Peer is one process's view of the simulation: every local entity, its
// engine, and the systems that run them in a fixed order each tick.
type Peer struct {
	cfg Config
	ecs *ecs.ECS

	inbox     *Inbox
	entities  *donburi.Query
	lifetimes *donburi.Query

	byID    map[netconfig.EntityID]donburi.Entity
	waiting map[netconfig.EntityID]*waitList
	dead    *tombstones
	shots   map[shotKey]donburi.Entity

	deferred  []func()
	post      []func(netconfig.Tick)
	onDespawn []func(netconfig.EntityID)

	stepper     sim.Stepper
	projStepper sim.Stepper

	nextID netconfig.EntityID
	tick   netconfig.Tick
	now    float64
}

// NewPeer creates an empty peer.
func NewPeer(cfg Config) *Peer {
	if cfg.Clock == nil {
		cfg.Clock = NewWallClock()
	}
	if cfg.Params == nil {
		p := sim.DefaultParams()
		cfg.Params = &p
	}
	if cfg.Inbox == nil {
		cfg.Inbox = NewInbox()
	}
	if cfg.ProjectileSpeed == 0 {
		cfg.ProjectileSpeed = 10
	}
	if cfg.MuzzleOffset == 0 {
		cfg.MuzzleOffset = 0.5
	}

	dt := netconfig.TickSeconds()
	p := &Peer{
		cfg:         cfg,
		ecs:         ecs.NewECS(donburi.NewWorld()),
		inbox:       cfg.Inbox,
		entities:    donburi.NewQuery(filter.Contains(components.Replicated)),
		lifetimes:   donburi.NewQuery(filter.Contains(components.Replicated, components.Lifetime)),
		byID:        make(map[netconfig.EntityID]donburi.Entity),
		waiting:     make(map[netconfig.EntityID]*waitList),
		dead:        newTombstones(),
		shots:       make(map[shotKey]donburi.Entity),
		stepper:     sim.Stepper{Body: sim.DefaultBody(dt), Ground: cfg.Ground},
		projStepper: sim.Stepper{Body: sim.ProjectileBody(dt)},
		nextID:      1,
	}

	// Order matters: every engine steps before any lifetime expires, so an
	// entity destroyed this tick has already run its final step.
	p.ecs.AddSystem(p.runEngines)
	p.ecs.AddSystem(p.runLifetimes)
	return p
}

// Attach registers the peer with a scheduler.
func (p *Peer) Attach(s Scheduler) {
	s.OnTick(p.Tick)
	s.OnPostTick(p.PostTick)
}

// Inbox is where transports push received messages.
func (p *Peer) Inbox() *Inbox { return p.inbox }

// World exposes the entity store.
func (p *Peer) World() donburi.World { return p.ecs.World }

// CurrentTick returns the number of ticks run.
func (p *Peer) CurrentTick() netconfig.Tick { return p.tick }

// Params returns the locally configured movement parameters.
func (p *Peer) Params() *sim.Params { return p.cfg.Params }

// SetLifecycle installs the spawn/despawn collaborator.
func (p *Peer) SetLifecycle(l Lifecycle) { p.cfg.Lifecycle = l }

// OnPostTick registers fn to run after each tick's systems.
func (p *Peer) OnPostTick(fn func(netconfig.Tick)) { p.post = append(p.post, fn) }

// OnDespawn registers fn to run whenever a networked entity is destroyed.
func (p *Peer) OnDespawn(fn func(netconfig.EntityID)) { p.onDespawn = append(p.onDespawn, fn) }

// AllocateID hands out a fresh network id. Only the authority allocates.
func (p *Peer) AllocateID() netconfig.EntityID {
	id := p.nextID
	p.nextID++
	return id
}

// Tick drains the inbox and runs every system once.
func (p *Peer) Tick() {
	p.tick++
	p.now = p.cfg.Clock.Now()
	for _, msg := range p.inbox.Drain() {
		p.dispatch(msg)
	}
	p.expireWaiting()
	p.ecs.Update()
}

// PostTick runs the post-step callbacks.
func (p *Peer) PostTick() {
	for _, fn := range p.post {
		fn(p.tick)
	}
}

// Spawn creates an entity and its engine. The only error is a missing
// simulation substrate (or a duplicate id); it is reported here, once.
func (p *Peer) Spawn(spec SpawnSpec) (donburi.Entity, error) {
	var none donburi.Entity
	if spec.ID != 0 {
		if _, exists := p.byID[spec.ID]; exists {
			return none, fmt.Errorf("spawn %s %d: %w", spec.Kind, spec.ID, ErrAlreadySpawned)
		}
	}

	engine, err := p.newEngine(spec)
	if err != nil {
		return none, fmt.Errorf("spawn %s %d: %w", spec.Kind, spec.ID, err)
	}

	entity := p.ecs.World.Create(components.Replicated)
	entry := p.ecs.World.Entry(entity)
	components.Replicated.SetValue(entry, components.ReplicatedData{
		ID:     spec.ID,
		Kind:   spec.Kind,
		Owner:  spec.Owner,
		Engine: engine,
	})

	if spec.ID != 0 {
		p.byID[spec.ID] = entity
		p.flushWaiting(spec.ID, engine)
	}

	log.WithFields(log.Fields{
		"entity": spec.ID,
		"kind":   spec.Kind,
		"role":   spec.Role,
		"tick":   spec.Tick,
	}).Debug("[peer] spawned")
	return entity, nil
}

func (p *Peer) newEngine(spec SpawnSpec) (reconcile.Runner, error) {
	switch spec.Kind {
	case netconfig.KindCharacter:
		return p.newCharacterEngine(spec)
	case netconfig.KindProjectile:
		return p.newProjectileEngine(spec)
	}
	return nil, fmt.Errorf("kind %d: %w", spec.Kind, reconcile.ErrNoBody)
}

func (p *Peer) newCharacterEngine(spec SpawnSpec) (reconcile.Runner, error) {
	id, role := spec.ID, spec.Role
	cfg := reconcile.Config[messages.Command]{
		EntityID: id,
		Role:     role,
		Start:    spec.Tick,
		State:    spec.State,
		Step:     p.stepper.Step,
		Params:   sim.NewResolver(p.cfg.Params, role),
		Send:     p.cfg.Send,
		OnApply: func(cmd messages.Command, state netcomponents.State) {
			if cmd.Fire {
				p.fire(id, role, cmd, state)
			}
		},
	}
	if (role == netconfig.RoleOwner || spec.Controlled) && p.cfg.Input != nil {
		input := p.cfg.Input
		cfg.Sample = func(t netconfig.Tick) messages.Command {
			cmd := input.Sample(t)
			cmd.EntityID = id
			return cmd
		}
	}
	return reconcile.New(cfg)
}

func (p *Peer) newProjectileEngine(spec SpawnSpec) (reconcile.Runner, error) {
	id, vel := spec.ID, spec.Velocity
	cfg := reconcile.Config[messages.ProjectileCommand]{
		EntityID: id,
		Role:     spec.Role,
		Start:    spec.Tick,
		State:    spec.State,
		Step:     p.projStepper.StepProjectile,
		Params:   sim.NewResolver(p.cfg.Params, spec.Role),
	}
	// Projectiles are self-driven: nobody sends their commands.
	if spec.Role != netconfig.RoleObserver {
		cfg.Sample = func(t netconfig.Tick) messages.ProjectileCommand {
			return messages.ProjectileCommand{Tick: t, EntityID: id, Velocity: vel}
		}
	}
	if spec.Role == netconfig.RoleAuthority {
		cfg.Send = p.cfg.Send
	}
	return reconcile.New(cfg)
}

// Despawn destroys a networked entity and everything buffered for it. It
// reports whether the entity existed. The id stays dead: later messages and
// spawn events for it are dropped.
func (p *Peer) Despawn(id netconfig.EntityID) bool {
	delete(p.waiting, id)
	if id != 0 {
		p.dead.add(id)
	}
	entity, ok := p.byID[id]
	if !ok {
		return false
	}
	delete(p.byID, id)
	p.remove(entity)

	log.WithField("entity", id).Debug("[peer] despawned")
	for _, fn := range p.onDespawn {
		fn(id)
	}
	return true
}

func (p *Peer) remove(entity donburi.Entity) {
	if !p.ecs.World.Valid(entity) {
		return
	}
	entry := p.ecs.World.Entry(entity)
	components.Replicated.Get(entry).Engine.Close()
	if entry.HasComponent(components.PredictedShot) {
		shot := components.PredictedShot.Get(entry)
		delete(p.shots, shotKey{shooter: shot.Shooter, tick: shot.SourceTick})
	}
	p.ecs.World.Remove(entity)
}

// Engine returns the engine of a networked entity.
func (p *Peer) Engine(id netconfig.EntityID) (reconcile.Runner, bool) {
	entity, ok := p.byID[id]
	if !ok || !p.ecs.World.Valid(entity) {
		return nil, false
	}
	return components.Replicated.Get(p.ecs.World.Entry(entity)).Engine, true
}

// Pose is the presentation query: the interpolated pose for observed
// entities, the simulated pose for owned and authoritative ones.
func (p *Peer) Pose(id netconfig.EntityID) (netcomponents.Pose, bool) {
	engine, ok := p.Engine(id)
	if !ok {
		return netcomponents.Pose{}, false
	}
	return engine.Pose(p.cfg.Clock.Now())
}

// Visit calls fn with every live entity and its current pose, including
// local-only predicted objects.
func (p *Peer) Visit(fn func(data components.ReplicatedData, pose netcomponents.Pose)) {
	now := p.cfg.Clock.Now()
	p.entities.Each(p.ecs.World, func(entry *donburi.Entry) {
		data := components.Replicated.Get(entry)
		if pose, ok := data.Engine.Pose(now); ok {
			fn(*data, pose)
		}
	})
}

// Len returns the number of live entities.
func (p *Peer) Len() int {
	return p.entities.Count(p.ecs.World)
}

// dispatch routes one received message. Messages for entities that have
// not spawned yet wait (bounded) until they do.
func (p *Peer) dispatch(msg any) {
	switch m := msg.(type) {
	case messages.Snapshot:
		p.route(m.EntityID, m)
	case messages.Command:
		p.route(m.EntityID, m)
	case messages.ProjectileCommand:
		p.route(m.EntityID, m)
	case messages.SpawnEvent:
		p.onSpawnEvent(m)
	case messages.DespawnEvent:
		p.Despawn(m.EntityID)
	default:
		log.Debugf("[peer] ignoring %T", msg)
	}
}

func (p *Peer) route(id netconfig.EntityID, msg any) {
	engine, ok := p.Engine(id)
	if ok {
		deliver(engine, msg)
		return
	}
	if p.dead.has(id) {
		return
	}
	w := p.waiting[id]
	if w == nil {
		w = &waitList{since: p.tick}
		p.waiting[id] = w
	}
	w.msgs = append(w.msgs, msg)
	if len(w.msgs) > maxWaiting {
		w.msgs = w.msgs[len(w.msgs)-maxWaiting:]
	}
}

func (p *Peer) flushWaiting(id netconfig.EntityID, engine reconcile.Runner) {
	w := p.waiting[id]
	delete(p.waiting, id)
	if w == nil {
		return
	}
	for _, msg := range w.msgs {
		deliver(engine, msg)
	}
}

// expireWaiting gives up on ids that never spawned.
func (p *Peer) expireWaiting() {
	for id, w := range p.waiting {
		if p.tick-w.since > maxWaitTicks {
			log.WithFields(log.Fields{"entity": id, "held": len(w.msgs)}).Debug("[peer] dropping messages for unknown entity")
			delete(p.waiting, id)
		}
	}
}

func deliver(engine reconcile.Runner, msg any) {
	if s, ok := msg.(messages.Snapshot); ok {
		engine.DeliverSnapshot(s)
		return
	}
	if err := engine.DeliverCommand(msg); err != nil {
		log.WithField("entity", engine.EntityID()).Debugf("[peer] command dropped: %v", err)
	}
}

func (p *Peer) runEngines(e *ecs.ECS) {
	p.entities.Each(e.World, func(entry *donburi.Entry) {
		components.Replicated.Get(entry).Engine.Tick(p.now)
	})
	// Spawns requested by engines while iterating.
	deferred := p.deferred
	p.deferred = nil
	for _, fn := range deferred {
		fn()
	}
}
