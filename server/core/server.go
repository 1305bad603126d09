package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
	"github.com/automoto/doomerang-netcode/shared/sim"
	"github.com/automoto/doomerang-netcode/systems"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Conn is one connected client. *router.NetworkClient satisfies it.
type Conn interface {
	Id() string
	SendMessage(msg any) error
}

// Options configures a Server.
type Options struct {
	Name       string
	Version    string // required client version, empty accepts any
	MaxPlayers int
	Movement   sim.Params
	Level      *ServerLevel
}

type session struct {
	conn   Conn
	entity netconfig.EntityID
}

type outgoing struct {
	msg    any
	except netconfig.EntityID // owner that must not receive msg, 0 for none
}

// Server is the authoritative peer. Every entity is RoleAuthority here.
type Server struct {
	opts      Options
	movement  sim.Params
	peer      *systems.Peer
	loop      *GameLoop
	transport *transports.WsServerTransport

	// Router callbacks run on necs goroutines; they only touch these under mu.
	mu     sync.Mutex
	events []func()
	owned  map[string]netconfig.EntityID

	// Tick goroutine only.
	sessions map[string]*session
	spawns   map[netconfig.EntityID]messages.SpawnEvent
	outbox   []outgoing
	joins    int
}

// NewServer creates a server. It does not listen until Run.
func NewServer(opts Options) *Server {
	if opts.Level == nil {
		opts.Level, _ = LoadServerLevel("")
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = 8
	}
	if opts.Movement == (sim.Params{}) {
		opts.Movement = sim.DefaultParams()
	}

	s := &Server{
		opts:     opts,
		movement: opts.Movement,
		loop:     NewGameLoop(netconfig.TickDuration),
		owned:    make(map[string]netconfig.EntityID),
		sessions: make(map[string]*session),
		spawns:   make(map[netconfig.EntityID]messages.SpawnEvent),
	}
	s.peer = systems.NewPeer(systems.Config{
		Ground: opts.Level.Ground,
		Params: &s.movement,
		Send:   s.queueSnapshot,
	})
	s.peer.SetLifecycle(s)
	s.peer.OnDespawn(s.onDespawn)

	s.loop.OnTick(s.processEvents)
	s.peer.Attach(s.loop)
	s.loop.OnPostTick(s.flush)
	return s
}

// Peer exposes the authoritative world.
func (s *Server) Peer() *systems.Peer { return s.peer }

// Loop exposes the tick source.
func (s *Server) Loop() *GameLoop { return s.loop }

// Run listens on port and ticks until ctx is done or the transport fails.
func (s *Server) Run(ctx context.Context, port uint) error {
	s.setupRouterCallbacks()
	s.transport = transports.NewWsServerTransport(port, "", nil)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loop.Run(ctx)
	})
	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- s.transport.Start() }()
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("transport: %w", err)
			}
			<-ctx.Done()
			return nil
		case <-ctx.Done():
			return nil
		}
	})
	return g.Wait()
}

func (s *Server) setupRouterCallbacks() {
	router.OnConnect(func(client *router.NetworkClient) {
		log.Infof("[server] client connected: %s", client.Id())
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.Disconnect(client, err)
	})

	router.On(func(client *router.NetworkClient, req messages.JoinRequest) {
		s.Join(client, req)
	})

	router.On(func(client *router.NetworkClient, cmd messages.Command) {
		s.ReceiveCommand(client, cmd)
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Errorf("[server] client %s error: %v", client.Id(), err)
	})
}

// Join queues a join request for the next tick.
func (s *Server) Join(conn Conn, req messages.JoinRequest) {
	s.enqueue(func() { s.acceptJoin(conn, req) })
}

// Disconnect queues the removal of conn's character.
func (s *Server) Disconnect(conn Conn, err error) {
	if err != nil {
		log.Infof("[server] client %s disconnected with error: %v", conn.Id(), err)
	} else {
		log.Infof("[server] client %s disconnected", conn.Id())
	}
	s.mu.Lock()
	delete(s.owned, conn.Id())
	s.mu.Unlock()
	s.enqueue(func() { s.dropSession(conn.Id()) })
}

// ReceiveCommand accepts a command only for the character conn owns; the
// entity id in the message is never trusted.
func (s *Server) ReceiveCommand(conn Conn, cmd messages.Command) {
	s.mu.Lock()
	id, ok := s.owned[conn.Id()]
	s.mu.Unlock()
	if !ok {
		return
	}
	cmd.EntityID = id
	s.peer.Inbox().Push(cmd)
}

func (s *Server) enqueue(fn func()) {
	s.mu.Lock()
	s.events = append(s.events, fn)
	s.mu.Unlock()
}

func (s *Server) processEvents() {
	s.mu.Lock()
	events := s.events
	s.events = nil
	s.mu.Unlock()
	for _, fn := range events {
		fn()
	}
}

func (s *Server) acceptJoin(conn Conn, req messages.JoinRequest) {
	reject := func(reason string) {
		log.Warnf("[server] rejecting %s (%s): %s", conn.Id(), req.PlayerName, reason)
		if err := conn.SendMessage(messages.JoinRejected{Reason: reason}); err != nil {
			log.Debugf("[server] send rejection: %v", err)
		}
	}
	if s.opts.Version != "" && req.Version != s.opts.Version {
		reject(fmt.Sprintf("version mismatch: server %s, client %s", s.opts.Version, req.Version))
		return
	}
	if _, exists := s.sessions[conn.Id()]; exists {
		reject("already joined")
		return
	}
	if len(s.sessions) >= s.opts.MaxPlayers {
		reject("server full")
		return
	}

	sp := s.opts.Level.SpawnPoint(s.joins)
	s.joins++
	id := s.peer.AllocateID()
	tick := s.peer.CurrentTick()
	state := spawnState(sp.X, sp.Y, sp.Z)

	_, err := s.peer.Spawn(systems.SpawnSpec{
		ID:    id,
		Kind:  netconfig.KindCharacter,
		Role:  netconfig.RoleAuthority,
		Tick:  tick,
		State: state,
	})
	if err != nil {
		log.WithError(err).Error("[server] spawn character")
		reject("spawn failed")
		return
	}

	s.sessions[conn.Id()] = &session{conn: conn, entity: id}
	s.mu.Lock()
	s.owned[conn.Id()] = id
	s.mu.Unlock()

	err = conn.SendMessage(messages.JoinAccepted{
		EntityID:   id,
		ServerName: s.opts.Name,
		TickRate:   netconfig.TickRate,
		Tick:       tick,
		State:      state,
	})
	if err != nil {
		log.WithError(err).Warnf("[server] send join accepted to %s", conn.Id())
	}

	// Bring the newcomer up to date with everything already alive.
	for _, ev := range s.currentSpawns() {
		if err := conn.SendMessage(ev); err != nil {
			log.Debugf("[server] send spawn %d: %v", ev.EntityID, err)
		}
	}

	s.record(messages.SpawnEvent{
		EntityID: id,
		Kind:     netconfig.KindCharacter,
		OwnerID:  id,
		Tick:     tick,
		State:    state,
	}, id)

	log.WithFields(log.Fields{"client": conn.Id(), "player": req.PlayerName, "entity": id}).Info("[server] player joined")
}

func (s *Server) dropSession(clientID string) {
	sess, ok := s.sessions[clientID]
	if !ok {
		return
	}
	delete(s.sessions, clientID)
	s.peer.Despawn(sess.entity)
}

// currentSpawns returns the spawn events of every live entity, refreshed to
// its latest authoritative state.
func (s *Server) currentSpawns() []messages.SpawnEvent {
	out := make([]messages.SpawnEvent, 0, len(s.spawns))
	for id, ev := range s.spawns {
		if engine, ok := s.peer.Engine(id); ok {
			ev.State = engine.State()
			ev.Tick = engine.LastTick()
		}
		out = append(out, ev)
	}
	return out
}

// Promote announces an entity the simulation created. Characters are not
// announced to their own owner, who spawned it from the join acceptance.
func (s *Server) Promote(ev messages.SpawnEvent) error {
	if _, ok := s.peer.Engine(ev.EntityID); !ok {
		return fmt.Errorf("promote %d: %w", ev.EntityID, ErrUnknownEntity)
	}
	var except netconfig.EntityID
	if ev.Kind == netconfig.KindCharacter {
		except = ev.OwnerID
	}
	s.record(ev, except)
	return nil
}

// DestroyAfter schedules the authoritative expiry of id.
func (s *Server) DestroyAfter(id netconfig.EntityID, seconds float64) {
	s.peer.ExpireAfter(id, seconds)
}

func (s *Server) record(ev messages.SpawnEvent, except netconfig.EntityID) {
	s.spawns[ev.EntityID] = ev
	s.outbox = append(s.outbox, outgoing{msg: ev, except: except})
}

func (s *Server) onDespawn(id netconfig.EntityID) {
	delete(s.spawns, id)
	s.outbox = append(s.outbox, outgoing{msg: messages.DespawnEvent{EntityID: id}})
}

func (s *Server) queueSnapshot(msg any) error {
	s.outbox = append(s.outbox, outgoing{msg: msg})
	return nil
}

// flush sends everything the tick produced to every joined client.
func (s *Server) flush() {
	if len(s.outbox) == 0 {
		return
	}
	out := s.outbox
	s.outbox = nil
	for _, sess := range s.sessions {
		for _, o := range out {
			if o.except != 0 && o.except == sess.entity {
				continue
			}
			if err := sess.conn.SendMessage(o.msg); err != nil {
				log.Debugf("[server] send %T to %s: %v", o.msg, sess.conn.Id(), err)
				break
			}
		}
	}
}

// PlayerCount returns the number of joined players. Tick goroutine only.
func (s *Server) PlayerCount() int {
	return len(s.sessions)
}
