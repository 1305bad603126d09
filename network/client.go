package network

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
	log "github.com/sirupsen/logrus"
)

// ErrNotConnected is returned when sending without a connection.
var ErrNotConnected = errors.New("not connected")

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateJoinedGame
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoinedGame:
		return "joined"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Client manages a WebSocket connection to the game server.
// All shared fields are protected by mu (router callbacks run on necs goroutines).
type Client struct {
	mu sync.RWMutex

	state      ClientState
	lastError  error
	serverName string
	tickRate   int
	conn       *websocket.Conn

	sink   Sink
	joined chan messages.JoinAccepted
}

// NewClient returns a client that pushes every replication message into sink.
func NewClient(sink Sink) *Client {
	return &Client{
		state:  StateDisconnected,
		sink:   sink,
		joined: make(chan messages.JoinAccepted, 1),
	}
}

// Connect dials the server in a background goroutine and initiates the join handshake.
func (c *Client) Connect(address, version, playerName string) {
	c.mu.Lock()
	c.state = StateConnecting
	c.lastError = nil
	c.mu.Unlock()

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Info("[client] connected to server")
		c.mu.Lock()
		c.state = StateConnected
		c.mu.Unlock()

		err := c.SendMessage(messages.JoinRequest{
			Version:    version,
			PlayerName: playerName,
		})
		if err != nil {
			c.setError(fmt.Errorf("send join request: %w", err))
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinAccepted) {
		log.WithFields(log.Fields{
			"entity": msg.EntityID,
			"server": msg.ServerName,
			"rate":   msg.TickRate,
			"tick":   msg.Tick,
		}).Info("[client] join accepted")
		c.mu.Lock()
		c.serverName = msg.ServerName
		c.tickRate = msg.TickRate
		c.state = StateJoinedGame
		c.mu.Unlock()
		select {
		case c.joined <- msg:
		default:
		}
	})

	router.On(func(_ *router.NetworkClient, msg messages.JoinRejected) {
		log.Warnf("[client] join rejected: %s", msg.Reason)
		c.setError(fmt.Errorf("join rejected: %s", msg.Reason))
	})

	router.On(func(_ *router.NetworkClient, msg messages.Snapshot) {
		c.sink.Push(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.SpawnEvent) {
		c.sink.Push(msg)
	})

	router.On(func(_ *router.NetworkClient, msg messages.DespawnEvent) {
		c.sink.Push(msg)
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Infof("[client] disconnected: %v", err)
		c.mu.Lock()
		if c.state != StateError {
			c.state = StateDisconnected
		}
		c.conn = nil
		c.mu.Unlock()
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Errorf("[client] error: %v", err)
	})

	go func() {
		transport := transports.NewWsClientTransport("ws://" + address)
		err := transport.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			c.setError(fmt.Errorf("connection failed: %w", err))
		}
	}()
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.state = StateDisconnected
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.CloseNow()
	}

	router.ResetRouter()
}

// Joined delivers the server's acceptance once.
func (c *Client) Joined() <-chan messages.JoinAccepted {
	return c.joined
}

func (c *Client) State() ClientState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Client) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError
}

func (c *Client) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

func (c *Client) TickRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickRate
}

// SendMessage serializes msg through the router and writes it. Commands go
// out this way every tick.
func (c *Client) SendMessage(msg any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	payload, err := router.Serialize(msg)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	return conn.Write(context.Background(), websocket.MessageBinary, payload)
}

func (c *Client) setError(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastError = err
	c.mu.Unlock()
}
