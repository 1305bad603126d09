package messages

import (
	"github.com/automoto/doomerang-netcode/shared/netcomponents"
	"github.com/automoto/doomerang-netcode/shared/netconfig"
)

// JoinRequest is sent by a client after connecting to request joining the game.
type JoinRequest struct {
	Version    string
	PlayerName string
}

// JoinAccepted is sent by the server when a client's join request is accepted.
// EntityID is the character the client now owns; it starts from State as of Tick.
type JoinAccepted struct {
	EntityID   netconfig.EntityID
	ServerName string
	TickRate   int
	Tick       netconfig.Tick
	State      netcomponents.State
}

// JoinRejected is sent by the server when a client's join request is rejected.
type JoinRejected struct {
	Reason string
}
