// Package protocol frames messages for transports that carry raw bytes. The
// websocket transport frames through the necs router instead; both carry the
// same message types.
package protocol

import (
	"errors"
	"fmt"

	"github.com/automoto/doomerang-netcode/shared/messages"
	"github.com/hashicorp/go-msgpack/v2/codec"
)

// ErrUnknownMessage is returned for a message type with no wire id.
var ErrUnknownMessage = errors.New("unknown message type")

// Wire ids. Zero is never sent.
const (
	IDCommand           uint8 = 10
	IDProjectileCommand uint8 = 11
	IDSnapshot          uint8 = 12
	IDSpawnEvent        uint8 = 20
	IDDespawnEvent      uint8 = 21
	IDJoinRequest       uint8 = 30
	IDJoinAccepted      uint8 = 31
	IDJoinRejected      uint8 = 32
)

var handle = &codec.MsgpackHandle{}

type envelope struct {
	ID   uint8
	Body []byte
}

// Encode serializes msg with its wire id.
func Encode(msg any) ([]byte, error) {
	id, err := idOf(msg)
	if err != nil {
		return nil, err
	}
	var body []byte
	if err := codec.NewEncoderBytes(&body, handle).Encode(msg); err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	var out []byte
	if err := codec.NewEncoderBytes(&out, handle).Encode(envelope{ID: id, Body: body}); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return out, nil
}

// Decode reverses Encode, returning the message by value.
func Decode(data []byte) (any, error) {
	var env envelope
	if err := codec.NewDecoderBytes(data, handle).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.ID {
	case IDCommand:
		return decodeAs[messages.Command](env.Body)
	case IDProjectileCommand:
		return decodeAs[messages.ProjectileCommand](env.Body)
	case IDSnapshot:
		return decodeAs[messages.Snapshot](env.Body)
	case IDSpawnEvent:
		return decodeAs[messages.SpawnEvent](env.Body)
	case IDDespawnEvent:
		return decodeAs[messages.DespawnEvent](env.Body)
	case IDJoinRequest:
		return decodeAs[messages.JoinRequest](env.Body)
	case IDJoinAccepted:
		return decodeAs[messages.JoinAccepted](env.Body)
	case IDJoinRejected:
		return decodeAs[messages.JoinRejected](env.Body)
	}
	return nil, fmt.Errorf("wire id %d: %w", env.ID, ErrUnknownMessage)
}

func decodeAs[T any](body []byte) (any, error) {
	var v T
	if err := codec.NewDecoderBytes(body, handle).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

func idOf(msg any) (uint8, error) {
	switch msg.(type) {
	case messages.Command:
		return IDCommand, nil
	case messages.ProjectileCommand:
		return IDProjectileCommand, nil
	case messages.Snapshot:
		return IDSnapshot, nil
	case messages.SpawnEvent:
		return IDSpawnEvent, nil
	case messages.DespawnEvent:
		return IDDespawnEvent, nil
	case messages.JoinRequest:
		return IDJoinRequest, nil
	case messages.JoinAccepted:
		return IDJoinAccepted, nil
	case messages.JoinRejected:
		return IDJoinRejected, nil
	}
	return 0, fmt.Errorf("%T: %w", msg, ErrUnknownMessage)
}
