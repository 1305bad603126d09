package core

import "errors"

// ErrUnknownEntity is returned when promoting an entity the world does not hold.
var ErrUnknownEntity = errors.New("unknown entity")
