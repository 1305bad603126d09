package reconcile

import "errors"

var (
	// ErrNoBody is the one fatal condition: an engine without a simulation
	// substrate to step. It is reported once, at construction.
	ErrNoBody = errors.New("no simulation body to attach to")
	// ErrNoInput is returned when an owner engine has no input sampler.
	ErrNoInput = errors.New("owner without input sampler")
	// ErrWrongCommand is returned when a command of another kind is delivered.
	ErrWrongCommand = errors.New("command kind does not match entity")
	// ErrClosed is returned for deliveries to a destroyed entity.
	ErrClosed = errors.New("entity destroyed")
)
