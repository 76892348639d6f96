package collision

import "errors"

var (
	// ErrInvalidShape is returned when a shape cannot be built from its config.
	ErrInvalidShape = errors.New("collision: invalid shape")
	// ErrMissingCapability marks a component used without what it depends on:
	// a shape not built by a constructor, or an object without a transform or body.
	ErrMissingCapability = errors.New("collision: missing capability")
)
