package components

import "gonum.org/v1/gonum/spatial/r2"

// Transform is the world placement of a game object. Physics reads and
// writes it; the object owns it.
type Transform struct {
	Position r2.Vec
	Rotation float64 // degrees
}

// Name labels a game object for logs and telemetry.
type Name struct {
	Value string
}
