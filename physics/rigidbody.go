// Package physics implements rigid body integration and impulse-based
// collision resolution.
package physics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/geom"
)

// ErrInvalidConfig is returned by New for configs that cannot describe a body.
var ErrInvalidConfig = errors.New("physics: invalid rigid body config")

// Config holds the construction parameters of a rigid body.
type Config struct {
	Static          bool    `yaml:"static"`
	Gravity         r2.Vec  `yaml:"gravity"`
	Friction        float64 `yaml:"friction"`
	MaxSpeed        r2.Vec  `yaml:"max_speed"`
	PosCorrection   float64 `yaml:"pos_correction"`
	Velocity        r2.Vec  `yaml:"velocity"`
	AngularVelocity float64 `yaml:"angular_velocity"` // degrees per second
	Mass            float64 `yaml:"mass"`
	Moment          float64 `yaml:"moment"`
	Bounciness      float64 `yaml:"bounciness"`
}

// Validate checks the config for values New would reject.
func (c Config) Validate() error {
	switch {
	case c.Mass < 0 || math.IsNaN(c.Mass):
		return fmt.Errorf("mass %v: %w", c.Mass, ErrInvalidConfig)
	case c.Moment < 0 || math.IsNaN(c.Moment):
		return fmt.Errorf("moment %v: %w", c.Moment, ErrInvalidConfig)
	case c.Friction < 0:
		return fmt.Errorf("friction %v: %w", c.Friction, ErrInvalidConfig)
	case c.Bounciness < 0:
		return fmt.Errorf("bounciness %v: %w", c.Bounciness, ErrInvalidConfig)
	case c.MaxSpeed.X < 0 || c.MaxSpeed.Y < 0:
		return fmt.Errorf("max speed %v: %w", c.MaxSpeed, ErrInvalidConfig)
	}
	return nil
}

// RigidBody is the dynamics component of a game object.
type RigidBody struct {
	Static          bool
	Gravity         r2.Vec
	Friction        float64
	MaxSpeed        r2.Vec
	PosCorrection   float64
	Velocity        r2.Vec
	AngularVelocity float64 // degrees per second
	Bounciness      float64

	invMass    float64
	invMoment  float64
	fixedDelta float64 // seconds
}

// New creates a rigid body. fixedDelta is the simulation step in seconds and
// scales every force applied to the body.
func New(cfg Config, fixedDelta float64) (*RigidBody, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fixedDelta <= 0 {
		return nil, fmt.Errorf("fixed delta %v: %w", fixedDelta, ErrInvalidConfig)
	}
	rb := &RigidBody{
		Static:          cfg.Static,
		Gravity:         cfg.Gravity,
		Friction:        cfg.Friction,
		MaxSpeed:        cfg.MaxSpeed,
		PosCorrection:   cfg.PosCorrection,
		Velocity:        cfg.Velocity,
		AngularVelocity: cfg.AngularVelocity,
		Bounciness:      cfg.Bounciness,
		fixedDelta:      fixedDelta,
	}
	if !cfg.Static {
		rb.SetMass(cfg.Mass)
		rb.SetMoment(cfg.Moment)
	}
	return rb, nil
}

// Mass returns the mass, or 0 for infinite mass.
func (rb *RigidBody) Mass() float64 {
	if rb.invMass == 0 {
		return 0
	}
	return 1 / rb.invMass
}

// SetMass sets the mass. Zero means infinite mass.
func (rb *RigidBody) SetMass(m float64) {
	if m == 0 {
		rb.invMass = 0
		return
	}
	rb.invMass = 1 / m
}

// Moment returns the moment of inertia, or 0 for infinite inertia.
func (rb *RigidBody) Moment() float64 {
	if rb.invMoment == 0 {
		return 0
	}
	return 1 / rb.invMoment
}

// SetMoment sets the moment of inertia. Zero means infinite inertia.
func (rb *RigidBody) SetMoment(m float64) {
	if m == 0 {
		rb.invMoment = 0
		return
	}
	rb.invMoment = 1 / m
}

func (rb *RigidBody) InvMass() float64   { return rb.invMass }
func (rb *RigidBody) InvMoment() float64 { return rb.invMoment }

// FixedDelta returns the step in seconds forces are scaled by.
func (rb *RigidBody) FixedDelta() float64 { return rb.fixedDelta }

// Config returns a config that rebuilds the body in its current state.
func (rb *RigidBody) Config() Config {
	return Config{
		Static:          rb.Static,
		Gravity:         rb.Gravity,
		Friction:        rb.Friction,
		MaxSpeed:        rb.MaxSpeed,
		PosCorrection:   rb.PosCorrection,
		Velocity:        rb.Velocity,
		AngularVelocity: rb.AngularVelocity,
		Mass:            rb.Mass(),
		Moment:          rb.Moment(),
		Bounciness:      rb.Bounciness,
	}
}

// Clone returns an independent copy.
func (rb *RigidBody) Clone() *RigidBody {
	c := *rb
	return &c
}

// AddForce changes velocity by force over one fixed step.
func (rb *RigidBody) AddForce(force r2.Vec) {
	accel := r2.Scale(rb.invMass, force)
	rb.Velocity = r2.Add(rb.Velocity, r2.Scale(rb.fixedDelta, accel))
}

// Integrate advances t by one fixed step. Static bodies are left alone.
func (rb *RigidBody) Integrate(t *components.Transform) {
	if rb.Static {
		return
	}
	rb.AddForce(r2.Scale(rb.Mass(), rb.Gravity))
	rb.Velocity = geom.Clamp(rb.Velocity, r2.Scale(-1, rb.MaxSpeed), rb.MaxSpeed)

	t.Position = r2.Add(t.Position, r2.Scale(rb.fixedDelta, rb.Velocity))
	t.Rotation += rb.AngularVelocity * rb.fixedDelta
}

// KineticEnergy returns the linear kinetic energy, or 0 for infinite mass.
func (rb *RigidBody) KineticEnergy() float64 {
	v := r2.Norm(rb.Velocity)
	return 0.5 * rb.Mass() * v * v
}
