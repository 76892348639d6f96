package game

import (
	"errors"
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/physics"
)

var (
	// ErrDuplicateComponent is returned when attaching a second rigid body to
	// an object, or a shape that already has an owner.
	ErrDuplicateComponent = errors.New("game: duplicate component")
	// ErrNoObject is returned for handles of removed or unknown objects.
	ErrNoObject = errors.New("game: no such object")
)

// ObjectSpec describes a game object to spawn.
type ObjectSpec struct {
	Name      string
	Transform components.Transform
	Body      *physics.Config // nil = no rigid body
	Hitboxes  []*collision.Shape
}

// SpawnObject creates a game object with its transform, optional rigid body
// and hitboxes. Nothing is created if any part is invalid.
func (g *Game) SpawnObject(spec ObjectSpec) (ecs.Entity, error) {
	if spec.Body != nil {
		if err := spec.Body.Validate(); err != nil {
			return ecs.Entity{}, fmt.Errorf("spawning %q: %w", spec.Name, err)
		}
	}
	for i, s := range spec.Hitboxes {
		if err := checkShape(s); err != nil {
			return ecs.Entity{}, fmt.Errorf("spawning %q hitbox %d: %w", spec.Name, i, err)
		}
	}

	t := spec.Transform
	name := components.Name{Value: spec.Name}
	e := g.objectMapper.NewEntity(&t, &name)

	if spec.Body != nil {
		if err := g.AttachBody(e, *spec.Body); err != nil {
			g.world.RemoveEntity(e)
			return ecs.Entity{}, err
		}
	}
	for _, s := range spec.Hitboxes {
		if err := g.AttachHitbox(e, s); err != nil {
			g.RemoveObject(e)
			return ecs.Entity{}, err
		}
	}
	return e, nil
}

func checkShape(s *collision.Shape) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Host() != nil {
		return fmt.Errorf("shape already attached: %w", ErrDuplicateComponent)
	}
	return nil
}

// AttachBody gives an existing object a rigid body.
func (g *Game) AttachBody(e ecs.Entity, cfg physics.Config) error {
	if err := g.requireTransform(e); err != nil {
		return err
	}
	if g.bodyMap.Has(e) {
		return fmt.Errorf("rigid body on %v: %w", e, ErrDuplicateComponent)
	}
	rb, err := physics.New(cfg, g.fixedDelta)
	if err != nil {
		return err
	}
	g.bodyMap.Add(e, rb)
	return nil
}

// AttachHitbox adds a shape to an existing object.
func (g *Game) AttachHitbox(e ecs.Entity, s *collision.Shape) error {
	if err := g.requireTransform(e); err != nil {
		return err
	}
	if err := checkShape(s); err != nil {
		return err
	}
	s.Attach(g, e)
	if g.hitboxMap.Has(e) {
		hb := g.hitboxMap.Get(e)
		hb.Shapes = append(hb.Shapes, s)
		return nil
	}
	g.hitboxMap.Add(e, &collision.Hitboxes{Shapes: []*collision.Shape{s}})
	return nil
}

func (g *Game) requireTransform(e ecs.Entity) error {
	if !g.world.Alive(e) {
		return fmt.Errorf("%v: %w", e, ErrNoObject)
	}
	if !g.transformMap.Has(e) {
		return fmt.Errorf("%v has no transform: %w", e, collision.ErrMissingCapability)
	}
	return nil
}

// RemoveObject destroys an object. Its shapes are detached and its body
// dropped; pending continuous forces on it stop on their next frame.
func (g *Game) RemoveObject(e ecs.Entity) error {
	if !g.world.Alive(e) {
		return fmt.Errorf("%v: %w", e, ErrNoObject)
	}
	if g.hitboxMap.Has(e) {
		for _, s := range g.hitboxMap.Get(e).Shapes {
			s.Attach(nil, ecs.Entity{})
		}
	}
	g.world.RemoveEntity(e)
	return nil
}

// ClearObjects removes every object.
func (g *Game) ClearObjects() {
	var all []ecs.Entity
	query := g.objectFilter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		g.RemoveObject(e)
	}
}

// Body returns the rigid body of e, or nil. The pointer is valid until the
// next object is spawned or removed.
func (g *Game) Body(e ecs.Entity) *physics.RigidBody {
	if !g.world.Alive(e) || !g.bodyMap.Has(e) {
		return nil
	}
	return g.bodyMap.Get(e)
}

// Hitboxes returns the shapes attached to e.
func (g *Game) Hitboxes(e ecs.Entity) []*collision.Shape {
	if !g.world.Alive(e) || !g.hitboxMap.Has(e) {
		return nil
	}
	return g.hitboxMap.Get(e).Shapes
}

// Name returns the label of e.
func (g *Game) Name(e ecs.Entity) string {
	if !g.world.Alive(e) || !g.nameMap.Has(e) {
		return ""
	}
	return g.nameMap.Get(e).Value
}

// SetTransform moves e.
func (g *Game) SetTransform(e ecs.Entity, t components.Transform) error {
	if err := g.requireTransform(e); err != nil {
		return err
	}
	*g.transformMap.Get(e) = t
	return nil
}

// AddForce applies force to the body of e over one fixed step.
func (g *Game) AddForce(e ecs.Entity, force r2.Vec) error {
	rb := g.Body(e)
	if rb == nil {
		return fmt.Errorf("%v has no rigid body: %w", e, collision.ErrMissingCapability)
	}
	rb.AddForce(force)
	return nil
}

// AddContinuousForce applies force to the body of e now and once per step
// until duration seconds have passed.
func (g *Game) AddContinuousForce(e ecs.Entity, force r2.Vec, duration float64) error {
	if g.Body(e) == nil {
		return fmt.Errorf("%v has no rigid body: %w", e, collision.ErrMissingCapability)
	}
	physics.AddContinuousForce(g.sched, g, e, force, duration)
	return nil
}
