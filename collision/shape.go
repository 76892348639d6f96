// Package collision implements circle and convex polygon hitboxes and the
// Separating Axis Theorem narrow phase between them.
package collision

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/geom"
)

// Kind identifies the shape variant.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindCircle
	KindPolygon
)

func (k Kind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindPolygon:
		return "polygon"
	default:
		return "invalid"
	}
}

// Host is the body registry a shape's owner handle points into.
// It never owns the shape; the shape never owns the body.
type Host interface {
	// Transform returns the owner's placement.
	Transform(owner ecs.Entity) (components.Transform, bool)
	// HasBody reports whether the owner carries a rigid body.
	HasBody(owner ecs.Entity) bool
	// Resolve applies impulse resolution for a physical collision.
	Resolve(m *Manifold)
}

// Circle is the circle variant of a shape.
type Circle struct {
	Radius float64
	Scale  float64
}

// EffectiveRadius is the radius after scaling.
func (c Circle) EffectiveRadius() float64 {
	return c.Radius * c.Scale
}

// Polygon is the convex polygon variant of a shape. Vertices are in local
// space and must all be wound the same way across every polygon tested
// together; the winding is not checked.
type Polygon struct {
	Vertices []r2.Vec
	Rotation float64 // degrees
	Scale    float64
}

// Shape is a hitbox: exactly one of the circle or polygon variants plus
// the collision flags shared by both.
type Shape struct {
	Trigger  bool   // reports overlaps but never resolves them physically
	Debug    bool   // consumed by debug drawers
	Tag      string // free-form label
	Offset   r2.Vec // local offset from the owner; world position when detached
	Callback func(*Manifold)

	kind    Kind
	circle  Circle
	polygon Polygon

	owner ecs.Entity
	host  Host
}

// Kind returns the variant of the shape.
func (s *Shape) Kind() Kind {
	return s.kind
}

// AsCircle returns a copy of the circle variant. ok is false for polygons.
func (s *Shape) AsCircle() (c Circle, ok bool) {
	if s.kind != KindCircle {
		return Circle{}, false
	}
	return s.circle, true
}

// AsPolygon returns a copy of the polygon variant, vertices included. ok is
// false for circles.
func (s *Shape) AsPolygon() (p Polygon, ok bool) {
	if s.kind != KindPolygon {
		return Polygon{}, false
	}
	p = s.polygon
	p.Vertices = append([]r2.Vec(nil), s.polygon.Vertices...)
	return p, true
}

// Validate reports ErrMissingCapability for shapes not built by a constructor.
func (s *Shape) Validate() error {
	if s == nil || s.kind == kindInvalid {
		return fmt.Errorf("shape has no variant: %w", ErrMissingCapability)
	}
	return nil
}

// Attach points the shape at its owning body. Passing a nil host detaches it.
func (s *Shape) Attach(host Host, owner ecs.Entity) {
	s.host = host
	s.owner = owner
}

// Owner returns the owning body handle.
func (s *Shape) Owner() ecs.Entity {
	return s.owner
}

// Host returns the registry the owner handle belongs to, or nil.
func (s *Shape) Host() Host {
	return s.host
}

func (s *Shape) frame() components.Transform {
	if s.host == nil {
		return components.Transform{}
	}
	t, ok := s.host.Transform(s.owner)
	if !ok {
		return components.Transform{}
	}
	return t
}

func (s *Shape) hasBody() bool {
	return s.host != nil && s.host.HasBody(s.owner)
}

// Pos returns the world position of the shape's center.
func (s *Shape) Pos() r2.Vec {
	t := s.frame()
	return r2.Add(t.Position, geom.Transform(s.Offset, 1, t.Rotation))
}

// Rotation returns the world rotation of the shape in degrees.
func (s *Shape) Rotation() float64 {
	rot := s.frame().Rotation
	if s.kind == KindPolygon {
		rot += s.polygon.Rotation
	}
	return rot
}

// TransformedVertices returns the polygon vertices scaled and rotated but
// still relative to Pos. Circles have none.
func (s *Shape) TransformedVertices() []r2.Vec {
	if s.kind != KindPolygon {
		return nil
	}
	rot := s.Rotation()
	out := make([]r2.Vec, len(s.polygon.Vertices))
	for i, v := range s.polygon.Vertices {
		out[i] = geom.Transform(v, s.polygon.Scale, rot)
	}
	return out
}

// RealVertices returns the polygon vertices in world space.
func (s *Shape) RealVertices() []r2.Vec {
	verts := s.TransformedVertices()
	pos := s.Pos()
	for i := range verts {
		verts[i] = r2.Add(pos, verts[i])
	}
	return verts
}

// BoundingBoxDims returns the width and height of the world-space bounding box.
func (s *Shape) BoundingBoxDims() r2.Vec {
	switch s.kind {
	case KindCircle:
		d := 2 * s.circle.EffectiveRadius()
		return r2.Vec{X: d, Y: d}
	case KindPolygon:
		verts := s.RealVertices()
		x := geom.Project(verts, r2.Vec{X: 1})
		y := geom.Project(verts, r2.Vec{Y: 1})
		return r2.Vec{X: x.Max - x.Min, Y: y.Max - y.Min}
	}
	return r2.Vec{}
}

// Clone returns an independent copy of the shape, detached from any owner.
// The callback is shared.
func (s *Shape) Clone() *Shape {
	c := *s
	c.host = nil
	c.owner = ecs.Entity{}
	if s.kind == KindPolygon {
		c.polygon.Vertices = append([]r2.Vec(nil), s.polygon.Vertices...)
	}
	return &c
}

func (s *Shape) String() string {
	switch s.kind {
	case KindCircle:
		return fmt.Sprintf("circle(r=%g, scale=%g) at %v", s.circle.Radius, s.circle.Scale, s.Pos())
	case KindPolygon:
		return fmt.Sprintf("polygon(%d verts, rot=%g, scale=%g) at %v",
			len(s.polygon.Vertices), s.polygon.Rotation, s.polygon.Scale, s.Pos())
	}
	return "invalid shape"
}

// Hitboxes is the component holding the shapes of one game object.
type Hitboxes struct {
	Shapes []*Shape
}
