package collision

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/components"
)

// testHost is a minimal Host backed by an ark world.
type testHost struct {
	world    *ecs.World
	names    *ecs.Map[components.Name]
	placed   map[ecs.Entity]components.Transform
	bodies   map[ecs.Entity]bool
	resolved []*Manifold
}

func newTestHost() *testHost {
	world := ecs.NewWorld()
	return &testHost{
		world:  world,
		names:  ecs.NewMap[components.Name](world),
		placed: make(map[ecs.Entity]components.Transform),
		bodies: make(map[ecs.Entity]bool),
	}
}

func (h *testHost) add(name string, pos r2.Vec, body bool) ecs.Entity {
	e := h.names.NewEntity(&components.Name{Value: name})
	h.placed[e] = components.Transform{Position: pos}
	h.bodies[e] = body
	return e
}

func (h *testHost) Transform(owner ecs.Entity) (components.Transform, bool) {
	t, ok := h.placed[owner]
	return t, ok
}

func (h *testHost) HasBody(owner ecs.Entity) bool {
	return h.bodies[owner]
}

func (h *testHost) Resolve(m *Manifold) {
	h.resolved = append(h.resolved, m)
}

func vecNear(a, b r2.Vec, tol float64) bool {
	return scalar.EqualWithinAbs(a.X, b.X, tol) && scalar.EqualWithinAbs(a.Y, b.Y, tol)
}

func mustCircle(radius float64) *Shape {
	s, err := NewCircle(radius, 1)
	if err != nil {
		panic(err)
	}
	return s
}

func mustRect(w, h float64) *Shape {
	s, err := NewRectangle(w, h, 0, 1)
	if err != nil {
		panic(err)
	}
	return s
}

// at places a detached shape at a world position via its offset.
func at(s *Shape, x, y float64) *Shape {
	s.Offset = r2.Vec{X: x, Y: y}
	return s
}
