package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/impulse/collision"
)

// CollisionCounts summarises one collision pass.
type CollisionCounts struct {
	Tests     int
	Manifolds int
	Triggers  int
}

// CollisionSystem runs the narrow phase over every hitbox pair.
type CollisionSystem struct {
	filter ecs.Filter1[collision.Hitboxes]
	shapes []*collision.Shape // reused between passes
}

// NewCollisionSystem creates a new collision system.
func NewCollisionSystem(w *ecs.World) *CollisionSystem {
	return &CollisionSystem{
		filter: *ecs.NewFilter1[collision.Hitboxes](w),
	}
}

// Update collides each hitbox against the hitboxes after it. Shapes of the
// same object never collide with each other. Resolution and callbacks run
// through each shape's own Collide, so callbacks may remove objects; pairs
// whose owner is gone are skipped.
func (s *CollisionSystem) Update(w *ecs.World) CollisionCounts {
	// Collect first: callbacks may change the world.
	s.shapes = s.shapes[:0]
	query := s.filter.Query()
	for query.Next() {
		hb := query.Get()
		s.shapes = append(s.shapes, hb.Shapes...)
	}

	var counts CollisionCounts
	for i, a := range s.shapes {
		for _, b := range s.shapes[i+1:] {
			if a.Owner() == b.Owner() {
				continue
			}
			if !w.Alive(a.Owner()) || !w.Alive(b.Owner()) {
				continue
			}
			counts.Tests++
			m := a.Collide(b, nil)
			if m == nil {
				continue
			}
			counts.Manifolds++
			if a.Trigger || b.Trigger {
				counts.Triggers++
			}
		}
	}
	return counts
}
