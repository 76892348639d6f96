package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/physics"
	"github.com/pthm-cable/impulse/telemetry"
)

// Transform returns the placement of e.
func (g *Game) Transform(e ecs.Entity) (components.Transform, bool) {
	if !g.world.Alive(e) || !g.transformMap.Has(e) {
		return components.Transform{}, false
	}
	return *g.transformMap.Get(e), true
}

// HasBody reports whether e carries a rigid body.
func (g *Game) HasBody(e ecs.Entity) bool {
	return g.world.Alive(e) && g.bodyMap.Has(e)
}

// Resolve applies impulse resolution between the owners of a manifold.
func (g *Game) Resolve(m *collision.Manifold) {
	a, b := g.participant(m.ShapeA), g.participant(m.ShapeB)
	if physics.ResolveCollision(m, a, b) {
		g.collector.Record(telemetry.EventResolved)
		g.collector.RecordPenetration(m.Penetration)
	} else if a != nil || b != nil {
		g.collector.Record(telemetry.EventSeparating)
	}
}

func (g *Game) participant(s *collision.Shape) *physics.Participant {
	if s.Host() != collision.Host(g) {
		return nil
	}
	e := s.Owner()
	if !g.HasBody(e) {
		return nil
	}
	return &physics.Participant{
		Body:      g.bodyMap.Get(e),
		Transform: g.transformMap.Get(e),
	}
}
