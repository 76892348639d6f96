// Package systems contains ECS systems for the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/physics"
)

// IntegrationSystem advances every non-static rigid body by one fixed step.
type IntegrationSystem struct {
	filter ecs.Filter2[components.Transform, physics.RigidBody]
}

// NewIntegrationSystem creates a new integration system.
func NewIntegrationSystem(w *ecs.World) *IntegrationSystem {
	return &IntegrationSystem{
		filter: *ecs.NewFilter2[components.Transform, physics.RigidBody](w),
	}
}

// Update integrates all bodies and returns how many moved.
func (s *IntegrationSystem) Update(w *ecs.World) int {
	moved := 0
	query := s.filter.Query()
	for query.Next() {
		t, rb := query.Get()
		if rb.Static {
			continue
		}
		rb.Integrate(t)
		moved++
	}
	return moved
}
