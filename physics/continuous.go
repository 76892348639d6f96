package physics

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/schedule"
)

// BodyLookup finds the rigid body of a game object, or nil once it is gone.
type BodyLookup interface {
	Body(owner ecs.Entity) *RigidBody
}

// ContinuousForce applies a force once per frame until its duration runs out.
// It carries its own remaining time and re-queues itself on the scheduler.
type ContinuousForce struct {
	owner     ecs.Entity
	force     r2.Vec
	remaining float64 // seconds
	bodies    BodyLookup
	started   bool
}

// AddContinuousForce applies force to owner now and on every following frame
// until duration seconds of frame time have elapsed. It returns the task so
// callers can inspect it; the scheduler holds the only other reference.
func AddContinuousForce(s *schedule.Scheduler, bodies BodyLookup, owner ecs.Entity, force r2.Vec, duration float64) *ContinuousForce {
	c := &ContinuousForce{owner: owner, force: force, remaining: duration, bodies: bodies}
	c.Run(s)
	return c
}

// Remaining returns the seconds left.
func (c *ContinuousForce) Remaining() float64 {
	return c.remaining
}

// Run applies the force for one frame and schedules the next application.
func (c *ContinuousForce) Run(s *schedule.Scheduler) {
	if c.started {
		c.remaining -= s.FrameDelta()
	}
	c.started = true
	if c.remaining <= 0 {
		return
	}
	body := c.bodies.Body(c.owner)
	if body == nil {
		return
	}
	body.AddForce(c.force)
	s.DelayFrames(1, c)
}
