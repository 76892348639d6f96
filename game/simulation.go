package game

import (
	"time"

	"github.com/pthm-cable/impulse/telemetry"
)

// UpdateHeadless runs StepsPerUpdate fixed steps.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerFrame; i++ {
		g.Step()
	}
}

// Advance feeds elapsed wall-clock time into the fixed-step accumulator and
// runs the steps that are due. It returns how many ran.
func (g *Game) Advance(elapsed time.Duration) int {
	g.perfCollector.RecordFrame()
	n := g.accumulator.Add(elapsed)
	for i := 0; i < n; i++ {
		g.Step()
	}
	return n
}

// Step runs a single fixed step: deferred tasks, integration of every
// dynamic body, then collisions, then telemetry.
func (g *Game) Step() {
	g.perfCollector.StartTick()

	// 1. Deferred tasks (continuous forces)
	g.perfCollector.StartPhase(telemetry.PhaseSchedule)
	g.sched.Tick(g.fixedDelta)

	// 2. Integration
	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	g.integration.Update(g.world)

	// 3. Narrow phase and resolution
	g.perfCollector.StartPhase(telemetry.PhaseCollide)
	counts := g.collisions.Update(g.world)
	g.perfCollector.RecordNarrowPhase(counts.Tests, counts.Manifolds)
	g.collector.RecordN(telemetry.EventTest, counts.Tests)
	g.collector.RecordN(telemetry.EventManifold, counts.Manifolds)
	g.collector.RecordN(telemetry.EventTrigger, counts.Triggers)

	g.tick++

	// 4. Telemetry
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}
