package game

import (
	"log/slog"

	"github.com/pthm-cable/impulse/telemetry"
)

// flushTelemetry checks if the stats window should be flushed.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	bodies := g.SampleBodies()
	stats := g.collector.Flush(g.tick, bodies)
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.outputManager.WriteBodies(bodies); err != nil {
			slog.Error("failed to write bodies", "error", err)
		}
	}
}

// SampleBodies collects the state of every rigid body.
func (g *Game) SampleBodies() []telemetry.BodySample {
	var samples []telemetry.BodySample

	query := g.objectFilter.Query()
	for query.Next() {
		e := query.Entity()
		t := query.Get()
		if !g.bodyMap.Has(e) {
			continue
		}
		rb := g.bodyMap.Get(e)
		samples = append(samples, telemetry.BodySample{
			Tick:            g.tick,
			Name:            g.Name(e),
			X:               t.Position.X,
			Y:               t.Position.Y,
			Rotation:        t.Rotation,
			VelX:            rb.Velocity.X,
			VelY:            rb.Velocity.Y,
			AngularVelocity: rb.AngularVelocity,
			Mass:            rb.Mass(),
			KineticEnergy:   rb.KineticEnergy(),
			Static:          rb.Static,
		})
	}
	return samples
}
