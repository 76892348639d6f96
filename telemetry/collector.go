package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	counts [EventTrigger + 1]int

	// Penetration of resolved manifolds
	penSum float64
	penMax float64
	penN   int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Record counts one event.
func (c *Collector) Record(e EventType) {
	if int(e) < len(c.counts) {
		c.counts[e]++
	}
}

// RecordN counts n events of one type.
func (c *Collector) RecordN(e EventType, n int) {
	if int(e) < len(c.counts) {
		c.counts[e] += n
	}
}

// Count returns the number of events of type e in the current window.
func (c *Collector) Count(e EventType) int {
	if int(e) >= len(c.counts) {
		return 0
	}
	return c.counts[e]
}

// RecordPenetration records the depth of one resolved overlap.
func (c *Collector) RecordPenetration(depth float64) {
	c.penSum += depth
	c.penN++
	if depth > c.penMax {
		c.penMax = depth
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the bodies sampled at window end and
// resets counters for the next window.
func (c *Collector) Flush(currentTick int32, bodies []BodySample) WindowStats {
	energies := make([]float64, 0, len(bodies))
	var px, py float64
	var dynamic int
	for _, b := range bodies {
		if b.Static {
			continue
		}
		dynamic++
		energies = append(energies, b.KineticEnergy)
		px += b.Mass * b.VelX
		py += b.Mass * b.VelY
	}
	mean, p10, p50, p90 := ComputeEnergyStats(energies)

	var hitRate float64
	if n := c.counts[EventTest]; n > 0 {
		hitRate = float64(c.counts[EventManifold]) / float64(n)
	}

	var penMean float64
	if c.penN > 0 {
		penMean = c.penSum / float64(c.penN)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Bodies:        len(bodies),
		DynamicBodies: dynamic,

		Tests:      c.counts[EventTest],
		Manifolds:  c.counts[EventManifold],
		Resolved:   c.counts[EventResolved],
		Separating: c.counts[EventSeparating],
		Triggers:   c.counts[EventTrigger],
		HitRate:    hitRate,

		PenetrationMean: penMean,
		PenetrationMax:  c.penMax,

		KineticMean: mean,
		KineticP10:  p10,
		KineticP50:  p50,
		KineticP90:  p90,
		KineticSum:  mean * float64(len(energies)),

		MomentumX: px,
		MomentumY: py,
	}

	c.windowStartTick = currentTick
	c.counts = [EventTrigger + 1]int{}
	c.penSum, c.penMax, c.penN = 0, 0, 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
