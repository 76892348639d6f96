package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Bodies at window end
	Bodies        int `csv:"bodies"`
	DynamicBodies int `csv:"dynamic_bodies"`

	// Collision events during window
	Tests      int     `csv:"tests"`
	Manifolds  int     `csv:"manifolds"`
	Resolved   int     `csv:"resolved"`
	Separating int     `csv:"separating"`
	Triggers   int     `csv:"triggers"`
	HitRate    float64 `csv:"hit_rate"` // manifolds / tests

	// Depth of overlaps that received an impulse
	PenetrationMean float64 `csv:"penetration_mean"`
	PenetrationMax  float64 `csv:"penetration_max"`

	// Kinetic energy distribution of dynamic bodies (sampled at window end)
	KineticMean float64 `csv:"kinetic_mean"`
	KineticP10  float64 `csv:"kinetic_p10"`
	KineticP50  float64 `csv:"kinetic_p50"`
	KineticP90  float64 `csv:"kinetic_p90"`
	KineticSum  float64 `csv:"kinetic_sum"`

	// Total linear momentum of dynamic bodies
	MomentumX float64 `csv:"momentum_x"`
	MomentumY float64 `csv:"momentum_y"`
}

// BodySample is the state of one body at a window boundary.
type BodySample struct {
	Tick            int32   `csv:"tick"`
	Name            string  `csv:"name"`
	X               float64 `csv:"x"`
	Y               float64 `csv:"y"`
	Rotation        float64 `csv:"rotation"`
	VelX            float64 `csv:"vel_x"`
	VelY            float64 `csv:"vel_y"`
	AngularVelocity float64 `csv:"angular_velocity"`
	Mass            float64 `csv:"mass"`
	KineticEnergy   float64 `csv:"kinetic_energy"`
	Static          bool    `csv:"static"`
}

// Percentile returns the p-th quantile of a sorted slice using gonum's
// LinInterp estimator. p is clamped to [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(math.Max(0, math.Min(1, p)), stat.LinInterp, sorted, nil)
}

// ComputeEnergyStats calculates mean and percentiles from energy values.
func ComputeEnergyStats(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bodies", s.Bodies),
		slog.Int("dynamic_bodies", s.DynamicBodies),
		slog.Int("tests", s.Tests),
		slog.Int("manifolds", s.Manifolds),
		slog.Int("resolved", s.Resolved),
		slog.Int("separating", s.Separating),
		slog.Int("triggers", s.Triggers),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("penetration_mean", s.PenetrationMean),
		slog.Float64("penetration_max", s.PenetrationMax),
		slog.Float64("kinetic_mean", s.KineticMean),
		slog.Float64("kinetic_p10", s.KineticP10),
		slog.Float64("kinetic_p50", s.KineticP50),
		slog.Float64("kinetic_p90", s.KineticP90),
		slog.Float64("kinetic_sum", s.KineticSum),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
