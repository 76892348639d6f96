package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one stage of a fixed step.
type Phase uint8

const (
	PhaseSchedule Phase = iota
	PhaseIntegrate
	PhaseCollide
	PhaseTelemetry

	numPhases
)

var phaseNames = [numPhases]string{"schedule", "integrate", "collide", "telemetry"}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// stepSample is the timing and narrow-phase workload of one step.
type stepSample struct {
	total     time.Duration
	phases    [numPhases]time.Duration
	tests     int
	manifolds int
}

// PerfCollector times fixed steps over a ring of the most recent steps.
type PerfCollector struct {
	ring  []stepSample
	next  int
	count int

	cur        stepSample
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	// Wall-clock pacing in realtime mode
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window steps. A window below 1 defaults
// to 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]stepSample, window)}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	now := time.Now()
	p.cur = stepSample{}
	p.stepStart = now
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens ph.
func (p *PerfCollector) StartPhase(ph Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase, p.phaseStart, p.inPhase = ph, now, true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// RecordNarrowPhase adds the pair tests and manifolds of the running step.
func (p *PerfCollector) RecordNarrowPhase(tests, manifolds int) {
	p.cur.tests += tests
	p.cur.manifolds += manifolds
}

// EndTick closes the step and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.stepStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// RecordFrame marks one pass of the realtime loop.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarises the steps currently in the ring.
type PerfStats struct {
	Steps int

	AvgStep time.Duration
	MinStep time.Duration
	MaxStep time.Duration
	P95Step time.Duration

	// Mean time per phase and its share of the mean step
	PhaseAvg [numPhases]time.Duration
	PhasePct [numPhases]float64

	StepsPerSecond float64

	// Narrow-phase workload
	TestsPerStep     float64
	ManifoldsPerStep float64
	CollideNSPerTest float64 // collide phase time divided by pair tests

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the ring.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Steps: p.count, FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	var tests, manifolds int
	for i, smp := range p.ring[:p.count] {
		totals[i] = float64(smp.total)
		for ph, d := range smp.phases {
			phaseSum[ph] += d
		}
		tests += smp.tests
		manifolds += smp.manifolds
	}
	sort.Float64s(totals)

	n := float64(p.count)
	s.AvgStep = time.Duration(stat.Mean(totals, nil))
	s.MinStep = time.Duration(totals[0])
	s.MaxStep = time.Duration(totals[len(totals)-1])
	s.P95Step = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	for ph, sum := range phaseSum {
		s.PhaseAvg[ph] = sum / time.Duration(p.count)
		if s.AvgStep > 0 {
			s.PhasePct[ph] = float64(s.PhaseAvg[ph]) / float64(s.AvgStep) * 100
		}
	}
	if s.AvgStep > 0 {
		s.StepsPerSecond = float64(time.Second) / float64(s.AvgStep)
	}
	s.TestsPerStep = float64(tests) / n
	s.ManifoldsPerStep = float64(manifolds) / n
	if tests > 0 {
		s.CollideNSPerTest = float64(phaseSum[PhaseCollide]) / float64(tests)
	}
	return s
}

// LogStats logs the summary under the "perf" message.
func (s PerfStats) LogStats() {
	slog.Info("perf", "window", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("p95_step_us", s.P95Step.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
		slog.Float64("tests_per_step", s.TestsPerStep),
		slog.Float64("collide_ns_per_test", s.CollideNSPerTest),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if s.PhasePct[ph] > 0.1 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", s.PhasePct[ph]))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd        int32   `csv:"window_end"`
	AvgStepUS        int64   `csv:"avg_step_us"`
	MinStepUS        int64   `csv:"min_step_us"`
	P95StepUS        int64   `csv:"p95_step_us"`
	MaxStepUS        int64   `csv:"max_step_us"`
	StepsPerSec      float64 `csv:"steps_per_sec"`
	TestsPerStep     float64 `csv:"tests_per_step"`
	ManifoldsPerStep float64 `csv:"manifolds_per_step"`
	CollideNSPerTest float64 `csv:"collide_ns_per_test"`
	FPS              float64 `csv:"fps"`
	SchedulePct      float64 `csv:"schedule_pct"`
	IntegratePct     float64 `csv:"integrate_pct"`
	CollidePct       float64 `csv:"collide_pct"`
	TelemetryPct     float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the summary for perf.csv.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:        windowEnd,
		AvgStepUS:        s.AvgStep.Microseconds(),
		MinStepUS:        s.MinStep.Microseconds(),
		P95StepUS:        s.P95Step.Microseconds(),
		MaxStepUS:        s.MaxStep.Microseconds(),
		StepsPerSec:      s.StepsPerSecond,
		TestsPerStep:     s.TestsPerStep,
		ManifoldsPerStep: s.ManifoldsPerStep,
		CollideNSPerTest: s.CollideNSPerTest,
		FPS:              s.FPS,
		SchedulePct:      s.PhasePct[PhaseSchedule],
		IntegratePct:     s.PhasePct[PhaseIntegrate],
		CollidePct:       s.PhasePct[PhaseCollide],
		TelemetryPct:     s.PhasePct[PhaseTelemetry],
	}
}
