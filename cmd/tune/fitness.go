package main

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/game"
	"github.com/pthm-cable/impulse/scene"
	"github.com/pthm-cable/impulse/telemetry"
)

// Fitness weights.
const (
	penetrationWeight = 100.0 // per unit of worst resting penetration
	settleFraction    = 0.5   // trailing share of windows scored
)

// FitnessEvaluator runs a scene headless and scores how well it settles.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int32
	scene       *scene.Scene
	baseConfig  *config.Config
	statsWindow float64

	last runScore
}

type runScore struct {
	kinetic     float64
	penetration float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, sc *scene.Scene, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		scene:       sc,
		baseConfig:  baseCfg,
		statsWindow: 0.5,
	}
}

// Last returns the components of the most recent score.
func (fe *FitnessEvaluator) Last() (kinetic, penetration float64) {
	return fe.last.kinetic, fe.last.penetration
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	windows, err := fe.runSimulation(cfg)
	if err != nil {
		slog.Warn("evaluation failed", "error", err)
		return math.Inf(1)
	}
	fe.last = scoreWindows(windows)
	return fe.last.kinetic + penetrationWeight*fe.last.penetration
}

func (fe *FitnessEvaluator) runSimulation(cfg *config.Config) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	g := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	defer g.Unload()

	if _, err := g.LoadScene(fe.scene); err != nil {
		return nil, err
	}
	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
	}
	return windows, nil
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// scoreWindows averages kinetic energy and takes the worst penetration over
// the trailing windows, once the scene has had time to come to rest.
func scoreWindows(windows []telemetry.WindowStats) runScore {
	if len(windows) == 0 {
		return runScore{}
	}
	start := int(float64(len(windows)) * (1 - settleFraction))
	tail := windows[start:]

	var s runScore
	for _, w := range tail {
		s.kinetic += w.KineticSum
		s.penetration = math.Max(s.penetration, w.PenetrationMax)
	}
	s.kinetic /= float64(len(tail))
	return s
}
