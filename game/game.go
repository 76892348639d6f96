// Package game owns the object registry and runs the fixed-timestep
// simulation loop.
package game

import (
	"log/slog"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/physics"
	"github.com/pthm-cable/impulse/schedule"
	"github.com/pthm-cable/impulse/systems"
	"github.com/pthm-cable/impulse/telemetry"
)

// Options configures a new game.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	StepsPerUpdate int
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg        *config.Config
	world      *ecs.World
	fixedDelta float64

	// Object mappers
	objectMapper *ecs.Map2[components.Transform, components.Name]
	transformMap *ecs.Map[components.Transform]
	nameMap      *ecs.Map[components.Name]
	bodyMap      *ecs.Map[physics.RigidBody]
	hitboxMap    *ecs.Map[collision.Hitboxes]
	objectFilter *ecs.Filter1[components.Transform]

	// Systems
	registry    *systems.SystemRegistry
	integration *systems.IntegrationSystem
	collisions  *systems.CollisionSystem

	// Clock
	sched       *schedule.Scheduler
	accumulator *schedule.Accumulator

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	// State
	tick          int32
	stepsPerFrame int
}

// NewGame creates a game from the global config with default options.
func NewGame() *Game {
	return NewGameWithOptions(Options{})
}

// NewGameWithOptions creates a new game instance.
func NewGameWithOptions(opts Options) *Game {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	world := ecs.NewWorld()
	fixedDelta := cfg.Derived.FixedDeltaSec

	g := &Game{
		cfg:        cfg,
		world:      world,
		fixedDelta: fixedDelta,

		objectMapper: ecs.NewMap2[components.Transform, components.Name](world),
		transformMap: ecs.NewMap[components.Transform](world),
		nameMap:      ecs.NewMap[components.Name](world),
		bodyMap:      ecs.NewMap[physics.RigidBody](world),
		hitboxMap:    ecs.NewMap[collision.Hitboxes](world),
		objectFilter: ecs.NewFilter1[components.Transform](world),

		registry:    systems.NewSystemRegistry(),
		integration: systems.NewIntegrationSystem(world),
		collisions:  systems.NewCollisionSystem(world),

		sched: schedule.New(fixedDelta),
		accumulator: schedule.NewAccumulator(
			time.Duration(cfg.Physics.FixedDeltaMS*float64(time.Millisecond)),
			cfg.Physics.MaxStepsPerUpdate,
		),

		statsCallback: opts.StatsCallback,
		logStats:      opts.LogStats,
		stepsPerFrame: opts.StepsPerUpdate,
	}
	if g.stepsPerFrame < 1 {
		g.stepsPerFrame = 1
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, fixedDelta)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager, CSV output disabled", "error", err)
	} else if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config snapshot", "error", err)
		}
		g.outputManager = om
	}

	return g
}

// Unload releases resources held by the game.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}

// Tick returns the number of fixed steps run so far.
func (g *Game) Tick() int32 {
	return g.tick
}

// FixedDelta returns the fixed step in seconds.
func (g *Game) FixedDelta() float64 {
	return g.fixedDelta
}

// Scheduler returns the frame scheduler tasks can be queued on.
func (g *Game) Scheduler() *schedule.Scheduler {
	return g.sched
}

// Systems returns the step phases in execution order.
func (g *Game) Systems() []systems.SystemInfo {
	return g.registry.All()
}

// World returns the underlying ECS world.
func (g *Game) World() *ecs.World {
	return g.world
}
