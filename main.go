package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/game"
	"github.com/pthm-cable/impulse/scene"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	scenePath := flag.String("scene", "", "Scene file to load (empty = config scene.path)")
	watch := flag.Bool("watch", false, "Reload the scene when its file changes")
	realtime := flag.Bool("realtime", false, "Pace steps against the wall clock instead of running flat out")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	path := cfg.Scene.Path
	if *scenePath != "" {
		path = *scenePath
	}
	watching := (*watch || cfg.Scene.Watch) && path != ""

	g := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
	})
	defer g.Unload()

	if path != "" {
		if _, err := g.LoadSceneFile(path); err != nil {
			slog.Error("failed to load scene", "path", path, "error", err)
			os.Exit(1)
		}
	}

	var events sceneWatch
	if watching {
		w, err := scene.NewWatcher(path)
		if err != nil {
			slog.Error("failed to watch scene", "path", path, "error", err)
			os.Exit(1)
		}
		defer w.Close()
		events = sceneWatch{events: w.Events, errors: w.Errors}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	slog.Info("starting simulation",
		"scene", path,
		"fixed_delta_ms", cfg.Physics.FixedDeltaMS,
		"realtime", *realtime,
		"watch", watching,
		"max_ticks", *maxTicks,
		"steps_per_update", *stepsPerUpdate,
	)

	last := time.Now()
	for {
		select {
		case <-interrupt:
			slog.Info("interrupted", "tick", g.Tick())
			return
		default:
		}
		events.poll(g)

		if *realtime {
			now := time.Now()
			if g.Advance(now.Sub(last)) == 0 {
				time.Sleep(time.Millisecond)
			}
			last = now
		} else {
			g.UpdateHeadless()
		}

		if *maxTicks > 0 && int(g.Tick()) >= *maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

type sceneReloader interface {
	ReloadSceneFile(path string) error
	Tick() int32
}

// sceneWatch polls the channels of a scene watcher. A channel found closed
// is dropped so it is not read again.
type sceneWatch struct {
	events <-chan string
	errors <-chan error
}

// poll handles at most one pending watcher message without blocking.
func (w *sceneWatch) poll(g sceneReloader) {
	select {
	case name, ok := <-w.events:
		if !ok {
			slog.Warn("scene watcher stopped")
			w.events = nil
			return
		}
		if err := g.ReloadSceneFile(name); err != nil {
			slog.Error("scene reload failed, keeping current objects", "path", name, "error", err)
		} else {
			slog.Info("scene reloaded", "path", name, "tick", g.Tick())
		}
	case err, ok := <-w.errors:
		if !ok {
			w.errors = nil
			return
		}
		slog.Warn("scene watcher error", "error", err)
	default:
	}
}
