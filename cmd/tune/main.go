// Package main searches rigidbody defaults with CMA-ES for a scene that
// settles quickly without sinking into its static geometry.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/impulse/config"
	"github.com/pthm-cable/impulse/scene"
)

// EvalRow is one line of the evaluation log.
type EvalRow struct {
	Eval          int     `csv:"eval"`
	Fitness       float64 `csv:"fitness"`
	Kinetic       float64 `csv:"kinetic"`
	Penetration   float64 `csv:"penetration"`
	PosCorrection float64 `csv:"pos_correction"`
	Friction      float64 `csv:"friction"`
	Bounciness    float64 `csv:"bounciness"`
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	scenePath := flag.String("scene", "", "Scene to tune against")
	maxTicks := flag.Int("max-ticks", 1500, "Simulation length per evaluation in ticks")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" || *scenePath == "" {
		fmt.Fprintln(os.Stderr, "--output and --scene are required")
		os.Exit(2)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatal("failed to create output directory", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		fatal("failed to load config", err)
	}
	sc, err := scene.Load(*scenePath)
	if err != nil {
		fatal("failed to load scene", err)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, int32(*maxTicks), sc, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	var (
		rows        []EvalRow
		bestFitness = 1e18
		bestParams  []float64
		startTime   = time.Now()
	)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(clamped)
			kinetic, pen := evaluator.Last()

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}
			rows = append(rows, EvalRow{
				Eval:          len(rows) + 1,
				Fitness:       fitness,
				Kinetic:       kinetic,
				Penetration:   pen,
				PosCorrection: clamped[0],
				Friction:      clamped[1],
				Bounciness:    clamped[2],
			})

			elapsed := time.Since(startTime)
			fmt.Printf("Eval %d/%d: fitness=%.4f kinetic=%.4f penetration=%.4f (best=%.4f) | elapsed: %s\n",
				len(rows), *maxEvals, fitness, kinetic, pen, bestFitness, elapsed.Round(time.Second))
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0,
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES with %d parameters, population=%d, max_evals=%d, ticks per run: %d\n",
		dim, popSize, *maxEvals, *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		fmt.Printf("optimization ended: %v\n", err)
	}
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	f, err := os.Create(logPath)
	if err != nil {
		fatal("failed to create log file", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		fatal("failed to write log file", err)
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", len(rows), time.Since(startTime).Round(time.Second))
	fmt.Println("Best parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, bestParams[i])
	}

	bestCfg := *baseCfg
	params.ApplyToConfig(&bestCfg, bestParams)
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		fatal("failed to write best config", err)
	}
	fmt.Printf("Best config saved to: %s\n", configOutPath)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
