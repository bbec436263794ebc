package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
	"prm-planner/pkg/history"
	"prm-planner/pkg/planner"
)

var runOpts struct {
	scene      sceneOptions
	configFile string
	mode       string
	seed       uint64
	clearance  float64
	threshold  float64
	neighbors  int
	samples    int
	freeVolume float64
	safety     float64
	start      []float64
	goal       []float64

	runner planner.RunnerConfig
	out    string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a replanning experiment",
	Long: `Plan repeatedly over one scene. Each episode grows a roadmap until it is
finished, records the result, then restarts with random free endpoints. In
prmstar mode the sample budget grows every --episodes-per-budget episodes.`,
	Args: cobra.NoArgs,
	RunE: runExperiment,
}

func init() {
	defaults := planner.DefaultConfig()
	runnerDefaults := planner.DefaultRunnerConfig()

	runOpts.scene.register(runCmd)
	f := runCmd.Flags()
	f.StringVarP(&runOpts.configFile, "config", "c", "", "planner config JSON file; flags override it")
	f.StringVarP(&runOpts.mode, "mode", "m", string(defaults.Mode), "planner mode: prm or prmstar")
	f.Uint64Var(&runOpts.seed, "seed", defaults.Seed, "random seed")
	f.Float64Var(&runOpts.clearance, "clearance", defaults.Roadmap.Clearance, "minimum distance to obstacles")
	f.Float64Var(&runOpts.threshold, "threshold", defaults.Roadmap.Threshold, "prm: fixed connection radius")
	f.IntVarP(&runOpts.neighbors, "max-neighbors", "k", defaults.Roadmap.MaxNeighbors, "edge attempts per milestone")
	f.IntVarP(&runOpts.samples, "samples", "n", defaults.SampleBudget, "prmstar: initial milestone budget")
	f.Float64Var(&runOpts.freeVolume, "free-volume", 0, "known free fraction, skips estimation (0 = estimate)")
	f.Float64Var(&runOpts.safety, "safety", defaults.SafetyFactor, "prmstar: radius safety factor")
	f.Float64SliceVar(&runOpts.start, "start", nil, "first start point x,y (default from scene)")
	f.Float64SliceVar(&runOpts.goal, "goal", nil, "first goal point x,y (default from scene)")

	f.IntVarP(&runOpts.runner.Episodes, "episodes", "e", runnerDefaults.Episodes, "episodes to run")
	f.IntVar(&runOpts.runner.EpisodesPerBudget, "episodes-per-budget", runnerDefaults.EpisodesPerBudget, "episodes between budget increases")
	f.IntVar(&runOpts.runner.BudgetIncrement, "budget-increment", runnerDefaults.BudgetIncrement, "milestones added to the budget")
	f.BoolVar(&runOpts.runner.Baseline, "baseline", false, "record the visibility-graph lower bound")
	f.StringVarP(&runOpts.out, "out", "o", "", "write the episode history as JSON")

	rootCmd.AddCommand(runCmd)
}

// buildConfig layers the config file and explicitly set flags over the
// defaults.
func buildConfig(cmd *cobra.Command) (planner.Config, error) {
	cfg := planner.DefaultConfig()
	if runOpts.configFile != "" {
		data, err := os.ReadFile(runOpts.configFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.Mode = planner.Mode(runOpts.mode)
	}
	if f.Changed("seed") {
		cfg.Seed = runOpts.seed
	}
	if f.Changed("clearance") {
		cfg.Roadmap.Clearance = runOpts.clearance
	}
	if f.Changed("threshold") {
		cfg.Roadmap.Threshold = runOpts.threshold
	}
	if f.Changed("max-neighbors") {
		cfg.Roadmap.MaxNeighbors = runOpts.neighbors
	}
	if f.Changed("samples") {
		cfg.SampleBudget = runOpts.samples
		if cfg.SampleBudget > cfg.Roadmap.MaxMilestones {
			cfg.Roadmap.MaxMilestones = cfg.SampleBudget
		}
	}
	if f.Changed("free-volume") {
		cfg.FreeVolume = runOpts.freeVolume
	}
	if f.Changed("safety") {
		cfg.SafetyFactor = runOpts.safety
	}
	return cfg, cfg.Validate()
}

func pointFlag(name string, values []float64, fallback geometry.Point) (geometry.Point, error) {
	switch len(values) {
	case 0:
		return fallback, nil
	case 2:
		return geometry.Point{X: values[0], Y: values[1]}, nil
	}
	return geometry.Point{}, fmt.Errorf("--%s needs two values x,y, got %d", name, len(values))
}

func runExperiment(cmd *cobra.Command, args []string) error {
	s, err := runOpts.scene.load()
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	start, err := pointFlag("start", runOpts.start, s.Start)
	if err != nil {
		return err
	}
	goal, err := pointFlag("goal", runOpts.goal, s.Goal)
	if err != nil {
		return err
	}

	log.Println("========================================")
	log.Printf("🚀 %s experiment on scene %q\n", cfg.Mode, s.Name)
	log.Printf("   Obstacles: %d polygons\n", len(s.Obstacles))
	log.Printf("   Episodes: %d, seed %d\n", runOpts.runner.Episodes, cfg.Seed)
	log.Println("========================================")

	obstacles, err := collision.NewObstacles(s.Obstacles)
	if err != nil {
		return err
	}
	p, err := planner.New(obstacles, cfg, start, goal)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner := planner.NewRunner(p, runOpts.runner, &history.Log{Scene: s.Name, Seed: cfg.Seed})
	runErr := runner.Run(ctx)
	if runErr != nil && ctx.Err() == nil {
		return runErr
	}
	if runErr != nil {
		log.Println("⚠️  Interrupted, keeping recorded episodes")
	}

	printSummary(cmd, runner.History())

	if runOpts.out != "" {
		if err := history.Save(runner.History(), runOpts.out); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(cmd *cobra.Command, h *history.Log) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Budget  Episodes  Solved  Mean cost  Std dev  Cost/bound")
	for _, s := range h.Summarize() {
		ratio := "-"
		if s.MeanRatio > 0 {
			ratio = fmt.Sprintf("%.4f", s.MeanRatio)
		}
		fmt.Fprintf(out, "%6d  %8d  %6d  %9.4f  %7.4f  %s\n",
			s.SampleBudget, s.Episodes, s.Solved, s.MeanCost, s.StdDevCost, ratio)
	}
}
