package planner

import (
	"context"
	"fmt"
	"math"

	"prm-planner/pkg/history"
	"prm-planner/pkg/visibility"
)

// RunnerConfig controls a replanning experiment.
type RunnerConfig struct {
	Episodes          int  `json:"episodes"`          // Episodes to run, 0 = until ctx is done
	EpisodesPerBudget int  `json:"episodesPerBudget"` // Episodes between sample budget increases
	BudgetIncrement   int  `json:"budgetIncrement"`   // PRM*: milestones added to the budget
	Baseline          bool `json:"baseline"`          // Record the visibility-graph lower bound
}

// DefaultRunnerConfig runs 20 episodes per budget and raises the budget by 5.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Episodes:          100,
		EpisodesPerBudget: 20,
		BudgetIncrement:   5,
	}
}

// Runner repeats planning episodes over one obstacle set with fresh random
// endpoints, keeping the free-volume estimate between episodes.
type Runner struct {
	planner *Planner
	cfg     RunnerConfig
	history *history.Log
}

// NewRunner wraps a planner. Records are appended to h, or to a new log
// when h is nil.
func NewRunner(p *Planner, cfg RunnerConfig, h *history.Log) *Runner {
	if h == nil {
		h = &history.Log{}
	}
	return &Runner{planner: p, cfg: cfg, history: h}
}

// History returns the episode log.
func (r *Runner) History() *history.Log {
	return r.history
}

// Run plays episodes until cfg.Episodes are recorded or ctx is done. The
// context is checked between planner steps.
func (r *Runner) Run(ctx context.Context) error {
	for recorded := 0; r.cfg.Episodes <= 0 || recorded < r.cfg.Episodes; recorded++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if recorded > 0 {
			if err := r.next(); err != nil {
				return err
			}
		}

		for r.planner.Step() {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		record, err := r.record()
		if err != nil {
			return err
		}
		r.history.Append(record)
	}
	return nil
}

func (r *Runner) record() (history.Record, error) {
	s := r.planner.Stats()
	record := history.Record{
		Episode:      s.Episode,
		Mode:         string(s.Mode),
		SampleBudget: s.SampleBudget,
		Milestones:   s.Milestones,
		Edges:        s.Edges,
		Threshold:    s.Threshold,
		PathExists:   s.PathExists,
		FreeVolume:   s.FreeVolume,
		Start:        s.Start,
		Goal:         s.Goal,
	}
	if s.PathExists {
		cost := s.Cost
		record.Cost = &cost
	}

	if r.cfg.Baseline {
		_, bound, err := visibility.ShortestPath(s.Start, s.Goal, r.planner.Obstacles().Polygons())
		if err != nil {
			return record, fmt.Errorf("failed to compute lower bound: %w", err)
		}
		if !math.IsInf(bound, 1) {
			record.LowerBound = &bound
		}
	}
	return record, nil
}

// next resets the planner with free random endpoints and raises the sample
// budget every EpisodesPerBudget episodes.
func (r *Runner) next() error {
	start, goal, err := r.planner.SampleFreeEndpoints()
	if err != nil {
		return fmt.Errorf("failed to sample endpoints: %w", err)
	}
	r.planner.Reset(start, goal)

	episode := r.planner.Episode()
	if r.cfg.EpisodesPerBudget > 0 && r.cfg.BudgetIncrement > 0 && episode%r.cfg.EpisodesPerBudget == 0 {
		budget := r.planner.SampleBudget() + r.cfg.BudgetIncrement
		r.planner.SetSampleBudget(budget)
		r.planner.logger.Printf("📈 Sample budget raised to %d\n", budget)
	}
	return nil
}
