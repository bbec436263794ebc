package planner

import (
	"context"
	"errors"
	"testing"

	"prm-planner/pkg/geometry"
	"prm-planner/pkg/history"
)

func TestRunnerRaisesBudget(t *testing.T) {
	cfg := quietConfig()
	cfg.FreeVolume = 1
	cfg.SampleBudget = 5
	p := newPlanner(t, nil, cfg, geometry.Point{X: -0.5, Y: 0}, geometry.Point{X: 0.5, Y: 0})

	runner := NewRunner(p, RunnerConfig{Episodes: 7, EpisodesPerBudget: 3, BudgetIncrement: 5}, nil)
	if err := runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	records := runner.History().Records
	if len(records) != 7 {
		t.Fatalf("expected 7 records, got %d", len(records))
	}
	wantBudgets := []int{5, 5, 5, 10, 10, 10, 15}
	for i, r := range records {
		if r.Episode != i {
			t.Errorf("record %d: episode %d", i, r.Episode)
		}
		if r.SampleBudget != wantBudgets[i] {
			t.Errorf("record %d: expected budget %d, got %d", i, wantBudgets[i], r.SampleBudget)
		}
		if r.Milestones != r.SampleBudget {
			t.Errorf("record %d: %d milestones for budget %d", i, r.Milestones, r.SampleBudget)
		}
		if r.PathExists != (r.Cost != nil) {
			t.Errorf("record %d: cost presence does not match path flag", i)
		}
		if r.Cost != nil && *r.Cost < r.Start.Distance(r.Goal)-1e-9 {
			t.Errorf("record %d: cost %v below straight-line distance", i, *r.Cost)
		}
	}
	if records[0].Start != (geometry.Point{X: -0.5, Y: 0}) {
		t.Errorf("first episode should use the configured start, got %v", records[0].Start)
	}
}

func TestRunnerBaselineIsLowerBound(t *testing.T) {
	cfg := quietConfig()
	cfg.FreeVolume = 0.96
	cfg.SampleBudget = 80
	polygons := []geometry.Polygon{
		geometry.MustPolygon([2]float64{-0.2, -0.2}, [2]float64{0.2, -0.2}, [2]float64{0.2, 0.2}, [2]float64{-0.2, 0.2}),
	}
	p := newPlanner(t, polygons, cfg, geometry.Point{X: -0.6, Y: 0}, geometry.Point{X: 0.6, Y: 0})

	runner := NewRunner(p, RunnerConfig{Episodes: 4, Baseline: true}, &history.Log{Scene: "square"})
	if err := runner.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i, r := range runner.History().Records {
		if r.LowerBound == nil {
			t.Fatalf("record %d: missing lower bound", i)
		}
		if r.Cost != nil && *r.Cost < *r.LowerBound-1e-9 {
			t.Errorf("record %d: cost %v below lower bound %v", i, *r.Cost, *r.LowerBound)
		}
	}
	if runner.History().Scene != "square" {
		t.Errorf("runner replaced the provided log")
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	cfg := quietConfig()
	cfg.FreeVolume = 1
	cfg.SampleBudget = 5
	p := newPlanner(t, nil, cfg, geometry.Point{X: -0.5, Y: 0}, geometry.Point{X: 0.5, Y: 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(p, RunnerConfig{}, nil)
	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if runner.History().Len() != 0 {
		t.Errorf("expected no records after cancellation")
	}
}
