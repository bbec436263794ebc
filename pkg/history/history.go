// Package history records finished planning episodes and persists them as
// JSON.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"prm-planner/pkg/geometry"
)

// Record is one finished episode.
type Record struct {
	Episode      int            `json:"episode"`
	Mode         string         `json:"mode"`
	SampleBudget int            `json:"sampleBudget"`
	Milestones   int            `json:"milestones"`
	Edges        int            `json:"edges"`
	Threshold    float64        `json:"threshold"`
	PathExists   bool           `json:"pathExists"`
	Cost         *float64       `json:"cost,omitempty"`       // nil when no path was found
	LowerBound   *float64       `json:"lowerBound,omitempty"` // visibility-graph cost, if computed
	FreeVolume   float64        `json:"freeVolume"`
	Start        geometry.Point `json:"start"`
	Goal         geometry.Point `json:"goal"`
}

// Ratio returns cost / lower bound, or false when either is missing.
func (r Record) Ratio() (float64, bool) {
	if r.Cost == nil || r.LowerBound == nil || *r.LowerBound <= 0 {
		return 0, false
	}
	return *r.Cost / *r.LowerBound, true
}

// Log is the episode history of one experiment.
type Log struct {
	Scene   string   `json:"scene"`
	Seed    uint64   `json:"seed"`
	Records []Record `json:"records"`
}

// Append adds a record to the log.
func (l *Log) Append(r Record) {
	l.Records = append(l.Records, r)
}

// Len returns the number of recorded episodes.
func (l *Log) Len() int {
	return len(l.Records)
}

// Save serializes and saves the log to a JSON file
func Save(l *Log, filename string) error {
	log.Printf("💾 Saving history to %s...\n", filename)

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	err = os.WriteFile(filename, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("   ✅ History saved (%d episodes, %d bytes)\n", len(l.Records), len(data))
	return nil
}

// Load deserializes a log from a JSON file
func Load(filename string) (*Log, error) {
	log.Printf("📂 Loading history from %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var l Log
	err = json.Unmarshal(data, &l)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	log.Printf("   ✅ History loaded: %d episodes\n", len(l.Records))
	return &l, nil
}

// Summary aggregates the episodes run with one sample budget.
type Summary struct {
	SampleBudget int     `json:"sampleBudget"`
	Episodes     int     `json:"episodes"`
	Solved       int     `json:"solved"`
	MeanCost     float64 `json:"meanCost"`
	StdDevCost   float64 `json:"stdDevCost"`
	MeanRatio    float64 `json:"meanRatio,omitempty"` // cost / lower bound over episodes having both
}

// SuccessRate returns the fraction of episodes that found a path.
func (s Summary) SuccessRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Solved) / float64(s.Episodes)
}

// Summarize groups the records by sample budget, in increasing budget order.
// Cost statistics only cover solved episodes.
func (l *Log) Summarize() []Summary {
	groups := make(map[int][]Record)
	for _, r := range l.Records {
		groups[r.SampleBudget] = append(groups[r.SampleBudget], r)
	}

	budgets := make([]int, 0, len(groups))
	for b := range groups {
		budgets = append(budgets, b)
	}
	sort.Ints(budgets)

	summaries := make([]Summary, 0, len(budgets))
	for _, b := range budgets {
		summaries = append(summaries, summarize(b, groups[b]))
	}
	return summaries
}

func summarize(budget int, records []Record) Summary {
	s := Summary{SampleBudget: budget, Episodes: len(records)}

	var costs, ratios []float64
	for _, r := range records {
		if r.Cost == nil {
			continue
		}
		costs = append(costs, *r.Cost)
		if ratio, ok := r.Ratio(); ok {
			ratios = append(ratios, ratio)
		}
	}
	s.Solved = len(costs)

	if len(costs) > 0 {
		s.MeanCost = stat.Mean(costs, nil)
	}
	// Sample standard deviation is undefined for one value.
	if len(costs) > 1 {
		s.StdDevCost = stat.StdDev(costs, nil)
	}
	if len(ratios) > 0 {
		s.MeanRatio = stat.Mean(ratios, nil)
	}
	return s
}
