package roadmap

import (
	"errors"
	"fmt"

	"prm-planner/pkg/geometry"
)

var (
	// ErrNoFreeSpace is returned when bounded free-point sampling gives up.
	ErrNoFreeSpace = errors.New("roadmap: no free space found")
	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("roadmap: invalid config")
)

// Config holds the roadmap parameters.
type Config struct {
	Domain         geometry.Bounds `json:"domain"`
	Clearance      float64         `json:"clearance"`      // Minimum distance to obstacle edges
	Threshold      float64         `json:"threshold"`      // Connection radius used until Update overrides it
	MaxNeighbors   int             `json:"maxNeighbors"`   // Edge attempts per new milestone
	MaxMilestones  int             `json:"maxMilestones"`  // Growth stops beyond this many milestones
	SamplesPerStep int             `json:"samplesPerStep"` // Candidates drawn by each Update
	MaxAttempts    int             `json:"maxAttempts"`    // Cap for SampleFree
	StopOnPath     bool            `json:"stopOnPath"`     // Plain PRM: stop growing once a path exists
}

// DefaultConfig returns the settings of the interactive planner: the
// [-1,1]² domain, a 0.03 clearance and five neighbours per milestone.
func DefaultConfig() Config {
	return Config{
		Domain:         geometry.Square(1),
		Clearance:      0.03,
		Threshold:      0.5,
		MaxNeighbors:   5,
		MaxMilestones:  200,
		SamplesPerStep: 1,
		MaxAttempts:    10000,
	}
}

// Validate checks the config for values the roadmap cannot work with.
func (c Config) Validate() error {
	switch {
	case c.Domain.Width() <= 0 || c.Domain.Height() <= 0:
		return fmt.Errorf("%w: empty domain %v", ErrInvalidConfig, c.Domain)
	case c.Clearance < 0:
		return fmt.Errorf("%w: negative clearance %v", ErrInvalidConfig, c.Clearance)
	case c.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive, got %v", ErrInvalidConfig, c.Threshold)
	case c.MaxNeighbors <= 0:
		return fmt.Errorf("%w: maxNeighbors must be positive, got %d", ErrInvalidConfig, c.MaxNeighbors)
	case c.MaxMilestones < 2:
		return fmt.Errorf("%w: maxMilestones must be at least 2, got %d", ErrInvalidConfig, c.MaxMilestones)
	case c.SamplesPerStep <= 0:
		return fmt.Errorf("%w: samplesPerStep must be positive, got %d", ErrInvalidConfig, c.SamplesPerStep)
	case c.MaxAttempts <= 0:
		return fmt.Errorf("%w: maxAttempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return nil
}
