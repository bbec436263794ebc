package planner

import (
	"errors"
	"fmt"
	"log"

	"prm-planner/pkg/roadmap"
	"prm-planner/pkg/volume"
)

// ErrInvalidConfig wraps planner configuration failures.
var ErrInvalidConfig = errors.New("planner: invalid config")

// Mode selects the connection-radius policy.
type Mode string

const (
	// ModePRM connects within Roadmap.Threshold and stops at the first path.
	ModePRM Mode = "prm"
	// ModePRMStar estimates the free volume, then connects within the
	// shrinking PRM* radius until SampleBudget milestones exist.
	ModePRMStar Mode = "prmstar"
)

// Config is the full parameter record of a planner.
type Config struct {
	Mode         Mode           `json:"mode"`
	Roadmap      roadmap.Config `json:"roadmap"`
	SampleBudget int            `json:"sampleBudget"`         // PRM*: milestones per episode
	MaxSteps     int            `json:"maxSteps"`             // Growth steps per episode, 0 = unbounded
	VolumeBudget int            `json:"volumeBudget"`         // Monte-Carlo samples before planning
	VolumeBatch  int            `json:"volumeBatch"`          // Monte-Carlo samples per Step
	SafetyFactor float64        `json:"safetyFactor"`         // Multiplies the PRM* radius
	FreeVolume   float64        `json:"freeVolume,omitempty"` // Known free fraction, skips estimation
	Seed         uint64         `json:"seed"`

	Logger *log.Logger `json:"-"`
}

// DefaultConfig returns a PRM* configuration with a 500 milestone budget.
func DefaultConfig() Config {
	rm := roadmap.DefaultConfig()
	rm.MaxMilestones = 1000

	return Config{
		Mode:         ModePRMStar,
		Roadmap:      rm,
		SampleBudget: 500,
		MaxSteps:     100000,
		VolumeBudget: volume.DefaultBudget,
		VolumeBatch:  10,
		SafetyFactor: 1.1,
		Seed:         1,
	}
}

// Validate checks the config, including the embedded roadmap config.
func (c Config) Validate() error {
	if err := c.Roadmap.Validate(); err != nil {
		return err
	}

	switch {
	case c.Mode != ModePRM && c.Mode != ModePRMStar:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	case c.Mode == ModePRMStar && c.SampleBudget < 3:
		return fmt.Errorf("%w: sampleBudget must be at least 3, got %d", ErrInvalidConfig, c.SampleBudget)
	case c.Mode == ModePRMStar && c.SampleBudget > c.Roadmap.MaxMilestones:
		return fmt.Errorf("%w: sampleBudget %d exceeds maxMilestones %d",
			ErrInvalidConfig, c.SampleBudget, c.Roadmap.MaxMilestones)
	case c.MaxSteps < 0:
		return fmt.Errorf("%w: negative maxSteps %d", ErrInvalidConfig, c.MaxSteps)
	case c.VolumeBudget <= 0 || c.VolumeBatch <= 0:
		return fmt.Errorf("%w: volume budget and batch must be positive", ErrInvalidConfig)
	case c.SafetyFactor <= 0:
		return fmt.Errorf("%w: safetyFactor must be positive, got %v", ErrInvalidConfig, c.SafetyFactor)
	case c.FreeVolume < 0 || c.FreeVolume > 1:
		return fmt.Errorf("%w: freeVolume must be a fraction, got %v", ErrInvalidConfig, c.FreeVolume)
	}
	return nil
}
