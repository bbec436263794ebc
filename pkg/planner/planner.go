// Package planner drives a roadmap with a connection-radius policy: a fixed
// threshold (PRM) or the PRM* radius derived from a Monte-Carlo free-volume
// estimate.
package planner

import (
	"fmt"
	"log"
	"math/rand/v2"

	"prm-planner/pkg/collision"
	"prm-planner/pkg/geometry"
	"prm-planner/pkg/roadmap"
	"prm-planner/pkg/volume"
)

// State is the phase of a PRM* planner.
type State int

const (
	// StateVolume estimates the free volume before any milestone is placed.
	StateVolume State = iota
	// StatePlanning grows the roadmap.
	StatePlanning
)

func (s State) String() string {
	switch s {
	case StateVolume:
		return "VOLUME"
	case StatePlanning:
		return "PLANNING"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText renders the state by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Stream selectors for the two PCG sources derived from Config.Seed.
const (
	roadmapStream = 0x5ca1ab1e
	volumeStream  = 0xfee1900d
)

// Planner runs planning episodes over one obstacle set. The free-volume
// estimate and the PRM* gamma survive Reset, so replanning with new
// endpoints skips the VOLUME phase.
type Planner struct {
	cfg    Config
	logger *log.Logger

	obstacles *collision.Obstacles
	roadmap   *roadmap.Roadmap
	estimator *volume.Estimator
	policy    roadmap.RadiusPolicy
	state     State

	episode int
	steps   int
	stalled int // Consecutive steps that added no milestone
	stopped bool
}

// New creates a planner for the obstacles and the first start/goal pair.
func New(obstacles *collision.Obstacles, cfg Config, start, goal geometry.Point) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Mode == ModePRM {
		cfg.Roadmap.StopOnPath = true
	}
	if obstacles == nil {
		var err error
		if obstacles, err = collision.NewObstacles(nil); err != nil {
			return nil, err
		}
	}

	rm, err := roadmap.New(obstacles, cfg.Roadmap, rand.New(rand.NewPCG(cfg.Seed, roadmapStream)), start, goal)
	if err != nil {
		return nil, err
	}

	p := &Planner{
		cfg:       cfg,
		logger:    cfg.Logger,
		obstacles: obstacles,
		roadmap:   rm,
	}
	if p.logger == nil {
		p.logger = log.Default()
	}

	switch {
	case cfg.Mode == ModePRM:
		p.policy = roadmap.FixedThreshold(cfg.Roadmap.Threshold)
		p.state = StatePlanning
	case cfg.FreeVolume > 0:
		p.estimator = volume.Fixed(cfg.FreeVolume, cfg.Roadmap.Domain)
		p.enterPlanning()
	default:
		rng := rand.New(rand.NewPCG(cfg.Seed, volumeStream))
		p.estimator = volume.NewEstimator(obstacles, cfg.Roadmap.Domain, rng, cfg.VolumeBudget)
		p.state = StateVolume
	}
	return p, nil
}

// enterPlanning freezes the free-volume estimate and derives the PRM* radius
// from the free area it implies.
func (p *Planner) enterPlanning() {
	radius := roadmap.NewOptimalRadius(p.estimator.FreeArea(), p.cfg.SafetyFactor)
	p.policy = radius
	p.state = StatePlanning
	p.logger.Printf("📐 Free volume %.4f (area %.4f), gamma %.4f\n",
		p.estimator.Estimate(), p.estimator.FreeArea(), radius.Gamma)
}

// Step advances the planner by one unit of work: a batch of Monte-Carlo
// samples in VOLUME, one roadmap growth step in PLANNING. It returns false
// once the episode is finished.
func (p *Planner) Step() bool {
	if p.state == StateVolume {
		p.estimator.Sample(p.cfg.VolumeBatch)
		if p.estimator.Converged() {
			p.enterPlanning()
		}
		return true
	}

	if p.Finished() {
		return false
	}

	n := p.roadmap.NumMilestones()
	if !p.roadmap.Update(p.policy.Threshold(n), p.cfg.Roadmap.MaxMilestones) {
		p.stopped = true
	}
	p.steps++

	if p.roadmap.NumMilestones() > n {
		p.stalled = 0
	} else {
		p.stalled++
	}
	if draws := p.stalled * p.cfg.Roadmap.SamplesPerStep; draws >= p.cfg.Roadmap.MaxAttempts {
		p.logger.Printf("⚠️  No free sample in %d draws, stopping episode %d\n", draws, p.episode)
		p.stopped = true
	}

	if p.Finished() {
		s := p.Stats()
		p.logger.Printf("✅ Episode %d finished: n=%d, th=%.4f, cost=%.4f\n",
			s.Episode, s.Milestones, s.Threshold, s.Cost)
		return false
	}
	return true
}

// Run steps until the episode is finished.
func (p *Planner) Run() {
	for p.Step() {
	}
}

// Finished reports whether the current episode is over: the PRM* sample
// budget is reached, the roadmap stopped growing, or MaxSteps ran out. A
// roadmap also counts as stopped after Roadmap.MaxAttempts consecutive
// samples all collide.
func (p *Planner) Finished() bool {
	if p.state != StatePlanning {
		return false
	}
	if p.stopped {
		return true
	}
	if p.cfg.MaxSteps > 0 && p.steps >= p.cfg.MaxSteps {
		return true
	}
	return p.cfg.Mode == ModePRMStar && p.roadmap.NumMilestones() >= p.cfg.SampleBudget
}

// Reset starts a new episode with new endpoints over the same obstacles.
func (p *Planner) Reset(start, goal geometry.Point) {
	p.roadmap.Reset(start, goal)
	p.episode++
	p.steps = 0
	p.stalled = 0
	p.stopped = false
}

// SampleFreeEndpoints draws a collision-free start and goal.
func (p *Planner) SampleFreeEndpoints() (start, goal geometry.Point, err error) {
	points, err := p.roadmap.SampleFree(2)
	if err != nil {
		return geometry.Point{}, geometry.Point{}, err
	}
	return points[0], points[1], nil
}

// SetSampleBudget changes the PRM* milestone budget for following
// episodes, raising MaxMilestones when needed.
func (p *Planner) SetSampleBudget(n int) {
	p.cfg.SampleBudget = n
	if n > p.cfg.Roadmap.MaxMilestones {
		p.cfg.Roadmap.MaxMilestones = n
	}
}

// Roadmap exposes the underlying roadmap for read access.
func (p *Planner) Roadmap() *roadmap.Roadmap {
	return p.roadmap
}

// Obstacles returns the planner's obstacle set.
func (p *Planner) Obstacles() *collision.Obstacles {
	return p.obstacles
}

func (p *Planner) State() State { return p.state }
func (p *Planner) Config() Config { return p.cfg }
func (p *Planner) Episode() int { return p.episode }
func (p *Planner) SampleBudget() int { return p.cfg.SampleBudget }

// FreeVolume returns the current free fraction estimate, 0 in PRM mode.
func (p *Planner) FreeVolume() float64 {
	if p.estimator == nil {
		return 0
	}
	return p.estimator.Estimate()
}

// Threshold returns the connection radius of the current episode: 0 while
// the free volume is estimated, the radius the next Update will use before
// any growth step, and the radius of the latest Update afterwards.
func (p *Planner) Threshold() float64 {
	switch {
	case p.state == StateVolume:
		return 0
	case p.steps == 0:
		return p.policy.Threshold(p.roadmap.NumMilestones())
	}
	return p.roadmap.Threshold()
}

// Gamma returns the PRM* gamma, 0 before planning starts or in PRM mode.
func (p *Planner) Gamma() float64 {
	if radius, ok := p.policy.(roadmap.OptimalRadius); ok {
		return radius.Gamma
	}
	return 0
}

// Stats summarizes the current episode.
type Stats struct {
	Episode      int
	Mode         Mode
	State        State
	Milestones   int
	Edges        int
	Steps        int
	SampleBudget int
	Threshold    float64
	Cost         float64
	PathExists   bool
	FreeVolume   float64
	Gamma        float64
	Start        geometry.Point
	Goal         geometry.Point
	Path         geometry.Path
}

// Stats returns the statistics of the current episode.
func (p *Planner) Stats() Stats {
	return Stats{
		Episode:      p.episode,
		Mode:         p.cfg.Mode,
		State:        p.state,
		Milestones:   p.roadmap.NumMilestones(),
		Edges:        p.roadmap.NumEdges(),
		Steps:        p.steps,
		SampleBudget: p.cfg.SampleBudget,
		Threshold:    p.Threshold(),
		Cost:         p.roadmap.Cost(),
		PathExists:   p.roadmap.PathExists(),
		FreeVolume:   p.FreeVolume(),
		Gamma:        p.Gamma(),
		Start:        p.roadmap.Start(),
		Goal:         p.roadmap.Goal(),
		Path:         p.roadmap.Path(),
	}
}
