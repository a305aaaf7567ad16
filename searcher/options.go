package searcher

import (
	"context"
	"time"

	"chessai/experiments/metrics"
	"chessai/game"
	"chessai/meta"
)

type Option func(s *settings)

type settings struct {
	depth       int
	simulations int
	counted     bool // simulations set explicitly
	duration    time.Duration
	exploration float64
	cutoff      int
	seed        uint64
	evaluate    game.Evaluator
	rollout     RolloutPolicy
	metrics     metrics.Collector
}

func newSettings(options []Option) *settings {
	s := &settings{ // Default values
		depth:       meta.Depth,
		simulations: meta.Simulations,
		exploration: meta.Exploration,
		cutoff:      meta.Cutoff,
		seed:        uint64(time.Now().UnixNano()),
		evaluate:    game.EvaluateOutcome,
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// WithDepth sets the alpha-beta depth. Depth 0 compares the one-ply
// successors statically.
func WithDepth(depth int) Option {
	return func(s *settings) {
		s.depth = depth
	}
}

// WithSimulations caps the number of MCTS simulations. Zero runs none.
func WithSimulations(simulations int) Option {
	return func(s *settings) {
		if simulations >= 0 {
			s.simulations = simulations
			s.counted = true
		}
	}
}

// WithDuration caps the wall-clock time of an MCTS search. Without an
// explicit simulation count the duration alone bounds the search.
func WithDuration(duration time.Duration) Option {
	return func(s *settings) {
		if duration > 0 {
			s.duration = duration
		}
	}
}

func WithExploration(c float64) Option {
	return func(s *settings) {
		if c > 0 {
			s.exploration = c
		}
	}
}

// WithCutoff limits rollouts to the given number of plies.
func WithCutoff(plies int) Option {
	return func(s *settings) {
		if plies > 0 {
			s.cutoff = plies
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.seed = seed
	}
}

func WithEvaluationFn(evaluate game.Evaluator) Option {
	return func(s *settings) {
		if evaluate != nil {
			s.evaluate = evaluate
		}
	}
}

func WithRolloutPolicy(policy RolloutPolicy) Option {
	return func(s *settings) {
		if policy != nil {
			s.rollout = policy
		}
	}
}

func WithMetrics() Option {
	return func(s *settings) {
		s.metrics = metrics.NewCollector()
	}
}

// budget tracks when an MCTS search has to stop. It is only consulted
// between simulations.
type budget struct {
	simulations int
	counted     bool
	deadline    time.Time
}

func (s *settings) budget(start time.Time) budget {
	b := budget{
		simulations: s.simulations,
		counted:     s.counted || s.duration == 0,
	}
	if s.duration > 0 {
		b.deadline = start.Add(s.duration)
	}
	return b
}

func (b budget) exhausted(ctx context.Context, done int) bool {
	if ctx.Err() != nil {
		return true
	}
	if b.counted && done >= b.simulations {
		return true
	}
	return !b.deadline.IsZero() && !time.Now().Before(b.deadline)
}
