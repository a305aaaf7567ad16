package searcher

import (
	"context"
	"fmt"
	"time"

	"chessai/experiments/metrics"
	"chessai/game"
	"chessai/meta"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// RolloutMCTS is Monte Carlo tree search with UCT selection and playouts
// at the leaves.
type RolloutMCTS struct {
	budget      func(start time.Time) budget
	exploration float64
	cutoff      int
	evaluate    game.Evaluator
	rollout     RolloutPolicy
	rng         *rand.Rand
	metrics     metrics.Collector
}

func NewRolloutMCTS(options ...Option) *RolloutMCTS {
	s := newSettings(options)
	if s.rollout == nil {
		s.rollout = GreedyRollout(s.evaluate)
	}
	return &RolloutMCTS{
		budget:      s.budget,
		exploration: s.exploration,
		cutoff:      s.cutoff,
		evaluate:    s.evaluate,
		rollout:     s.rollout,
		rng:         rand.New(rand.NewSource(s.seed)),
		metrics:     s.metrics,
	}
}

func (m *RolloutMCTS) Name() string {
	return fmt.Sprintf("rollout(c=%.2f,cutoff=%d)", m.exploration, m.cutoff)
}

func (m *RolloutMCTS) engine() {}

// Search runs simulations until the budget is spent and returns the most
// visited root move with the root visit counts.
func (m *RolloutMCTS) Search(ctx context.Context, state game.State) (d Decision, err error) {
	defer recoverSearch(m.Name(), &err)

	start := time.Now()
	root := state.Clone()
	tree := NewTree(root)
	m.metrics.Start(m.Name(), m.cutoff)
	if tree.IsTerminal(tree.Root()) || len(tree.Untried(tree.Root())) == 0 {
		return Decision{Metrics: m.metrics.Complete()}, nil
	}

	// Run simulations to collect statistics
	b := m.budget(start)
	done := 0
	for ; !b.exhausted(ctx, done); done++ {
		m.simulate(tree, root)
		m.metrics.AddSimulation()
	}
	m.metrics.SetTreeSize(tree.Len())

	d = decide(tree)
	d.Metrics = m.metrics.Complete()
	d.Interrupted = ctx.Err() != nil
	log.Debug().Msgf("%s ran %d simulations in %s", m.Name(), done, time.Since(start))
	if !d.HasMove() && ctx.Err() != nil {
		return d, ctx.Err()
	}
	return d, nil
}

// simulate runs one selection, expansion, rollout and backpropagation pass.
// state is the root position and is restored before returning.
func (m *RolloutMCTS) simulate(tree *Tree, state game.State) {
	id := tree.Root()
	depth := 0

	for !tree.IsTerminal(id) && tree.IsFullyExpanded(id) && len(tree.Children(id)) > 0 {
		id = tree.SelectUCT(id, m.exploration)
		state.Push(tree.Move(id))
		depth++
	}

	if !tree.IsTerminal(id) && len(tree.Untried(id)) > 0 {
		id = tree.ExpandOne(id, state)
		depth++
	}

	value := m.playout(state)
	tree.Backpropagate(id, value)

	for ; depth > 0; depth-- {
		state.Pop()
	}
}

// playout plays the rollout policy until the game ends or the cutoff is
// reached, and returns the value from the first player's perspective.
// state is restored before returning.
func (m *RolloutMCTS) playout(state game.State) float64 {
	depth := 0
	for !game.IsTerminal(state) && depth < m.cutoff {
		moves := state.LegalMoves()
		if len(moves) == 0 {
			break
		}
		state.Push(m.rollout(state, moves, m.rng))
		depth++
	}

	var value float64
	if outcome := state.Outcome(); outcome != game.Ongoing {
		m.metrics.AddFullPlayout()
		value = outcome.Value()
	} else {
		// At cutoff state, squash the static score into [-1, 1]
		value = clamp(float64(m.evaluate(state))/meta.EvalScale, -1, 1)
	}

	for ; depth > 0; depth-- {
		state.Pop()
	}
	return value
}

func decide(tree *Tree) Decision {
	best := tree.MostVisited(tree.Root())
	if best == noNode || tree.Visits(best) == 0 {
		return Decision{}
	}
	return Decision{
		Move:   tree.Move(best),
		Score:  tree.Q(best),
		Visits: tree.RootVisits(),
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
