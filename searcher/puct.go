package searcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"chessai/experiments/metrics"
	"chessai/game"

	"github.com/rs/zerolog/log"
)

// PolicyMCTS is Monte Carlo tree search guided by the priors and values of
// a LeafEvaluator (PUCT selection, no playouts).
type PolicyMCTS struct {
	budget      func(start time.Time) budget
	exploration float64
	evaluator   LeafEvaluator
	metrics     metrics.Collector
}

func NewPolicyMCTS(evaluator LeafEvaluator, options ...Option) *PolicyMCTS {
	if evaluator == nil {
		panic("policy search needs a leaf evaluator")
	}
	s := newSettings(options)
	return &PolicyMCTS{
		budget:      s.budget,
		exploration: s.exploration,
		evaluator:   evaluator,
		metrics:     s.metrics,
	}
}

func (m *PolicyMCTS) Name() string {
	return fmt.Sprintf("policy(c=%.2f)", m.exploration)
}

func (m *PolicyMCTS) engine() {}

// Search runs simulations until the budget is spent and returns the most
// visited root move with the root visit distribution. An evaluator failure
// aborts the search without a move.
func (m *PolicyMCTS) Search(ctx context.Context, state game.State) (d Decision, err error) {
	defer recoverSearch(m.Name(), &err)

	start := time.Now()
	root := state.Clone()
	tree := NewTree(root)
	m.metrics.Start(m.Name(), 0)
	if tree.IsTerminal(tree.Root()) || len(tree.Untried(tree.Root())) == 0 {
		return Decision{Metrics: m.metrics.Complete()}, nil
	}

	b := m.budget(start)
	done := 0
	for ; !b.exhausted(ctx, done); done++ {
		if err := m.simulate(tree, root); err != nil {
			return Decision{}, fmt.Errorf("simulation %d: %w", done+1, err)
		}
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

// simulate descends through expanded nodes, expands and evaluates the leaf
// it reaches, and backs the value up. state is restored before returning.
func (m *PolicyMCTS) simulate(tree *Tree, state game.State) error {
	id := tree.Root()
	depth := 0
	defer func() {
		for ; depth > 0; depth-- {
			state.Pop()
		}
	}()

	for tree.IsExpanded(id) && !tree.IsTerminal(id) && len(tree.Children(id)) > 0 {
		id = tree.SelectPUCT(id, m.exploration)
		state.Push(tree.Move(id))
		depth++
		if !tree.IsObserved(id) {
			tree.Observe(id, state)
		}
	}

	var value float64
	if tree.IsTerminal(id) {
		m.metrics.AddFullPlayout()
		value = tree.Outcome(id).Value()
	} else {
		eval, err := m.evaluator.Evaluate(state)
		if err != nil {
			return fmt.Errorf("evaluate leaf: %w", err)
		}
		if math.IsNaN(eval.Value) {
			return errors.New("evaluate leaf: value is NaN")
		}
		tree.ExpandAll(id, state.Turn(), maskPriors(tree.Untried(id), eval.Priors))
		value = clamp(eval.Value, -1, 1)
	}

	tree.Backpropagate(id, value)
	return nil
}
