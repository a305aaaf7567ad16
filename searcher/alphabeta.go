package searcher

import (
	"context"
	"fmt"
	"slices"

	"chessai/experiments/metrics"
	"chessai/game"

	"github.com/rs/zerolog/log"
)

// AlphaBeta is a depth-limited negamax search with alpha-beta pruning.
type AlphaBeta struct {
	depth    int
	evaluate game.Evaluator
	metrics  metrics.Collector
}

func NewAlphaBeta(options ...Option) *AlphaBeta {
	s := newSettings(options)
	if s.depth < 0 || s.depth > MaxDepth {
		panic(fmt.Sprintf("depth must be within [0, %d], got %d", MaxDepth, s.depth))
	}
	return &AlphaBeta{
		depth:    s.depth,
		evaluate: s.evaluate,
		metrics:  s.metrics,
	}
}

func (a *AlphaBeta) Name() string {
	return fmt.Sprintf("alphabeta(depth=%d)", a.depth)
}

func (a *AlphaBeta) engine() {}

// Search returns the first move with the strictly best negamax score for the
// side to move. Cancellation is polled inside the tree as well; a root move
// whose subtree was cut short is discarded and the decision is marked
// Interrupted.
func (a *AlphaBeta) Search(ctx context.Context, state game.State) (d Decision, err error) {
	defer recoverSearch(a.Name(), &err)

	work := state.Clone()
	a.metrics.Start(a.Name(), a.depth)
	if game.IsTerminal(work) {
		return Decision{Metrics: a.metrics.Complete()}, nil
	}
	moves := orderMoves(work)
	if len(moves) == 0 {
		return Decision{Metrics: a.metrics.Complete()}, nil
	}

	n := negamax{ctx: ctx, evaluate: a.evaluate, metrics: a.metrics}
	sign := work.Turn().Sign()
	childDepth := max(a.depth-1, 0)
	alpha := -Infinity

	var best game.Move
	bestScore := -Infinity
	interrupted := false
	for _, move := range moves {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		work.Push(move)
		score := -n.search(work, childDepth, -Infinity, -alpha, -sign)
		work.Pop()
		if n.stopped {
			interrupted = true
			break
		}

		if best == nil || score > bestScore {
			best, bestScore = move, score
		}
		alpha = max(alpha, bestScore)
	}

	metric := a.metrics.Complete()
	if best == nil {
		return Decision{Metrics: metric, Interrupted: interrupted}, ctx.Err()
	}

	log.Debug().Msgf("%s chose %s with score %d", a.Name(), best, bestScore)
	return Decision{
		Move:        best,
		Score:       float64(bestScore),
		Metrics:     metric,
		Interrupted: interrupted,
	}, nil
}

// Negamax scores state for the player whose sign is given (+1 for the first
// player, -1 for the second) by searching depth plies with an (alpha, beta)
// window. evaluate scores from the first player's perspective.
func Negamax(state game.State, depth, alpha, beta, sign int, evaluate game.Evaluator) int {
	n := negamax{ctx: context.Background(), evaluate: evaluate, metrics: metrics.NewDummyCollector()}
	return n.search(state, depth, alpha, beta, sign)
}

// pollInterval is the number of nodes searched between context checks.
const pollInterval = 1024

type negamax struct {
	ctx      context.Context
	evaluate game.Evaluator
	metrics  metrics.Collector

	nodes   int
	stopped bool
}

// search returns 0 once the context is done. Callers must discard scores
// obtained after stopped is set.
func (n *negamax) search(state game.State, depth, alpha, beta, sign int) int {
	if n.stopped {
		return 0
	}
	n.nodes++
	if n.nodes%pollInterval == 0 && n.ctx.Err() != nil {
		n.stopped = true
		return 0
	}
	n.metrics.AddNode()
	if depth == 0 || game.IsTerminal(state) {
		return sign * leafScore(n.evaluate(state), depth)
	}

	moves := orderMoves(state)
	if len(moves) == 0 {
		return sign * leafScore(n.evaluate(state), depth)
	}

	best := -Infinity
	for _, move := range moves {
		state.Push(move)
		score := -n.search(state, depth-1, -beta, -alpha, -sign)
		state.Pop()
		if n.stopped {
			return 0
		}

		best = max(best, score)
		alpha = max(alpha, best)
		if alpha >= beta {
			n.metrics.AddPrune()
			break
		}
	}
	return best
}

// leafScore pushes mate scores further from zero the more depth remains,
// so quicker mates are preferred and slower losses resisted.
func leafScore(score, depth int) int {
	switch {
	case score >= game.MateScore:
		return score + depth
	case score <= -game.MateScore:
		return score - depth
	}
	return score
}

// orderMoves puts the tactical moves first, both groups in the state's order.
func orderMoves(state game.State) []game.Move {
	moves := state.LegalMoves()
	tactical, ok := state.(game.Tactical)
	if !ok || len(moves) < 2 {
		return moves
	}

	forcing := tactical.TacticalMoves()
	if len(forcing) == 0 {
		return moves
	}
	ordered := make([]game.Move, 0, len(moves))
	ordered = append(ordered, forcing...)
	for _, move := range moves {
		if !slices.Contains(forcing, move) {
			ordered = append(ordered, move)
		}
	}
	return ordered
}
