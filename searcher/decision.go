package searcher

import (
	"chessai/experiments/metrics"
	"chessai/game"

	"github.com/samber/lo"
)

// Decision is the outcome of one search.
type Decision struct {
	// Move is nil when the side to move had no legal move or no simulation ran.
	Move game.Move
	// Score is the negamax score of Move for alpha-beta, and the mean value
	// of Move for the mover for MCTS.
	Score float64
	// Visits holds the root visit counts of MCTS searches.
	Visits  map[game.Move]int
	Metrics metrics.SearchMetric
	// Interrupted is set when the context ended the search. Move is then
	// the best among the root moves searched to completion.
	Interrupted bool
}

func (d Decision) HasMove() bool {
	return d.Move != nil
}

// Policy normalises the root visit counts into a distribution.
func (d Decision) Policy() map[game.Move]float64 {
	total := lo.Sum(lo.Values(d.Visits))
	policy := make(map[game.Move]float64, len(d.Visits))
	if total == 0 {
		return policy
	}
	for move, visits := range d.Visits {
		policy[move] = float64(visits) / float64(total)
	}
	return policy
}
