package agent

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"chessai/game"
	"chessai/searcher"

	"github.com/samber/lo"
	"golang.org/x/exp/rand"
)

type trainingAgent struct {
	engine      searcher.Engine
	temperature float64
	mu          sync.Mutex
	rng         *rand.Rand
}

// NewTrainingAgent returns a new agent for self-play during training. It
// samples moves from the visit distribution sharpened or flattened by
// temperature. Temperature 0 plays the most visited move.
func NewTrainingAgent(engine searcher.Engine, temperature float64, seed uint64) Agent {
	return &trainingAgent{
		engine:      engine,
		temperature: temperature,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (a *trainingAgent) FindMove(ctx context.Context, state game.State) (searcher.Decision, error) {
	d, err := a.engine.Search(ctx, state)
	if err != nil || !d.HasMove() || a.temperature <= 0 || len(d.Visits) == 0 {
		return d, err
	}

	policy := adjustTemperature(d.Policy(), a.temperature)
	a.mu.Lock()
	d.Move = sample(policy, a.rng.Float64())
	a.mu.Unlock()
	return d, nil
}

func adjustTemperature(policy map[game.Move]float64, temperature float64) map[game.Move]float64 {
	// Compute temperature-adjusted move probabilities
	exponent := 1.0 / temperature
	adjusted := make(map[game.Move]float64, len(policy))
	for move, visit := range policy {
		adjusted[move] = math.Pow(visit, exponent)
	}
	// Normalize
	sum := lo.Sum(lo.Values(adjusted))
	if sum == 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return policy
	}
	for move := range adjusted {
		adjusted[move] /= sum
	}
	return adjusted
}

// sample walks the cumulative distribution in move order, so the same
// draw always picks the same move.
func sample(policy map[game.Move]float64, draw float64) game.Move {
	moves := lo.Keys(policy)
	slices.SortFunc(moves, func(a, b game.Move) int {
		return strings.Compare(a.String(), b.String())
	})

	cumulative := 0.0
	var lastMove game.Move
	for _, move := range moves {
		if policy[move] == 0 {
			continue
		}
		lastMove = move
		cumulative += policy[move]
		if draw < cumulative {
			return move
		}
	}
	return lastMove // Fallback in case of rounding errors
}
