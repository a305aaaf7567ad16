package searcher

import (
	"chessai/game"

	"golang.org/x/exp/rand"
)

// RolloutPolicy picks the next move of a playout from the legal moves of state.
type RolloutPolicy func(state game.State, moves []game.Move, rng *rand.Rand) game.Move

// RandomRollout plays uniformly random moves.
func RandomRollout(state game.State, moves []game.Move, rng *rand.Rand) game.Move {
	return moves[rng.Intn(len(moves))]
}

// GreedyRollout plays the move whose successor evaluate scores best for the
// mover. Ties are broken uniformly at random.
func GreedyRollout(evaluate game.Evaluator) RolloutPolicy {
	return func(state game.State, moves []game.Move, rng *rand.Rand) game.Move {
		sign := state.Turn().Sign()

		var best game.Move
		bestScore, ties := 0, 0
		for _, move := range moves {
			state.Push(move)
			score := sign * evaluate(state)
			state.Pop()

			switch {
			case best == nil || score > bestScore:
				best, bestScore, ties = move, score, 1
			case score == bestScore:
				// Reservoir sampling over the tied moves
				ties++
				if rng.Intn(ties) == 0 {
					best = move
				}
			}
		}
		return best
	}
}
