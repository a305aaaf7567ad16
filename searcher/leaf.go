package searcher

import (
	"math"

	"chessai/game"
	"chessai/meta"
)

// Evaluation is a leaf evaluator's verdict on a non-terminal state.
type Evaluation struct {
	// Value estimates the outcome in [-1, 1] from the first player's perspective.
	Value float64
	// Priors weights the moves of the side to move. Illegal moves are
	// ignored and the rest renormalised.
	Priors map[game.Move]float64
}

// LeafEvaluator supplies values and move priors to PolicyMCTS. The caller
// owns it, a search only borrows it.
type LeafEvaluator interface {
	Evaluate(state game.State) (Evaluation, error)
}

// LeafEvaluatorFunc adapts a function to LeafEvaluator.
type LeafEvaluatorFunc func(state game.State) (Evaluation, error)

func (f LeafEvaluatorFunc) Evaluate(state game.State) (Evaluation, error) {
	return f(state)
}

// HeuristicEvaluator derives values and priors from a static evaluator.
// The value is tanh(score/scale). Priors are uniform, or with a positive
// temperature a softmax over the one-ply scores for the mover in pawns.
type HeuristicEvaluator struct {
	evaluate    game.Evaluator
	scale       float64
	temperature float64
}

func NewHeuristicEvaluator(evaluate game.Evaluator, temperature float64) *HeuristicEvaluator {
	return &HeuristicEvaluator{
		evaluate:    evaluate,
		scale:       meta.EvalScale,
		temperature: temperature,
	}
}

// Value squashes the static score of state into (-1, 1).
func (h *HeuristicEvaluator) Value(state game.State) float64 {
	return math.Tanh(float64(h.evaluate(state)) / h.scale)
}

func (h *HeuristicEvaluator) Evaluate(state game.State) (Evaluation, error) {
	moves := state.LegalMoves()
	priors := make(map[game.Move]float64, len(moves))
	if h.temperature <= 0 {
		for _, move := range moves {
			priors[move] = 1 / float64(len(moves))
		}
		return Evaluation{Value: h.Value(state), Priors: priors}, nil
	}

	sign := float64(state.Turn().Sign())
	logits := make([]float64, len(moves))
	for i, move := range moves {
		state.Push(move)
		logits[i] = sign * float64(h.evaluate(state)) / 100 / h.temperature
		state.Pop()
	}
	for i, p := range Softmax(logits) {
		priors[moves[i]] = p
	}
	return Evaluation{Value: h.Value(state), Priors: priors}, nil
}
