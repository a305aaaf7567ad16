package searcher

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"chessai/game"
)

// puct = Q + c*P*sqrt(ΣN)/(1+n), +Inf for unvisited edges
func puct(value, prior float64, visits int, c float64, sqrtTotal float64) float64 {
	if visits == 0 {
		return math.Inf(1)
	}

	n := float64(visits)
	return value/n + c*prior*sqrtTotal/(1+n)
}

// maskPriors keeps the priors of the legal moves and renormalises them to
// sum to 1. Missing, negative and non-finite entries count as zero. With no
// usable mass left the distribution falls back to uniform.
func maskPriors(legal []game.Move, priors map[game.Move]float64) []float64 {
	masked := make([]float64, len(legal))
	for i, move := range legal {
		if p := priors[move]; p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p) {
			masked[i] = p
		}
	}

	sum := floats.Sum(masked)
	if sum <= 0 || math.IsInf(sum, 0) {
		for i := range masked {
			masked[i] = 1 / float64(len(masked))
		}
		return masked
	}
	floats.Scale(1/sum, masked)
	return masked
}

// Softmax turns logits into a distribution in place.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return logits
	}
	top := floats.Max(logits)
	for i, l := range logits {
		logits[i] = math.Exp(l - top)
	}
	floats.Scale(1/floats.Sum(logits), logits)
	return logits
}
