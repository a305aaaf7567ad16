package game

// MateScore is the magnitude of a decided game. Static scores must stay well
// below it, and searchers add the remaining depth on top so faster mates
// score further from zero.
const MateScore = 1_000_000

// Evaluator scores a state from the first player's perspective: positive
// favours the first player. It must be deterministic and must not mutate s.
type Evaluator func(s State) int

// EvaluateOutcome knows nothing about the game beyond its result. Decided
// games score ±MateScore and everything else 0.
func EvaluateOutcome(s State) int {
	switch s.Outcome() {
	case FirstWins:
		return MateScore
	case SecondWins:
		return -MateScore
	}
	return 0
}

// IsMateScore reports whether a score encodes a decided game rather than a
// heuristic estimate.
func IsMateScore(score int) bool {
	return score >= MateScore || score <= -MateScore
}
