package chess

import (
	"chessai/game"
)

// Mate is the score of a checkmate, signed against the mated side.
const Mate = game.MateScore

// Evaluate scores a chess position in centipawns from White's perspective:
// material plus piece-square bonuses. Decided games override the heuristic.
func Evaluate(s game.State) int {
	pos, ok := s.(*Position)
	if !ok {
		panic("unexpected state type")
	}

	switch pos.Outcome() {
	case game.FirstWins:
		return Mate
	case game.SecondWins:
		return -Mate
	case game.Draw:
		return 0
	}

	b := pos.Board()
	return b.Score()
}

// Score is the static material and placement balance, ignoring game status.
func (b *Board) Score() int {
	endgame := b.IsEndgame()
	score := 0
	for i, p := range b {
		if p.IsEmpty() {
			continue
		}
		value := pieceValues[p.Kind]
		if !p.White {
			value = -value
		}
		score += value + squareValue(p, Square(i), endgame)
	}
	return score
}

// IsEndgame reports whether the king should head for the centre: no queens
// remain, or every side with a queen has at most one minor piece besides.
func (b *Board) IsEndgame() bool {
	for _, white := range []bool{true, false} {
		if b.Count(Queen, white) == 0 {
			continue
		}
		minors := b.Count(Knight, white) + b.Count(Bishop, white)
		if b.Count(Rook, white) > 0 || minors > 1 {
			return false
		}
	}
	return true
}
