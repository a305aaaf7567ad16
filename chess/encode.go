package chess

import (
	"fmt"

	"chessai/game"
)

const (
	Planes     = 12
	PlaneSize  = 64
	InputSize  = Planes * PlaneSize
	PolicySize = 64 * 64
)

// Encode writes the placement as 12 one-hot planes of 8x8, White's pawn to
// king first, then Black's. Row 0 of each plane is rank 8.
func (b *Board) Encode() []float32 {
	planes := make([]float32, InputSize)
	for i, p := range b {
		if p.IsEmpty() {
			continue
		}
		plane := int(p.Kind) - 1
		if !p.White {
			plane += 6
		}
		sq := Square(i)
		planes[plane*PlaneSize+(7-sq.Rank())*8+sq.File()] = 1
	}
	return planes
}

// MoveIndex maps a move to its policy slot, from*64 + to.
func MoveIndex(m game.Move) (int, error) {
	uci := m.String()
	if len(uci) < 4 {
		return 0, fmt.Errorf("%w: %q", ErrIllegalMove, uci)
	}
	from, err := ParseSquare(uci[0:2])
	if err != nil {
		return 0, err
	}
	to, err := ParseSquare(uci[2:4])
	if err != nil {
		return 0, err
	}
	return int(from)*64 + int(to), nil
}
