package chess

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid FEN")

type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Kinds lists the piece kinds in plane order.
var Kinds = [...]Kind{Pawn, Knight, Bishop, Rook, Queen, King}

var kindSymbols = map[rune]Kind{
	'p': Pawn,
	'n': Knight,
	'b': Bishop,
	'r': Rook,
	'q': Queen,
	'k': King,
}

type Piece struct {
	Kind  Kind
	White bool
}

func (p Piece) IsEmpty() bool {
	return p.Kind == NoKind
}

// Square indexes the board from a1 = 0 to h8 = 63.
type Square int

func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

func (s Square) String() string {
	return fmt.Sprintf("%c%d", 'a'+s.File(), s.Rank()+1)
}

// ParseSquare reads algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("invalid square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

// Board is a mailbox view of the piece placement.
type Board [64]Piece

// ParsePlacement reads the first field of a FEN record.
func ParsePlacement(field string) (Board, error) {
	var b Board
	ranks := strings.Split(field, "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, c := range row {
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
			default:
				kind, ok := kindSymbols[toLower(c)]
				if !ok {
					return b, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, c)
				}
				if file > 7 {
					return b, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, rank+1)
				}
				b[NewSquare(file, rank)] = Piece{Kind: kind, White: c >= 'A' && c <= 'Z'}
				file++
			}
		}
		if file != 8 {
			return b, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, rank+1, file)
		}
	}
	return b, nil
}

func toLower(c rune) rune {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// Count returns how many pieces of the given kind and colour are on the board.
func (b *Board) Count(kind Kind, white bool) int {
	n := 0
	for _, p := range b {
		if p.Kind == kind && p.White == white {
			n++
		}
	}
	return n
}

// validateFEN checks the fields the oracle relies on before handing the
// record to the move generator.
func validateFEN(fen string) ([]string, error) {
	fields := strings.Fields(fen)
	if len(fields) != 6 {
		return nil, fmt.Errorf("%w: expected 6 fields, got %d", ErrInvalidFEN, len(fields))
	}
	board, err := ParsePlacement(fields[0])
	if err != nil {
		return nil, err
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, fields[1])
	}
	if board.Count(King, true) != 1 || board.Count(King, false) != 1 {
		return nil, fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	return fields, nil
}
