package chess

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"chessai/game"

	"laptudirm.com/x/mess/pkg/board"
	"laptudirm.com/x/mess/pkg/board/move"
	"laptudirm.com/x/mess/pkg/board/piece"
	"laptudirm.com/x/mess/pkg/formats/fen"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var ErrIllegalMove = errors.New("illegal move")

// Position adapts a mess board to game.State. It remembers its starting
// record and every move played so Clone can rebuild an independent board
// with the full repetition history.
type Position struct {
	start  string
	board  *board.Board
	played []move.Move

	// Per-ply caches, dropped on every Push and Pop.
	moves     []move.Move
	fresh     bool
	placement Board
	placed    bool
}

func NewPosition(fenstr string) (p *Position, err error) {
	if _, err := validateFEN(fenstr); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()
	return &Position{
		start: fenstr,
		board: board.New(board.FEN(fen.FromString(fenstr))),
	}, nil
}

func StartPosition() *Position {
	p, err := NewPosition(StartFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Position) Turn() game.Player {
	if p.board.SideToMove == piece.White {
		return game.First
	}
	return game.Second
}

func (p *Position) legal() []move.Move {
	if !p.fresh {
		p.moves = p.board.GenerateMoves(false)
		p.fresh = true
	}
	return p.moves
}

func (p *Position) LegalMoves() []game.Move {
	legal := p.legal()
	moves := make([]game.Move, len(legal))
	for i, m := range legal {
		moves[i] = m
	}
	return moves
}

func (p *Position) Push(m game.Move) {
	mv, ok := m.(move.Move)
	if !ok {
		panic(fmt.Sprintf("unexpected move type %T", m))
	}
	p.board.MakeMove(mv)
	p.played = append(p.played, mv)
	p.invalidate()
}

func (p *Position) Pop() {
	if len(p.played) == 0 {
		panic("pop without a matching push")
	}
	p.board.UnmakeMove()
	p.played = p.played[:len(p.played)-1]
	p.invalidate()
}

func (p *Position) invalidate() {
	p.fresh = false
	p.placed = false
}

func (p *Position) Outcome() game.Outcome {
	switch {
	case len(p.legal()) == 0:
		if p.board.IsInCheck(p.board.SideToMove) {
			return game.WinFor(p.Turn().Opponent())
		}
		return game.Draw
	case p.board.DrawClock >= 100,
		p.board.IsThreefoldRepetition(),
		p.board.IsInsufficientMaterial():
		return game.Draw
	}
	return game.Ongoing
}

func (p *Position) Clone() game.State {
	c := &Position{
		start:  p.start,
		board:  board.New(board.FEN(fen.FromString(p.start))),
		played: slices.Clone(p.played),
	}
	for _, m := range c.played {
		c.board.MakeMove(m)
	}
	return c
}

func (p *Position) FEN() string {
	f := [6]string(p.board.FEN())
	return strings.Join(f[:], " ")
}

func (p *Position) String() string {
	return p.FEN()
}

// StartFEN returns the record the position was created from.
func (p *Position) StartFEN() string {
	return p.start
}

// History lists the moves played since the starting record in UCI notation.
func (p *Position) History() []string {
	history := make([]string, len(p.played))
	for i, m := range p.played {
		history[i] = m.String()
	}
	return history
}

// Board returns the current piece placement. It is parsed once per ply.
func (p *Position) Board() Board {
	if !p.placed {
		b, err := ParsePlacement(strings.Fields(p.FEN())[0])
		if err != nil {
			panic(fmt.Sprintf("move generator produced an unreadable placement: %v", err))
		}
		p.placement, p.placed = b, true
	}
	return p.placement
}

// ParseMove finds the legal move with the given UCI notation.
func (p *Position) ParseMove(uci string) (game.Move, error) {
	for _, m := range p.legal() {
		if strings.EqualFold(m.String(), uci) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrIllegalMove, uci, p.FEN())
}

// Play pushes the move with the given UCI notation.
func (p *Position) Play(uci string) error {
	m, err := p.ParseMove(uci)
	if err != nil {
		return err
	}
	p.Push(m)
	return nil
}

// TacticalMoves returns the legal captures and promotions, most valuable
// victim first.
func (p *Position) TacticalMoves() []game.Move {
	b := p.Board()
	white := p.Turn() == game.First

	type capture struct {
		move   move.Move
		victim int
	}
	var captures []capture
	for _, m := range p.legal() {
		if victim, ok := tacticalGain(&b, white, m.String()); ok {
			captures = append(captures, capture{move: m, victim: victim})
		}
	}
	slices.SortStableFunc(captures, func(a, b capture) int {
		return b.victim - a.victim
	})

	moves := make([]game.Move, len(captures))
	for i, c := range captures {
		moves[i] = c.move
	}
	return moves
}

func tacticalGain(b *Board, white bool, uci string) (int, bool) {
	if len(uci) < 4 {
		return 0, false
	}
	gain, tactical := 0, false
	if len(uci) == 5 {
		gain, tactical = pieceValues[Queen]-pieceValues[Pawn], true
	}
	from, err := ParseSquare(uci[0:2])
	if err != nil {
		return 0, false
	}
	to, err := ParseSquare(uci[2:4])
	if err != nil {
		return 0, false
	}
	switch target := b[to]; {
	case !target.IsEmpty() && target.White != white:
		gain += pieceValues[target.Kind]
		tactical = true
	case target.IsEmpty() && b[from].Kind == Pawn && from.File() != to.File():
		// En passant, the captured pawn is beside the target square
		gain += pieceValues[Pawn]
		tactical = true
	}
	return gain, tactical
}
