package searcher

import (
	"context"
	"errors"
	"fmt"

	"chessai/game"
)

// Infinity bounds every score a search can produce, mates included.
const Infinity = 1 << 30

// MaxDepth is the deepest alpha-beta search accepted.
const MaxDepth = 64

// Mate scores carry the remaining depth on top, so they must stay below Infinity.
const _ = uint(Infinity - game.MateScore - MaxDepth - 1)

var ErrSearchAborted = errors.New("search aborted")

// Engine chooses a move for the side to move in state. Search never mutates
// state, it works on a clone. The set of engines is closed: AlphaBeta,
// RolloutMCTS and PolicyMCTS.
type Engine interface {
	Search(ctx context.Context, state game.State) (Decision, error)
	Name() string
	engine()
}

// recoverSearch turns a panic raised by the state or an evaluator into an
// error, so a broken search never yields a move.
func recoverSearch(name string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s: %v", ErrSearchAborted, name, r)
	}
}
