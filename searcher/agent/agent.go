package agent

import (
	"context"

	"chessai/game"
	"chessai/searcher"
)

type Agent interface {
	// FindMove returns the move to play in state along with the search
	// decision behind it (visit counts and metrics, if collected)
	FindMove(ctx context.Context, state game.State) (searcher.Decision, error)
}
