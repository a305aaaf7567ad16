package match

import (
	"context"
	"testing"

	"chessai/chess"
	"chessai/game"
	"chessai/searcher"
	"chessai/searcher/agent"

	"github.com/stretchr/testify/require"
)

/*
cases:
- happy path: agents alternate until the game is decided -> outcome, moves, metrics
- ply limit -> ongoing result
- edge case: agent error or missing move -> error
*/

// scriptedAgent plays fixed UCI moves in order.
type scriptedAgent struct {
	moves []string
	next  int
}

func (a *scriptedAgent) FindMove(_ context.Context, state game.State) (searcher.Decision, error) {
	if a.next >= len(a.moves) {
		return searcher.Decision{}, nil
	}
	move, err := state.(*chess.Position).ParseMove(a.moves[a.next])
	if err != nil {
		return searcher.Decision{}, err
	}
	a.next++
	return searcher.Decision{Move: move}, nil
}

func alphaBetaAgent(depth int) agent.Agent {
	return agent.NewEvaluationAgent(searcher.NewAlphaBeta(
		searcher.WithDepth(depth),
		searcher.WithEvaluationFn(chess.Evaluate),
		searcher.WithMetrics(),
	))
}

func TestMatchRun(t *testing.T) {
	t.Run("fool's mate", func(t *testing.T) {
		white := &scriptedAgent{moves: []string{"f2f3", "g2g4"}}
		black := &scriptedAgent{moves: []string{"e7e5", "d8h4"}}

		result, err := New(chess.StartPosition(), white, black).Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, game.SecondWins, result.Outcome)
		require.Equal(t, []string{"f2f3", "e7e5", "g2g4", "d8h4"}, result.Moves)
		require.Equal(t, -1, result.Game.Winner, "Black should win")
		require.Equal(t, 1, result.Game.StartingPlayer)
		require.Equal(t, "0-1", result.Game.Result)
		require.Equal(t, 4, result.Game.TotalMoves)
		require.Len(t, result.Plies, 4)
		require.Equal(t, -1, result.Plies[3].Player, "Last move was Black's")
	})

	t.Run("engines find the mate", func(t *testing.T) {
		pos, err := chess.NewPosition("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
		require.NoError(t, err)
		before := pos.FEN()

		result, err := New(pos, alphaBetaAgent(3), alphaBetaAgent(3)).Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, game.FirstWins, result.Outcome)
		require.Equal(t, []string{"a1a8"}, result.Moves)
		require.Positive(t, result.Plies[0].Nodes, "Search metrics should be recorded per ply")
		require.Equal(t, before, pos.FEN(), "Match should play on its own copy")
	})

	t.Run("ply limit", func(t *testing.T) {
		m := New(chess.StartPosition(), alphaBetaAgent(0), alphaBetaAgent(0), WithMaxPlies(4))

		result, err := m.Run(context.Background())

		require.NoError(t, err)
		require.Equal(t, game.Ongoing, result.Outcome)
		require.Len(t, result.Moves, 4)
		require.Zero(t, result.Game.Winner)
		require.Equal(t, "ongoing", result.Game.Result)
		require.Len(t, m.State().(*chess.Position).History(), 4)
	})

	t.Run("observer sees the position before each move", func(t *testing.T) {
		var fens []string
		observe := func(ply int, state game.State, d searcher.Decision) {
			require.Equal(t, len(fens)+1, ply)
			fens = append(fens, state.(*chess.Position).FEN())
		}
		white := &scriptedAgent{moves: []string{"e2e4"}}
		black := &scriptedAgent{moves: []string{"e7e5"}}

		_, err := New(chess.StartPosition(), white, black, WithMaxPlies(2), WithObserver(observe)).Run(context.Background())

		require.NoError(t, err)
		require.Len(t, fens, 2)
		require.Equal(t, chess.StartPosition().FEN(), fens[0])
	})

	t.Run("agent without a move", func(t *testing.T) {
		_, err := New(chess.StartPosition(), &scriptedAgent{}, &scriptedAgent{}).Run(context.Background())

		require.ErrorIs(t, err, ErrNoMove)
	})

	t.Run("agent failure", func(t *testing.T) {
		white := &scriptedAgent{moves: []string{"e2e5"}}

		_, err := New(chess.StartPosition(), white, &scriptedAgent{}).Run(context.Background())

		require.ErrorIs(t, err, chess.ErrIllegalMove, "Agent errors should be returned wrapped")
	})

	t.Run("needs two agents", func(t *testing.T) {
		require.Panics(t, func() { New(chess.StartPosition(), nil, &scriptedAgent{}) })
	})
}
