package searcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"chessai/chess"
	"chessai/game"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

// minimax is the two-sided formulation with an explicit maximising flag.
func minimax(state game.State, depth int, maximizing bool, evaluate game.Evaluator) int {
	moves := state.LegalMoves()
	if depth == 0 || game.IsTerminal(state) || len(moves) == 0 {
		return leafScore(evaluate(state), depth)
	}

	best := Infinity
	if maximizing {
		best = -Infinity
	}
	for _, move := range moves {
		state.Push(move)
		score := minimax(state, depth-1, !maximizing, evaluate)
		state.Pop()
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

// fullWidth is negamax without pruning.
func fullWidth(state game.State, depth, sign int, evaluate game.Evaluator) int {
	moves := orderMoves(state)
	if depth == 0 || game.IsTerminal(state) || len(moves) == 0 {
		return sign * leafScore(evaluate(state), depth)
	}

	best := -Infinity
	for _, move := range moves {
		state.Push(move)
		best = max(best, -fullWidth(state, depth-1, -sign, evaluate))
		state.Pop()
	}
	return best
}

// fullWidthRoot picks the first strictly best root move without pruning.
func fullWidthRoot(state game.State, depth int, evaluate game.Evaluator) (game.Move, int) {
	sign := state.Turn().Sign()
	var best game.Move
	bestScore := -Infinity
	for _, move := range orderMoves(state) {
		state.Push(move)
		score := -fullWidth(state, max(depth-1, 0), -sign, evaluate)
		state.Pop()
		if best == nil || score > bestScore {
			best, bestScore = move, score
		}
	}
	return best, bestScore
}

func TestNegamax(t *testing.T) {
	t.Run("agrees with minimax", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 50; i++ {
			state := newMockState(randomTree(rng, 5))
			for depth := 0; depth <= 5; depth++ {
				for _, sign := range []int{1, -1} {
					state.start = game.Player(sign)
					want := sign * minimax(state, depth, sign == 1, mockEvaluate)
					got := Negamax(state, depth, -Infinity, Infinity, sign, mockEvaluate)
					require.Equal(t, want, got, "tree %d depth %d sign %d", i, depth, sign)
				}
			}
		}
	})

	t.Run("agrees with minimax on chess", func(t *testing.T) {
		pos, err := chess.NewPosition("4k3/8/8/3r4/8/8/3Q4/4K3 w - - 0 1")
		require.NoError(t, err)

		want := minimax(pos, 2, true, chess.Evaluate)
		got := Negamax(pos, 2, -Infinity, Infinity, 1, chess.Evaluate)
		require.Equal(t, want, got, "White to move maximises")
	})

	t.Run("restores the state", func(t *testing.T) {
		state := newMockState(randomTree(rand.New(rand.NewSource(1)), 4))
		Negamax(state, 4, -Infinity, Infinity, 1, mockEvaluate)
		require.Len(t, state.path, 1, "Every push should be popped")
	})
}

func TestAlphaBetaPruningSafety(t *testing.T) {
	t.Run("random trees", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 50; i++ {
			state := newMockState(randomTree(rng, 5))
			for depth := 0; depth <= 5; depth++ {
				wantMove, wantScore := fullWidthRoot(state, depth, mockEvaluate)

				ab := NewAlphaBeta(WithDepth(depth), WithEvaluationFn(mockEvaluate))
				d, err := ab.Search(context.Background(), state)

				require.NoError(t, err)
				require.Equal(t, wantMove, d.Move, "tree %d depth %d: same move as unpruned search", i, depth)
				require.Equal(t, float64(wantScore), d.Score, "tree %d depth %d: same score as unpruned search", i, depth)
			}
		}
	})

	t.Run("chess", func(t *testing.T) {
		pos := chess.StartPosition()
		require.NoError(t, pos.Play("e2e4"))
		require.NoError(t, pos.Play("d7d5"))

		wantMove, wantScore := fullWidthRoot(pos, 2, chess.Evaluate)

		ab := NewAlphaBeta(WithDepth(2), WithEvaluationFn(chess.Evaluate), WithMetrics())
		d, err := ab.Search(context.Background(), pos)

		require.NoError(t, err)
		require.Equal(t, wantMove.String(), d.Move.String(), "Pruning should not change the move")
		require.Equal(t, float64(wantScore), d.Score, "Pruning should not change the score")
		require.Positive(t, d.Metrics.Prunes, "Some branches should be cut")
	})
}

func TestAlphaBetaSearch(t *testing.T) {
	t.Run("forced capture at depth 1", func(t *testing.T) {
		pos, err := chess.NewPosition("4k3/8/8/3r4/8/8/3Q4/4K3 w - - 0 1")
		require.NoError(t, err)

		d, err := NewAlphaBeta(WithDepth(1), WithEvaluationFn(chess.Evaluate)).Search(context.Background(), pos)

		require.NoError(t, err)
		require.Equal(t, "d2d5", d.Move.String(), "Queen should take the hanging rook")
	})

	t.Run("depth 0 compares successors statically", func(t *testing.T) {
		pos, err := chess.NewPosition("4k3/8/8/3r4/8/8/3Q4/4K3 w - - 0 1")
		require.NoError(t, err)

		ab := NewAlphaBeta(WithDepth(0), WithEvaluationFn(chess.Evaluate), WithMetrics())
		d, err := ab.Search(context.Background(), pos)

		require.NoError(t, err)
		require.Equal(t, "d2d5", d.Move.String(), "Static comparison should still see the capture")
		require.Equal(t, len(pos.LegalMoves()), d.Metrics.Nodes, "Only the one-ply successors should be evaluated")
	})

	t.Run("prefers the quickest mate", func(t *testing.T) {
		pos, err := chess.NewPosition("6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
		require.NoError(t, err)

		d, err := NewAlphaBeta(WithDepth(3), WithEvaluationFn(chess.Evaluate)).Search(context.Background(), pos)

		require.NoError(t, err)
		require.Equal(t, "a1a8", d.Move.String(), "Back rank mate in one")
		require.Equal(t, float64(chess.Mate+2), d.Score, "Mate found with two plies to spare")
	})

	t.Run("quicker mate in a toy tree", func(t *testing.T) {
		slow := branch(branch(branch(terminal(game.FirstWins))))
		quick := branch(terminal(game.FirstWins))
		state := newMockState(branch(slow, quick))

		d, err := NewAlphaBeta(WithDepth(4), WithEvaluationFn(mockEvaluate)).Search(context.Background(), state)

		require.NoError(t, err)
		require.Equal(t, mockMove{id: 1}, d.Move, "Mate in two beats mate in four")
		require.Equal(t, float64(game.MateScore+2), d.Score)
	})

	t.Run("second player minimises", func(t *testing.T) {
		state := newMockState(branch(&mockNode{score: 30}, &mockNode{score: -20}, &mockNode{score: 10}))
		state.start = game.Second

		d, err := NewAlphaBeta(WithDepth(1), WithEvaluationFn(mockEvaluate)).Search(context.Background(), state)

		require.NoError(t, err)
		require.Equal(t, mockMove{id: 1}, d.Move, "Second player should pick the lowest score")
		require.Equal(t, 20.0, d.Score, "Score is from the mover's perspective")
	})

	t.Run("no legal moves", func(t *testing.T) {
		pos, err := chess.NewPosition("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
		require.NoError(t, err)

		d, err := NewAlphaBeta().Search(context.Background(), pos)

		require.NoError(t, err)
		require.False(t, d.HasMove(), "Stalemate leaves nothing to play")
	})

	t.Run("does not mutate the caller's state", func(t *testing.T) {
		pos := chess.StartPosition()
		before := pos.FEN()

		_, err := NewAlphaBeta(WithDepth(2), WithEvaluationFn(chess.Evaluate)).Search(context.Background(), pos)

		require.NoError(t, err)
		require.Equal(t, before, pos.FEN())
	})

	t.Run("cancelled before any move", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d, err := NewAlphaBeta().Search(ctx, newMockState(convergenceTree()))

		require.ErrorIs(t, err, context.Canceled)
		require.False(t, d.HasMove())
	})

	t.Run("cancelled mid-scan keeps the finished root moves", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		cancelling := func(s game.State) int {
			cancel()
			return mockEvaluate(s)
		}

		d, err := NewAlphaBeta(WithDepth(2), WithEvaluationFn(cancelling)).Search(ctx, newMockState(convergenceTree()))

		require.NoError(t, err)
		require.Equal(t, mockMove{id: 0}, d.Move, "Only the first root move was searched to the end")
		require.True(t, d.Interrupted, "A partial root scan should be flagged")
	})

	t.Run("deadline stops a deep subtree", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		d, err := NewAlphaBeta(WithDepth(MaxDepth), WithEvaluationFn(chess.Evaluate)).Search(ctx, chess.StartPosition())

		require.ErrorIs(t, err, context.DeadlineExceeded)
		require.False(t, d.HasMove(), "No root move finished in time")
		require.True(t, d.Interrupted)
		require.Less(t, time.Since(start), 2*time.Second, "Search should unwind soon after the deadline")
	})

	t.Run("completed search is not interrupted", func(t *testing.T) {
		d, err := NewAlphaBeta(WithDepth(2), WithEvaluationFn(mockEvaluate)).Search(context.Background(), newMockState(convergenceTree()))

		require.NoError(t, err)
		require.False(t, d.Interrupted)
	})

	t.Run("evaluator failure", func(t *testing.T) {
		failing := func(game.State) int { panic(errors.New("broken evaluator")) }

		d, err := NewAlphaBeta(WithEvaluationFn(failing)).Search(context.Background(), newMockState(convergenceTree()))

		require.ErrorIs(t, err, ErrSearchAborted)
		require.False(t, d.HasMove(), "A failed search must not return a move")
	})

	t.Run("rejects depths beyond the limit", func(t *testing.T) {
		require.Panics(t, func() { NewAlphaBeta(WithDepth(MaxDepth + 1)) })
		require.Panics(t, func() { NewAlphaBeta(WithDepth(-1)) })
	})
}

func TestOrderMoves(t *testing.T) {
	state := newMockState(branch(&mockNode{}, &mockNode{tactical: true}, &mockNode{}, &mockNode{tactical: true}))

	got := orderMoves(state)

	require.Equal(t, []game.Move{mockMove{1}, mockMove{3}, mockMove{0}, mockMove{2}}, got, "Tactical moves first, order kept within each group")
}
