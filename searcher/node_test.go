package searcher

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"chessai/game"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

/*
cases:
- observation: root records outcome and untried moves of the side to move
- expansion:
	- one at a time: child gets the next untried move, state advances by that move
	- all at once: one unobserved child per legal move with its prior
	- edge case: no untried moves -> panic
- backpropagation: path to the root only, sign flips at every step
- selection: unvisited children first, then max UCT / PUCT
*/

type mockMove struct {
	id int
}

func (m mockMove) String() string {
	return fmt.Sprintf("m%d", m.id)
}

// mockNode is a position in an explicit game tree.
type mockNode struct {
	score    int
	outcome  game.Outcome
	tactical bool
	children []*mockNode
}

func branch(children ...*mockNode) *mockNode {
	return &mockNode{children: children}
}

func terminal(outcome game.Outcome) *mockNode {
	return &mockNode{outcome: outcome}
}

type mockState struct {
	start  game.Player
	path   []*mockNode
	pushes int
}

func newMockState(root *mockNode) *mockState {
	return &mockState{start: game.First, path: []*mockNode{root}}
}

func (s *mockState) current() *mockNode {
	return s.path[len(s.path)-1]
}

func (s *mockState) Turn() game.Player {
	if (len(s.path)-1)%2 == 0 {
		return s.start
	}
	return s.start.Opponent()
}

func (s *mockState) LegalMoves() []game.Move {
	cur := s.current()
	if cur.outcome != game.Ongoing {
		return nil
	}
	moves := make([]game.Move, len(cur.children))
	for i := range cur.children {
		moves[i] = mockMove{id: i}
	}
	return moves
}

func (s *mockState) TacticalMoves() []game.Move {
	var moves []game.Move
	for i, child := range s.current().children {
		if child.tactical {
			moves = append(moves, mockMove{id: i})
		}
	}
	return moves
}

func (s *mockState) Push(m game.Move) {
	s.path = append(s.path, s.current().children[m.(mockMove).id])
	s.pushes++
}

func (s *mockState) Pop() {
	if len(s.path) == 1 {
		panic("pop without a matching push")
	}
	s.path = s.path[:len(s.path)-1]
}

func (s *mockState) Outcome() game.Outcome {
	return s.current().outcome
}

func (s *mockState) Clone() game.State {
	return &mockState{start: s.start, path: slices.Clone(s.path)}
}

func mockEvaluate(s game.State) int {
	cur := s.(*mockState).current()
	switch cur.outcome {
	case game.FirstWins:
		return game.MateScore
	case game.SecondWins:
		return -game.MateScore
	case game.Draw:
		return 0
	}
	return cur.score
}

// randomTree builds a tree of the given depth with random scores, branching
// and the occasional decided game below the root.
func randomTree(rng *rand.Rand, depth int) *mockNode {
	root := &mockNode{score: rng.Intn(201) - 100}
	for i := 0; i < 2+rng.Intn(3); i++ {
		root.children = append(root.children, randomSubtree(rng, depth-1))
	}
	return root
}

func randomSubtree(rng *rand.Rand, depth int) *mockNode {
	n := &mockNode{score: rng.Intn(201) - 100, tactical: rng.Intn(4) == 0}
	if depth == 0 {
		return n
	}
	if rng.Intn(12) == 0 {
		n.outcome = []game.Outcome{game.FirstWins, game.SecondWins, game.Draw}[rng.Intn(3)]
		return n
	}
	for i := 0; i < 1+rng.Intn(4); i++ {
		n.children = append(n.children, randomSubtree(rng, depth-1))
	}
	return n
}

// convergenceTree gives the first player one move (m0) that wins against
// any reply, one (m1) that loses to the right reply and one (m2) that can
// at best draw.
func convergenceTree() *mockNode {
	return branch(
		branch(terminal(game.FirstWins), terminal(game.FirstWins)),
		branch(terminal(game.SecondWins), terminal(game.FirstWins)),
		branch(terminal(game.SecondWins), terminal(game.Draw)),
	)
}

func TestNewTree(t *testing.T) {
	t.Run("root of an ongoing game", func(t *testing.T) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)

		root := tree.Root()
		require.Equal(t, 1, tree.Len(), "Tree should start with the root only")
		require.Equal(t, NodeID(-1), tree.Parent(root), "Root should have no parent")
		require.Equal(t, game.Second, tree.Mover(root), "Root mover should be the opponent of the side to move")
		require.False(t, tree.IsTerminal(root), "Root should not be terminal")
		require.Len(t, tree.Untried(root), 3, "Root should hold every legal move as untried")
		require.False(t, tree.IsFullyExpanded(root), "Root should not be fully expanded")
	})

	t.Run("root of a decided game", func(t *testing.T) {
		tree := NewTree(newMockState(terminal(game.SecondWins)))

		require.True(t, tree.IsTerminal(tree.Root()), "Root should be terminal")
		require.Equal(t, game.SecondWins, tree.Outcome(tree.Root()))
		require.Empty(t, tree.Untried(tree.Root()), "Terminal root has no moves")
	})
}

func TestTreeExpandOne(t *testing.T) {
	t.Run("expanding the next untried move", func(t *testing.T) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)

		child := tree.ExpandOne(tree.Root(), state)

		require.Equal(t, mockMove{id: 0}, tree.Move(child), "Child should hold the first untried move")
		require.Equal(t, game.First, tree.Mover(child), "Child mover should be the side to move at the parent")
		require.Equal(t, tree.Root(), tree.Parent(child))
		require.Equal(t, []NodeID{child}, tree.Children(tree.Root()))
		require.Len(t, tree.Untried(tree.Root()), 2, "Move should leave the untried list")
		require.Equal(t, 2, len(state.path), "State should advance by the expanded move")
		require.Len(t, tree.Untried(child), 2, "Child should be observed with its own moves")
		require.Zero(t, tree.Visits(child), "New child has no visits")
	})

	t.Run("fully expanded after the last move", func(t *testing.T) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)

		for i := 0; i < 3; i++ {
			tree.ExpandOne(tree.Root(), state)
			state.Pop()
		}

		require.True(t, tree.IsFullyExpanded(tree.Root()), "Root should be fully expanded")
		require.True(t, tree.IsExpanded(tree.Root()))
		require.Panics(t, func() { tree.ExpandOne(tree.Root(), state) }, "Nothing left to expand")
	})

	t.Run("terminal child", func(t *testing.T) {
		state := newMockState(branch(terminal(game.FirstWins)))
		tree := NewTree(state)

		child := tree.ExpandOne(tree.Root(), state)

		require.True(t, tree.IsTerminal(child), "Child should record the decided game")
		require.Equal(t, game.FirstWins, tree.Outcome(child))
	})
}

func TestTreeExpandAll(t *testing.T) {
	state := newMockState(convergenceTree())
	tree := NewTree(state)

	tree.ExpandAll(tree.Root(), game.First, []float64{0.5, 0.3, 0.2})

	children := tree.Children(tree.Root())
	require.Len(t, children, 3, "Every legal move should get an edge")
	require.True(t, tree.IsExpanded(tree.Root()))
	require.Empty(t, tree.Untried(tree.Root()))
	for i, child := range children {
		require.Equal(t, mockMove{id: i}, tree.Move(child))
		require.False(t, tree.IsObserved(child), "Edges are observed lazily")
		require.Zero(t, tree.Visits(child))
		require.Zero(t, tree.Q(child))
	}
	require.Equal(t, 0.3, tree.Prior(children[1]))

	require.Panics(t, func() {
		other := NewTree(newMockState(convergenceTree()))
		other.ExpandAll(other.Root(), game.First, []float64{1})
	}, "Priors must match the legal moves")
}

func TestTreeBackpropagate(t *testing.T) {
	t.Run("alternates the sign up to the root", func(t *testing.T) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)
		child := tree.ExpandOne(tree.Root(), state)
		grandChild := tree.ExpandOne(child, state)

		tree.Backpropagate(grandChild, game.FirstWins.Value())

		require.Equal(t, -1.0, tree.Value(grandChild), "Win for the first player is a loss for the second player's move")
		require.Equal(t, 1.0, tree.Value(child), "First player's move into the child was good")
		require.Equal(t, -1.0, tree.Value(tree.Root()), "Sign flips again at the root")
		for _, id := range []NodeID{tree.Root(), child, grandChild} {
			require.Equal(t, 1, tree.Visits(id), "Every node on the path gets one visit")
		}
	})

	t.Run("leaves siblings untouched", func(t *testing.T) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)
		first := tree.ExpandOne(tree.Root(), state)
		state.Pop()
		second := tree.ExpandOne(tree.Root(), state)

		tree.Backpropagate(second, -0.5)

		require.Zero(t, tree.Visits(first), "Sibling should not be visited")
		require.Equal(t, -0.5, tree.Q(second), "Value oriented to the first player who moved into the node")
		require.Equal(t, 1, tree.Visits(tree.Root()))
	})
}

func TestTreeSelectUCT(t *testing.T) {
	setup := func(stats [][2]float64) (*Tree, []NodeID) {
		state := newMockState(convergenceTree())
		tree := NewTree(state)
		var children []NodeID
		for range stats {
			children = append(children, tree.ExpandOne(tree.Root(), state))
			state.Pop()
		}
		for i, s := range stats {
			n := tree.at(children[i])
			n.value, n.visits = s[0], int(s[1])
			tree.at(tree.Root()).visits += int(s[1])
		}
		return tree, children
	}

	t.Run("unvisited child first", func(t *testing.T) {
		tree, children := setup([][2]float64{{5, 5}, {0, 0}, {0, 0}})
		require.Equal(t, children[1], tree.SelectUCT(tree.Root(), 1.4), "First unvisited child should be selected")
	})

	t.Run("max UCT child", func(t *testing.T) {
		tree, children := setup([][2]float64{{1, 10}, {8, 10}, {-2, 10}})
		require.Equal(t, children[1], tree.SelectUCT(tree.Root(), 1.4), "Equal visits should select the best mean")
	})

	t.Run("exploration favours rarely visited children", func(t *testing.T) {
		tree, children := setup([][2]float64{{50, 100}, {0, 1}, {40, 100}})
		require.Equal(t, children[1], tree.SelectUCT(tree.Root(), 1.4), "Exploration term should dominate")
	})
}

func TestTreeSelectPUCT(t *testing.T) {
	t.Run("unvisited edges first, highest prior leading", func(t *testing.T) {
		tree := NewTree(newMockState(convergenceTree()))
		tree.ExpandAll(tree.Root(), game.First, []float64{0.2, 0.7, 0.1})
		children := tree.Children(tree.Root())

		require.Equal(t, children[1], tree.SelectPUCT(tree.Root(), 1.4), "Highest prior unvisited edge")

		tree.at(children[1]).visits = 1
		tree.at(children[1]).value = 1
		require.Equal(t, children[0], tree.SelectPUCT(tree.Root(), 1.4), "Remaining unvisited edge with the higher prior")
	})

	t.Run("max PUCT edge once all are visited", func(t *testing.T) {
		tree := NewTree(newMockState(convergenceTree()))
		tree.ExpandAll(tree.Root(), game.First, []float64{0.6, 0.3, 0.1})
		children := tree.Children(tree.Root())
		for i, v := range []float64{0, 3, -1} {
			n := tree.at(children[i])
			n.visits, n.value = 4, v
		}

		total := math.Sqrt(12)
		scores := []float64{
			puct(0, 0.6, 4, 1.4, total),
			puct(3, 0.3, 4, 1.4, total),
			puct(-1, 0.1, 4, 1.4, total),
		}
		require.Greater(t, scores[1], scores[0])
		require.Equal(t, children[1], tree.SelectPUCT(tree.Root(), 1.4), "Higher mean value should win at equal visits")
	})
}

func TestTreeMostVisited(t *testing.T) {
	state := newMockState(convergenceTree())
	tree := NewTree(state)
	var children []NodeID
	for range 3 {
		children = append(children, tree.ExpandOne(tree.Root(), state))
		state.Pop()
	}
	tree.at(children[1]).visits = 4
	tree.at(children[2]).visits = 4

	require.Equal(t, children[1], tree.MostVisited(tree.Root()), "Ties go to the earliest child")
	require.Equal(t, map[game.Move]int{mockMove{0}: 0, mockMove{1}: 4, mockMove{2}: 4}, tree.RootVisits())
}
