package searcher

import (
	"math"

	"chessai/game"
)

// NodeID addresses a node inside its Tree.
type NodeID int32

const noNode NodeID = -1

// node stores search statistics only. Positions are rebuilt by replaying
// moves from the root, so nodes never hold a state.
type node struct {
	parent   NodeID
	move     game.Move   // Move from the parent, nil at the root
	mover    game.Player // Player who made move
	prior    float64
	observed bool // outcome and untried moves known
	expanded bool // every legal move has a child
	outcome  game.Outcome
	untried  []game.Move
	children []NodeID
	visits   int
	value    float64 // Sum of values from the mover's perspective
}

// Tree is an arena of search nodes. It lives for a single search.
type Tree struct {
	nodes []node
}

// NewTree creates a tree whose root is the side to move in state.
func NewTree(state game.State) *Tree {
	t := &Tree{nodes: make([]node, 0, 64)}
	t.nodes = append(t.nodes, node{
		parent: noNode,
		mover:  state.Turn().Opponent(),
	})
	t.Observe(t.Root(), state)
	return t
}

func (t *Tree) Root() NodeID {
	return 0
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) at(id NodeID) *node {
	return &t.nodes[id]
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// Observe records the outcome and the legal moves of state, which must be
// the position at id.
func (t *Tree) Observe(id NodeID, state game.State) {
	n := t.at(id)
	n.observed = true
	n.outcome = state.Outcome()
	if n.outcome == game.Ongoing {
		n.untried = state.LegalMoves()
	}
}

func (t *Tree) IsObserved(id NodeID) bool {
	return t.at(id).observed
}

func (t *Tree) IsTerminal(id NodeID) bool {
	return t.at(id).outcome != game.Ongoing
}

func (t *Tree) Outcome(id NodeID) game.Outcome {
	return t.at(id).outcome
}

// IsFullyExpanded reports whether every legal move at id has a child.
func (t *Tree) IsFullyExpanded(id NodeID) bool {
	n := t.at(id)
	return n.observed && len(n.untried) == 0
}

func (t *Tree) IsExpanded(id NodeID) bool {
	return t.at(id).expanded
}

// Untried lists the legal moves at id that have no child yet.
func (t *Tree) Untried(id NodeID) []game.Move {
	return t.at(id).untried
}

// ExpandOne creates the child for the next untried move at id and plays it
// on state, which must be the position at id.
func (t *Tree) ExpandOne(id NodeID, state game.State) NodeID {
	n := t.at(id)
	if len(n.untried) == 0 {
		panic("cannot expand: no untried moves")
	}
	move := n.untried[0]
	n.untried = n.untried[1:]

	child := t.add(node{
		parent: id,
		move:   move,
		mover:  state.Turn(),
	})
	t.at(id).children = append(t.at(id).children, child)
	if len(t.at(id).untried) == 0 {
		t.at(id).expanded = true
	}

	state.Push(move)
	t.Observe(child, state)
	return child
}

// ExpandAll creates an unobserved child for every untried move at id, with
// the given priors in the same order.
func (t *Tree) ExpandAll(id NodeID, mover game.Player, priors []float64) {
	n := t.at(id)
	if len(priors) != len(n.untried) {
		panic("cannot expand: priors do not match the legal moves")
	}
	moves := n.untried
	n.untried = nil
	n.expanded = true

	children := make([]NodeID, 0, len(moves))
	for i, move := range moves {
		children = append(children, t.add(node{
			parent: id,
			move:   move,
			mover:  mover,
			prior:  priors[i],
		}))
	}
	t.at(id).children = children
}

// Backpropagate adds value to every node from id up to the root. The value
// is given from the first player's perspective. A node accumulates it from
// the perspective of the player who moved into it, so the sign flips at
// every step and a parent always maximises over its children.
func (t *Tree) Backpropagate(id NodeID, value float64) {
	v := value * float64(t.at(id).mover.Sign())
	for id != noNode {
		n := t.at(id)
		n.visits++
		n.value += v
		v = -v
		id = n.parent
	}
}

func (t *Tree) Children(id NodeID) []NodeID {
	return t.at(id).children
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.at(id).parent
}

func (t *Tree) Move(id NodeID) game.Move {
	return t.at(id).move
}

func (t *Tree) Mover(id NodeID) game.Player {
	return t.at(id).mover
}

func (t *Tree) Prior(id NodeID) float64 {
	return t.at(id).prior
}

func (t *Tree) Visits(id NodeID) int {
	return t.at(id).visits
}

// Value is the accumulated value of id for the player who moved into it.
func (t *Tree) Value(id NodeID) float64 {
	return t.at(id).value
}

// Q is the mean value of id for the player who moved into it.
func (t *Tree) Q(id NodeID) float64 {
	n := t.at(id)
	if n.visits == 0 {
		return 0
	}
	return n.value / float64(n.visits)
}

// MostVisited returns the child of id with the highest visit count, the
// earliest created on ties.
func (t *Tree) MostVisited(id NodeID) NodeID {
	best, bestVisits := noNode, -1
	for _, child := range t.at(id).children {
		if v := t.at(child).visits; v > bestVisits {
			best, bestVisits = child, v
		}
	}
	return best
}

// RootVisits returns the visit count of every root move that has a child.
func (t *Tree) RootVisits() map[game.Move]int {
	children := t.Children(t.Root())
	visits := make(map[game.Move]int, len(children))
	for _, child := range children {
		visits[t.Move(child)] = t.Visits(child)
	}
	return visits
}

// SelectUCT returns the child of id maximising Q + c*sqrt(ln N / n).
// Unvisited children come first, in creation order.
func (t *Tree) SelectUCT(id NodeID, c float64) NodeID {
	logN := math.Log(float64(t.at(id).visits))
	best, bestScore := noNode, math.Inf(-1)
	for _, child := range t.at(id).children {
		n := t.at(child)
		score := uct(n.value, n.visits, c, logN)
		if score == math.Inf(1) {
			return child
		}
		if score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// SelectPUCT returns the child of id maximising Q + c*P*sqrt(ΣN)/(1+n).
// Unvisited children come first, the one with the highest prior leading.
func (t *Tree) SelectPUCT(id NodeID, c float64) NodeID {
	children := t.at(id).children
	total := 0
	for _, child := range children {
		total += t.at(child).visits
	}
	sqrtTotal := math.Sqrt(float64(total))

	best, bestScore, bestPrior := noNode, math.Inf(-1), math.Inf(-1)
	for _, child := range children {
		n := t.at(child)
		score := puct(n.value, n.prior, n.visits, c, sqrtTotal)
		if score > bestScore || (score == bestScore && n.prior > bestPrior) {
			best, bestScore, bestPrior = child, score, n.prior
		}
	}
	return best
}
