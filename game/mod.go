package game

import "fmt"

// Player is one of the two sides. Its value doubles as the negamax sign.
type Player int8

const (
	First  Player = 1
	Second Player = -1
)

func (p Player) Opponent() Player {
	return -p
}

// Sign returns +1 for the first player and -1 for the second.
func (p Player) Sign() int {
	return int(p)
}

func (p Player) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return fmt.Sprintf("player(%d)", int8(p))
}

// Move is opaque to the searchers. Implementations must be comparable so
// they can key maps of visit counts and priors.
type Move interface {
	fmt.Stringer
}

// State is a mutable game position with push/pop successor generation.
// Every Push must be matched by a Pop before the caller hands the state back.
type State interface {
	Turn() Player
	LegalMoves() []Move
	Push(Move)
	Pop()
	Outcome() Outcome
	// Clone returns a deep copy that shares nothing with the receiver
	Clone() State
}

// Tactical is implemented by states that can list their forcing moves
// (captures, promotions) cheaply. Searchers use it for move ordering.
type Tactical interface {
	TacticalMoves() []Move
}

func IsTerminal(s State) bool {
	return s.Outcome() != Ongoing
}
