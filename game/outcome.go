package game

type Outcome uint8

const (
	Ongoing Outcome = iota
	FirstWins
	SecondWins
	Draw
)

var outcomeNames = [...]string{
	Ongoing:    "ongoing",
	FirstWins:  "1-0",
	SecondWins: "0-1",
	Draw:       "1/2-1/2",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Value scores the outcome from the first player's perspective: +1, -1 or 0.
func (o Outcome) Value() float64 {
	switch o {
	case FirstWins:
		return 1
	case SecondWins:
		return -1
	}
	return 0
}

// Winner returns the winning player, or false for draws and ongoing games.
func (o Outcome) Winner() (Player, bool) {
	switch o {
	case FirstWins:
		return First, true
	case SecondWins:
		return Second, true
	}
	return 0, false
}

// WinFor returns the outcome in which p wins.
func WinFor(p Player) Outcome {
	if p == First {
		return FirstWins
	}
	return SecondWins
}
