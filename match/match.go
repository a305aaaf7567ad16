package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chessai/experiments/metrics"
	"chessai/game"
	"chessai/meta"
	"chessai/searcher"
	"chessai/searcher/agent"

	"github.com/rs/zerolog/log"
)

var ErrNoMove = errors.New("agent returned no move")

// Observer sees every decision before its move is played. state must not
// be modified.
type Observer func(ply int, state game.State, d searcher.Decision)

type Result struct {
	Outcome game.Outcome // Ongoing when the ply limit was reached
	Moves   []string
	Game    metrics.GameMetric
	Plies   []metrics.MoveMetric
}

// Match plays a game between two agents from a starting position.
type Match struct {
	state    game.State
	agents   map[game.Player]agent.Agent
	maxPlies int
	observe  Observer
}

type Option func(m *Match)

func WithMaxPlies(plies int) Option {
	return func(m *Match) {
		if plies > 0 {
			m.maxPlies = plies
		}
	}
}

func WithObserver(observe Observer) Option {
	return func(m *Match) {
		m.observe = observe
	}
}

func New(state game.State, first, second agent.Agent, options ...Option) *Match {
	if first == nil || second == nil {
		panic("a match needs two agents")
	}
	m := &Match{
		state:    state.Clone(),
		agents:   map[game.Player]agent.Agent{game.First: first, game.Second: second},
		maxPlies: meta.MaxPlies,
		observe:  func(int, game.State, searcher.Decision) {},
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Run plays until the game is decided or the ply limit is reached.
func (m *Match) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	result := Result{Game: metrics.GameMetric{
		StartingPlayer: m.state.Turn().Sign(),
		StartTime:      start,
	}}

	log.Info().Msgf("player %s is starting", m.state.Turn())

	// Loop until there's a winner
	for ply := 1; !game.IsTerminal(m.state) && ply <= m.maxPlies; ply++ {
		player := m.state.Turn()
		d, err := m.agents[player].FindMove(ctx, m.state)
		if err != nil {
			return result, fmt.Errorf("ply %d: %s: %w", ply, player, err)
		}
		if !d.HasMove() {
			return result, fmt.Errorf("ply %d: %s: %w", ply, player, ErrNoMove)
		}

		m.observe(ply, m.state, d)
		result.Plies = append(result.Plies, metrics.MoveMetric{
			Step:         ply,
			Player:       player.Sign(),
			Move:         d.Move.String(),
			SearchMetric: d.Metrics,
		})
		result.Moves = append(result.Moves, d.Move.String())
		log.Debug().Msgf("ply %d: %s plays %s", ply, player, d.Move)

		m.state.Push(d.Move)
	}

	result.Outcome = m.state.Outcome()
	end := time.Now()
	result.Game.EndTime = end
	result.Game.Duration = end.Sub(start)
	result.Game.TotalMoves = len(result.Moves)
	result.Game.Result = result.Outcome.String()
	if winner, ok := result.Outcome.Winner(); ok {
		result.Game.Winner = winner.Sign()
	}

	if result.Outcome == game.Ongoing {
		log.Info().Msgf("stopped after %d plies (no result yet)", m.maxPlies)
	} else {
		log.Info().Msgf("game ended after %d plies: %s", len(result.Moves), result.Outcome)
	}
	return result, nil
}

// State returns the position the match has reached.
func (m *Match) State() game.State {
	return m.state
}
