package selfplay

import (
	"context"
	"fmt"
	"slices"

	"chessai/chess"
	"chessai/game"
	"chessai/match"
	"chessai/meta"
	"chessai/searcher"
	"chessai/searcher/agent"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Games int
	// Temperature applies to the visit distribution the moves are sampled
	// from. Zero plays the most visited move.
	Temperature float64
	Seed        uint64
	MaxPlies    int
	// StartFEN is the opening position of every game, the standard one when empty.
	StartFEN string
}

// Run plays cfg.Games games of engine against itself and returns one row
// per ply. Rows of unfinished games carry a zero value.
func Run(ctx context.Context, engine searcher.Engine, cfg Config) ([]Row, error) {
	if cfg.MaxPlies <= 0 {
		cfg.MaxPlies = meta.MaxPlies
	}
	start := cfg.StartFEN
	if start == "" {
		start = chess.StartFEN
	}

	var rows []Row
	for i := 0; i < cfg.Games; i++ {
		pos, err := chess.NewPosition(start)
		if err != nil {
			return nil, err
		}

		log.Info().Msgf("starting self-play game %d of %d...", i+1, cfg.Games)
		gameRows, err := playGame(ctx, engine, pos, cfg, cfg.Seed+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", i+1, err)
		}
		rows = append(rows, gameRows...)
	}
	return rows, nil
}

func playGame(ctx context.Context, engine searcher.Engine, pos *chess.Position, cfg Config, seed uint64) ([]Row, error) {
	gameID := uuid.NewString()
	turns := []game.Player{}
	var rows []Row

	observe := func(ply int, state game.State, d searcher.Decision) {
		p := state.(*chess.Position)
		moves, policy := visitPolicy(state, d)
		rows = append(rows, Row{
			GameID: gameID,
			Ply:    int32(ply),
			FEN:    p.FEN(),
			Moves:  moves,
			Policy: policy,
			Played: d.Move.String(),
			Engine: engine.Name(),
		})
		turns = append(turns, p.Turn())
	}

	a := agent.NewTrainingAgent(engine, cfg.Temperature, seed)
	result, err := match.New(pos, a, a, match.WithMaxPlies(cfg.MaxPlies), match.WithObserver(observe)).Run(ctx)
	if err != nil {
		return nil, err
	}

	// Fill in the result from each mover's perspective
	for i := range rows {
		rows[i].Value = float32(result.Outcome.Value() * float64(turns[i].Sign()))
	}
	log.Info().Msgf("self-play game %s ended after %d plies: %s", gameID, len(rows), result.Outcome)
	return rows, nil
}

// visitPolicy lists every legal move of state in a stable order with its
// share of the root visits. Moves the search never expanded get 0, and
// decisions without visits put all weight on the chosen move.
func visitPolicy(state game.State, d searcher.Decision) ([]string, []float32) {
	byName := map[string]float64{d.Move.String(): 1}
	if len(d.Visits) > 0 {
		byName = make(map[string]float64, len(d.Visits))
		for move, p := range d.Policy() {
			byName[move.String()] = p
		}
	}

	legal := state.LegalMoves()
	moves := make([]string, len(legal))
	for i, move := range legal {
		moves[i] = move.String()
	}
	slices.Sort(moves)

	probs := make([]float32, len(moves))
	for i, m := range moves {
		probs[i] = float32(byName[m])
	}
	return moves, probs
}
