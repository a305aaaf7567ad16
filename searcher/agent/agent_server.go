package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chessai/chess"
	"chessai/meta"

	"github.com/rs/zerolog/log"
)

type findMoveRequest struct {
	FEN string `json:"fen"`
}

type findMoveResponse struct {
	Move   string         `json:"move,omitempty"` // Empty when the side to move has no move
	Score  float64        `json:"score"`
	Visits map[string]int `json:"visits,omitempty"`

	// Interrupted marks a search cut short by the request timeout
	Interrupted bool `json:"interrupted,omitempty"`
}

// NewHandler serves POST /findmove for a chess position given as FEN.
func NewHandler(a Agent) http.Handler {
	// Create a local mux rather than using the global DefaultServeMux
	mux := http.NewServeMux()
	mux.HandleFunc("POST /findmove", func(w http.ResponseWriter, r *http.Request) {
		handleFindMove(a, w, r)
	})
	return mux
}

// StartAgentServer serves a on the given port until ctx is done.
func StartAgentServer(ctx context.Context, port string, a Agent) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           NewHandler(a),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdown); err != nil {
			log.Warn().Err(err).Msg("agent server shutdown")
		}
	}()

	log.Info().Msgf("starting agent server on :%s ...", port)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleFindMove(a Agent, w http.ResponseWriter, r *http.Request) {
	var payload findMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	pos, err := chess.NewPosition(payload.FEN)
	if err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), meta.RequestTimeout)
	defer cancel()
	d, err := a.FindMove(ctx, pos)
	if err != nil {
		log.Error().Err(err).Str("fen", payload.FEN).Msg("find move")
		http.Error(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := findMoveResponse{Score: d.Score, Interrupted: d.Interrupted}
	if d.Interrupted {
		log.Warn().Str("fen", payload.FEN).Msg("search interrupted, answering with a partial result")
	}
	if d.HasMove() {
		resp.Move = d.Move.String()
	}
	if len(d.Visits) > 0 {
		resp.Visits = make(map[string]int, len(d.Visits))
		for move, visits := range d.Visits {
			resp.Visits[move.String()] = visits
		}
	}
	log.Debug().Str("fen", payload.FEN).Str("move", resp.Move).Msg("found move")

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode move: "+err.Error(), http.StatusInternalServerError)
	}
}
