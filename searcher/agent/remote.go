package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chessai/game"
	"chessai/meta"
	"chessai/searcher"
)

var ErrUnsupportedState = errors.New("state cannot be sent to a remote agent")

// fenState is a position that travels as FEN and whose moves parse back
// from their string form.
type fenState interface {
	game.State
	FEN() string
	ParseMove(s string) (game.Move, error)
}

type remoteAgent struct {
	url    string
	client *http.Client
}

// NewRemoteAgent returns an agent that asks the agent server at url for
// its moves.
func NewRemoteAgent(url string) Agent {
	return remoteAgent{
		url:    strings.TrimSuffix(url, "/"),
		client: &http.Client{Timeout: meta.RequestTimeout},
	}
}

// FindMove posts the position to /findmove. The returned decision has no
// metrics, those stay with the server.
func (a remoteAgent) FindMove(ctx context.Context, state game.State) (searcher.Decision, error) {
	pos, ok := state.(fenState)
	if !ok {
		return searcher.Decision{}, fmt.Errorf("%w: %T", ErrUnsupportedState, state)
	}

	body, err := json.Marshal(findMoveRequest{FEN: pos.FEN()})
	if err != nil {
		return searcher.Decision{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url+"/findmove", bytes.NewReader(body))
	if err != nil {
		return searcher.Decision{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return searcher.Decision{}, fmt.Errorf("request move from %s: %w", a.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return searcher.Decision{}, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(out)))
	}

	var payload findMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return searcher.Decision{}, fmt.Errorf("decode move: %w", err)
	}

	d := searcher.Decision{Score: payload.Score, Interrupted: payload.Interrupted}
	if payload.Move != "" {
		if d.Move, err = pos.ParseMove(payload.Move); err != nil {
			return searcher.Decision{}, fmt.Errorf("agent returned an invalid move: %w", err)
		}
	}
	if len(payload.Visits) > 0 {
		d.Visits = make(map[game.Move]int, len(payload.Visits))
		for s, visits := range payload.Visits {
			move, err := pos.ParseMove(s)
			if err != nil {
				return searcher.Decision{}, fmt.Errorf("agent returned an invalid move: %w", err)
			}
			d.Visits[move] = visits
		}
	}
	return d, nil
}
