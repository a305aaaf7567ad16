// meta/meta.go
package meta

import "time"

// Depth defines the default alpha-beta search depth in plies.
const Depth = 3

// Simulations defines the default number of MCTS simulations per move.
const Simulations = 400

// Exploration defines the default UCT/PUCT exploration constant.
const Exploration = 1.4

// Cutoff defines the maximum number of plies in a rollout.
const Cutoff = 20

// EvalScale maps centipawn scores into [-1, 1] values.
const EvalScale = 1000.0

// MaxPlies defines the number of plies after which a match is abandoned.
const MaxPlies = 300

// ServerPort defines the port of the agent server.
const ServerPort = "8080"

// RequestTimeout bounds a remote agent's wait for a move.
const RequestTimeout = 30 * time.Second
