package agent

import (
	"context"

	"chessai/game"
	"chessai/searcher"
)

type evaluationAgent struct {
	engine searcher.Engine
}

// NewEvaluationAgent returns a new agent for actual game play during evaluation.
func NewEvaluationAgent(engine searcher.Engine) Agent {
	return evaluationAgent{engine: engine}
}

func (a evaluationAgent) FindMove(ctx context.Context, state game.State) (searcher.Decision, error) {
	return a.engine.Search(ctx, state)
}
