package experiments

import (
	"context"
	"fmt"
	"time"

	"chessai/chess"
	"chessai/config"
	"chessai/experiments/metrics"
	"chessai/match"
	"chessai/searcher"
	"chessai/searcher/agent"

	"github.com/rs/zerolog/log"
)

const (
	NumGames   = 10 // Per match up
	MaxPlies   = 150
	TimeBudget = 50 * time.Millisecond
)

// Experiment pits pairs of engine configs against each other from the
// standard starting position. Colours alternate from game to game.
type Experiment struct {
	Name     string
	Configs  []metrics.AgentConfig
	MatchUps [][2]metrics.AgentConfig
	Games    int // Per match up
	MaxPlies int
}

// Experiments lists the predefined experiments by name.
var Experiments = map[string]func() Experiment{
	"engines":    EngineExperiment,
	"depth":      DepthExperiment,
	"cutoff":     CutoffExperiment,
	"throughput": ThroughputExperiment,
}

// EngineExperiment pairs each engine with the same time budget against the
// alpha-beta baseline.
func EngineExperiment() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Engine: config.AlphaBeta, Depth: 2}
	configs := []metrics.AgentConfig{
		{ID: 1, Engine: config.AlphaBeta, Depth: 3},
		{ID: 2, Engine: config.Rollout, Duration: TimeBudget},
		{ID: 3, Engine: config.Policy, Duration: TimeBudget},
	}
	return versus("engines", baseline, configs)
}

func DepthExperiment() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Engine: config.AlphaBeta, Depth: 1}
	configs := []metrics.AgentConfig{
		{ID: 1, Engine: config.AlphaBeta, Depth: 1}, // Baseline equivalent
		{ID: 2, Engine: config.AlphaBeta, Depth: 2},
		{ID: 3, Engine: config.AlphaBeta, Depth: 3},
		{ID: 4, Engine: config.AlphaBeta, Depth: 4},
	}
	return versus("depth", baseline, configs)
}

func CutoffExperiment() Experiment {
	baseline := metrics.AgentConfig{ID: 0, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 20}
	configs := []metrics.AgentConfig{
		{ID: 1, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 20}, // Baseline equivalent
		{ID: 2, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 4},
		{ID: 3, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 10},
		{ID: 4, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 40},
	}
	return versus("cutoff", baseline, configs)
}

// ThroughputExperiment plays each engine against itself for the same
// playing strength and similar game length, to compare the search metrics.
func ThroughputExperiment() Experiment {
	configs := []metrics.AgentConfig{
		{ID: 1, Engine: config.Rollout, Duration: TimeBudget},
		{ID: 2, Engine: config.Rollout, Duration: TimeBudget, Cutoff: 4},
		{ID: 3, Engine: config.Policy, Duration: TimeBudget},
	}
	matchUps := [][2]metrics.AgentConfig{}
	for _, c := range configs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{c, c})
	}
	return Experiment{Name: "throughput", Configs: configs, MatchUps: matchUps, Games: 1, MaxPlies: MaxPlies}
}

// versus pairs every config against the baseline agent.
func versus(name string, baseline metrics.AgentConfig, configs []metrics.AgentConfig) Experiment {
	matchUps := [][2]metrics.AgentConfig{}
	for _, c := range configs {
		matchUps = append(matchUps, [2]metrics.AgentConfig{baseline, c})
	}
	return Experiment{
		Name:     name,
		Configs:  append(configs, baseline),
		MatchUps: matchUps,
		Games:    NumGames,
		MaxPlies: MaxPlies,
	}
}

// Run plays every match up and stores the records under outDir. It
// returns the directory written to.
func (e Experiment) Run(ctx context.Context, outDir string) (string, error) {
	// Run a number of games for each matchup
	count := 0
	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}
	start := time.Now()

	log.Info().Msgf("starting %s experiment...", e.Name)

	for mi, matchUp := range e.MatchUps {
		log.Info().Msgf("starting matchup %d of %d between agent1=%+v and agent2=%+v...", mi+1, len(e.MatchUps), matchUp[0], matchUp[1])

		for i := 0; i < e.Games; i++ {
			first, second := matchUp[0], matchUp[1]
			if i%2 == 1 {
				first, second = second, first
			}

			result, err := e.runGame(ctx, first, second)
			if err != nil {
				return "", fmt.Errorf("matchup %d game %d: %w", mi+1, i+1, err)
			}
			count++
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         count,
				Agent1:     first.ID,
				Agent2:     second.ID,
				GameMetric: result.Game,
			})
			for _, mm := range result.Plies {
				moveRecords = append(moveRecords, metrics.MoveRecord{
					Game:       count,
					MoveMetric: mm,
				})
			}

			log.Info().Msgf("completed matchup %d of %d game %d with result: %s", mi+1, len(e.MatchUps), i+1, result.Outcome)
		}
	}

	log.Info().Msgf("completed %s experiment", e.Name)

	writer, err := metrics.NewWriter(outDir, e.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}
	end := time.Now()
	err = writer.WriteSetup(metrics.Setup{
		Name:      e.Name,
		MatchUps:  e.MatchUps,
		NumGames:  e.Games,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	})
	if err != nil {
		return "", err
	}
	if err := writer.WriteAgentConfigs(e.Configs); err != nil {
		return "", err
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return "", err
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return "", err
	}
	log.Info().Msgf("stored experiment records in %s", writer.Dir())
	return writer.Dir(), nil
}

// runGame plays a single game between two agents.
func (e Experiment) runGame(ctx context.Context, first, second metrics.AgentConfig) (match.Result, error) {
	agents := make([]agent.Agent, 0, 2)
	for _, c := range []metrics.AgentConfig{first, second} {
		engine, cleanup, err := config.Build(engineConfig(c), searcher.WithMetrics())
		if err != nil {
			return match.Result{}, fmt.Errorf("agent %d: %w", c.ID, err)
		}
		defer cleanup()
		agents = append(agents, agent.NewEvaluationAgent(engine))
	}

	return match.New(chess.StartPosition(), agents[0], agents[1], match.WithMaxPlies(e.MaxPlies)).Run(ctx)
}

func engineConfig(c metrics.AgentConfig) config.EngineConfig {
	return config.EngineConfig{
		Engine:      c.Engine,
		Depth:       c.Depth,
		Simulations: c.Simulations,
		Duration:    c.Duration,
		Cutoff:      c.Cutoff,
		Exploration: c.Exploration,
	}
}
