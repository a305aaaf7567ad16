package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chessai/chess"
	"chessai/inference"
	"chessai/meta"
	"chessai/searcher"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var ErrUnknownEngine = errors.New("unknown engine")

const (
	AlphaBeta = "alphabeta"
	Rollout   = "rollout"
	Policy    = "policy"
)

type ModelConfig struct {
	Path      string `yaml:"path"`
	Library   string `yaml:"library"`
	ValueHead bool   `yaml:"value_head"`
}

// EngineConfig selects one of the search engines and its parameters. Zero
// values mean the engine's defaults.
type EngineConfig struct {
	Engine      string        `yaml:"engine"`
	Depth       int           `yaml:"depth"`
	Simulations int           `yaml:"simulations"`
	Duration    time.Duration `yaml:"duration"`
	Exploration float64       `yaml:"exploration"`
	Cutoff      int           `yaml:"cutoff"`
	Seed        uint64        `yaml:"seed"`
	// Rollout is the playout policy of the rollout engine: greedy or random.
	Rollout          string       `yaml:"rollout"`
	PriorTemperature float64      `yaml:"prior_temperature"`
	Model            *ModelConfig `yaml:"model"`
}

func Default() EngineConfig {
	return EngineConfig{Engine: AlphaBeta, Depth: meta.Depth}
}

// DefaultPath is where the engine config lives unless told otherwise.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "chessai", "engine.yaml")
}

// Load reads an engine config from a YAML file. Unknown keys are rejected.
func Load(path string) (EngineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault reads the config at DefaultPath, or returns Default when
// there is none.
func LoadDefault() (EngineConfig, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	log.Debug().Msgf("loading engine config from %s", path)
	return Load(path)
}

func (c EngineConfig) Validate() error {
	switch c.Engine {
	case AlphaBeta, Rollout, Policy:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEngine, c.Engine)
	}
	if c.Depth < 0 || c.Depth > searcher.MaxDepth {
		return fmt.Errorf("depth %d out of range [0, %d]", c.Depth, searcher.MaxDepth)
	}
	if c.Simulations < 0 {
		return fmt.Errorf("negative simulations: %d", c.Simulations)
	}
	if c.Duration < 0 {
		return fmt.Errorf("negative duration: %s", c.Duration)
	}
	if c.Exploration < 0 {
		return fmt.Errorf("negative exploration: %g", c.Exploration)
	}
	if c.Cutoff < 0 {
		return fmt.Errorf("negative cutoff: %d", c.Cutoff)
	}
	if c.PriorTemperature < 0 {
		return fmt.Errorf("negative prior temperature: %g", c.PriorTemperature)
	}
	switch c.Rollout {
	case "", "greedy", "random":
	default:
		return fmt.Errorf("unknown rollout policy %q", c.Rollout)
	}
	if c.Model != nil && c.Model.Path == "" {
		return errors.New("model without a path")
	}
	return nil
}

func (c EngineConfig) options() []searcher.Option {
	options := []searcher.Option{searcher.WithEvaluationFn(chess.Evaluate)}

	if c.Depth > 0 {
		options = append(options, searcher.WithDepth(c.Depth))
	}
	if c.Simulations > 0 {
		options = append(options, searcher.WithSimulations(c.Simulations))
	}
	if c.Duration > 0 {
		options = append(options, searcher.WithDuration(c.Duration))
	}
	if c.Exploration > 0 {
		options = append(options, searcher.WithExploration(c.Exploration))
	}
	if c.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(c.Cutoff))
	}
	if c.Seed != 0 {
		options = append(options, searcher.WithSeed(c.Seed))
	}
	if c.Rollout == "random" {
		options = append(options, searcher.WithRolloutPolicy(searcher.RandomRollout))
	}
	return options
}

// Build creates the configured engine. The returned cleanup releases what
// the engine holds (a loaded model) and must be called once the engine is
// no longer used.
func Build(c EngineConfig, extra ...searcher.Option) (searcher.Engine, func() error, error) {
	noop := func() error { return nil }
	if err := c.Validate(); err != nil {
		return nil, noop, err
	}
	options := append(c.options(), extra...)

	switch c.Engine {
	case AlphaBeta:
		return searcher.NewAlphaBeta(options...), noop, nil
	case Rollout:
		return searcher.NewRolloutMCTS(options...), noop, nil
	}

	if c.Model == nil {
		evaluator := searcher.NewHeuristicEvaluator(chess.Evaluate, c.PriorTemperature)
		return searcher.NewPolicyMCTS(evaluator, options...), noop, nil
	}
	evaluator, err := inference.NewOnnxEvaluator(inference.OnnxConfig{
		ModelPath:   c.Model.Path,
		LibraryPath: c.Model.Library,
		ValueHead:   c.Model.ValueHead,
		Evaluate:    chess.Evaluate,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("load model: %w", err)
	}
	return searcher.NewPolicyMCTS(evaluator, options...), evaluator.Close, nil
}
