package inference

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"chessai/chess"
	"chessai/game"
	"chessai/searcher"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

var ErrUnsupportedState = errors.New("onnx evaluator needs a chess position")

type OnnxConfig struct {
	ModelPath string
	// LibraryPath locates the onnxruntime shared library. Empty uses the
	// runtime's default lookup.
	LibraryPath string
	// ValueHead is set when the model has a "value" output besides "policy".
	ValueHead bool
	// Evaluate scores positions when the model has no value head.
	Evaluate game.Evaluator
}

// OnnxEvaluator is a LeafEvaluator backed by an ONNX policy(-value) network
// over the 12x8x8 board planes. It is safe for concurrent use, calls into
// the session are serialised.
type OnnxEvaluator struct {
	mu        sync.Mutex
	session   *ort.DynamicAdvancedSession
	valueHead bool
	heuristic *searcher.HeuristicEvaluator
}

var ortInitOnce sync.Once
var ortInitErr error

func NewOnnxEvaluator(cfg OnnxConfig) (*OnnxEvaluator, error) {
	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("failed to init ort: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	defer options.Destroy()
	// Searches are single-threaded, one inference at a time
	options.SetIntraOpNumThreads(1)

	outputs := []string{"policy"}
	if cfg.ValueHead {
		outputs = append(outputs, "value")
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{"input"}, outputs, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	log.Info().Msgf("loaded model %s (value head: %t)", cfg.ModelPath, cfg.ValueHead)

	evaluate := cfg.Evaluate
	if evaluate == nil {
		evaluate = chess.Evaluate
	}
	return &OnnxEvaluator{
		session:   session,
		valueHead: cfg.ValueHead,
		heuristic: searcher.NewHeuristicEvaluator(evaluate, 0),
	}, nil
}

func (e *OnnxEvaluator) Close() error {
	return e.session.Destroy()
}

func (e *OnnxEvaluator) Evaluate(state game.State) (searcher.Evaluation, error) {
	pos, ok := state.(*chess.Position)
	if !ok {
		return searcher.Evaluation{}, fmt.Errorf("%w: %T", ErrUnsupportedState, state)
	}
	board := pos.Board()

	logits, value, err := e.run(board.Encode())
	if err != nil {
		return searcher.Evaluation{}, fmt.Errorf("run model: %w", err)
	}

	priors, err := legalPriors(pos.LegalMoves(), logits)
	if err != nil {
		return searcher.Evaluation{}, err
	}
	eval := searcher.Evaluation{Priors: priors}
	if e.valueHead {
		eval.Value = orientValue(value, pos.Turn())
	} else {
		eval.Value = e.heuristic.Value(pos)
	}
	return eval, nil
}

func (e *OnnxEvaluator) run(input []float32) ([]float32, float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inputTensor, err := ort.NewTensor(ort.NewShape(1, chess.Planes, 8, 8), input)
	if err != nil {
		return nil, 0, err
	}
	defer inputTensor.Destroy()

	policyTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, chess.PolicySize))
	if err != nil {
		return nil, 0, err
	}
	defer policyTensor.Destroy()
	outputs := []ort.Value{policyTensor}

	var valueTensor *ort.Tensor[float32]
	if e.valueHead {
		valueTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
		if err != nil {
			return nil, 0, err
		}
		defer valueTensor.Destroy()
		outputs = append(outputs, valueTensor)
	}

	if err := e.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, 0, err
	}

	logits := make([]float32, chess.PolicySize)
	copy(logits, policyTensor.GetData())
	var value float32
	if valueTensor != nil {
		value = valueTensor.GetData()[0]
	}
	return logits, value, nil
}

// legalPriors softmaxes the policy logits of the legal moves. Promotions
// to different pieces share a slot and so a logit.
func legalPriors(moves []game.Move, logits []float32) (map[game.Move]float64, error) {
	if len(logits) != chess.PolicySize {
		return nil, fmt.Errorf("policy has %d logits, want %d", len(logits), chess.PolicySize)
	}

	legal := make([]float64, len(moves))
	for i, move := range moves {
		idx, err := chess.MoveIndex(move)
		if err != nil {
			return nil, err
		}
		legal[i] = float64(logits[idx])
	}

	priors := make(map[game.Move]float64, len(moves))
	for i, p := range searcher.Softmax(legal) {
		priors[moves[i]] = p
	}
	return priors, nil
}

// orientValue turns a side-to-move value into the first player's
// perspective, clamped to [-1, 1].
func orientValue(v float32, turn game.Player) float64 {
	value := math.Max(-1, math.Min(1, float64(v)))
	return value * float64(turn.Sign())
}
