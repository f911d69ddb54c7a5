package rotation

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"pagesmith/internal/history"
	"pagesmith/internal/logger"
)

type Strategy string

const (
	Sequential       Strategy = "sequential"
	WeightedRandom   Strategy = "weighted_random"
	LeastUsed        Strategy = "least_used"
	PerformanceBased Strategy = "performance_based"
	TimeBased        Strategy = "time_based"
)

// DefaultTimeWindow is the bucket width of the time_based strategy.
const DefaultTimeWindow = time.Hour

var ErrNoOptions = errors.New("rotation: no options to choose from")

// ParseStrategy maps a name to a Strategy. Unknown names become LeastUsed.
func ParseStrategy(name string) Strategy {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(name))); s {
	case Sequential, WeightedRandom, LeastUsed, PerformanceBased, TimeBased:
		return s
	default:
		return LeastUsed
	}
}

type Options struct {
	Now        func() time.Time
	Rand       *rand.Rand
	TimeWindow time.Duration
	Logger     *logger.Logger
}

// Engine picks prompt styles and learns from outcomes. Counters live in the
// shared history so they persist across runs.
type Engine struct {
	history *history.History
	now     func() time.Time
	window  time.Duration
	logger  *logger.Logger

	randMu sync.Mutex
	rng    *rand.Rand
}

func New(h *history.History, opts Options) *Engine {
	if h == nil {
		h = history.New(history.Options{})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if opts.TimeWindow <= 0 {
		opts.TimeWindow = DefaultTimeWindow
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Engine{history: h, now: opts.Now, window: opts.TimeWindow, logger: opts.Logger, rng: opts.Rand}
}

// Key is the history key of one option of a prompt type.
func Key(promptType, option string) string {
	return promptType + ":" + option
}

// Select picks one option and counts the use.
func (e *Engine) Select(promptType string, options []string, strategy Strategy) (string, error) {
	return e.SelectWith(nil, promptType, options, strategy)
}

// SelectWith is Select drawing randomness from r instead of the engine source.
// r must not be shared between goroutines.
func (e *Engine) SelectWith(r *rand.Rand, promptType string, options []string, strategy Strategy) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}

	var idx int
	switch ParseStrategy(string(strategy)) {
	case Sequential:
		idx = e.history.NextCursor(promptType) % len(options)
	case WeightedRandom:
		weights := make([]float64, len(options))
		for i, opt := range options {
			weights[i] = 1 / float64(e.history.Usage(Key(promptType, opt))+1)
		}
		idx = e.pick(r, weights)
	case PerformanceBased:
		weights := make([]float64, len(options))
		for i, opt := range options {
			weights[i] = SuccessRate(e.history, Key(promptType, opt))
		}
		idx = e.pick(r, weights)
	case TimeBased:
		bucket := e.now().UnixNano() / int64(e.window)
		idx = int(bucket % int64(len(options)))
		if idx < 0 {
			idx += len(options)
		}
	default:
		keys := make([]string, len(options))
		for i, opt := range options {
			keys[i] = Key(promptType, opt)
		}
		return options[e.history.IncrementLeastUsed(keys)], nil
	}

	choice := options[idx]
	e.history.IncrementUsage(Key(promptType, choice))
	return choice, nil
}

// RecordPerformance feeds an outcome back into the performance counters.
func (e *Engine) RecordPerformance(promptType, option string, success bool, metadata map[string]any) {
	e.history.RecordOutcome(Key(promptType, option), success)
	if len(metadata) > 0 {
		e.logger.Debug("rotation outcome recorded", "prompt_type", promptType, "option", option, "success", success, "metadata", metadata)
	}
}

// Checkpoint flushes history when enough updates have accumulated.
func (e *Engine) Checkpoint(ctx context.Context) error {
	return e.history.MaybeFlush(ctx)
}

// Close flushes the history unconditionally.
func (e *Engine) Close(ctx context.Context) error {
	return e.history.Flush(ctx)
}

func (e *Engine) History() *history.History { return e.history }

// SuccessRate is the Laplace-smoothed success rate; options without history score 0.5.
func SuccessRate(h *history.History, key string) float64 {
	p, _ := h.Performance(key)
	return float64(p.Successes+1) / float64(p.Total+2)
}

func (e *Engine) pick(r *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	var x float64
	if r != nil {
		x = r.Float64() * total
	} else {
		e.randMu.Lock()
		x = e.rng.Float64() * total
		e.randMu.Unlock()
	}
	for i, w := range weights {
		if x < w {
			return i
		}
		x -= w
	}
	return len(weights) - 1
}
