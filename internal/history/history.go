package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pagesmith/internal/logger"
)

const (
	DefaultWindow     = 200
	DefaultFlushEvery = 25
)

// Pattern is the structural fingerprint of one accepted page body.
type Pattern struct {
	Opening     string         `json:"opening"`
	Closing     string         `json:"closing"`
	Transitions []string       `json:"transitions,omitempty"`
	Structures  map[string]int `json:"structures,omitempty"`
}

type Performance struct {
	Successes int `json:"successes"`
	Total     int `json:"total"`
}

// Snapshot is the persisted form of a History.
type Snapshot struct {
	Usage       map[string]int         `json:"usage"`
	Performance map[string]Performance `json:"performance"`
	Cursors     map[string]int         `json:"cursors"`
	Recent      []Pattern              `json:"recent"`
	SavedAt     time.Time              `json:"saved_at"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Usage:       make(map[string]int),
		Performance: make(map[string]Performance),
		Cursors:     make(map[string]int),
	}
}

// Store loads and saves history snapshots.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
	Reset(ctx context.Context) error
}

type Options struct {
	Window     int
	FlushEvery int
	Store      Store
	Logger     *logger.Logger
}

// History is the variation state shared by the rotation and uniqueness engines.
// Counters and the pattern queue are guarded by separate locks.
type History struct {
	countersMu  sync.Mutex
	usage       map[string]int
	performance map[string]Performance
	cursors     map[string]int
	pending     int

	patternsMu sync.Mutex
	recent     []Pattern
	window     int

	flushMu    sync.Mutex
	store      Store
	flushEvery int
	logger     *logger.Logger
}

func New(opts Options) *History {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	h := &History{
		window:     opts.Window,
		store:      opts.Store,
		flushEvery: opts.FlushEvery,
		logger:     opts.Logger,
	}
	h.restore(emptySnapshot())
	return h
}

// Load builds a History and restores it from the store, if any.
func Load(ctx context.Context, opts Options) (*History, error) {
	h := New(opts)
	if h.store == nil {
		return h, nil
	}
	snap, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load variation history: %w", err)
	}
	if snap != nil {
		h.restore(snap)
	}
	h.logger.Debug("variation history loaded", "usage_keys", len(h.usage), "recent", len(h.recent))
	return h, nil
}

func (h *History) restore(snap *Snapshot) {
	h.countersMu.Lock()
	h.usage = copyInts(snap.Usage)
	h.performance = make(map[string]Performance, len(snap.Performance))
	for k, v := range snap.Performance {
		h.performance[k] = v
	}
	h.cursors = copyInts(snap.Cursors)
	h.pending = 0
	h.countersMu.Unlock()

	h.patternsMu.Lock()
	recent := snap.Recent
	if len(recent) > h.window {
		recent = recent[len(recent)-h.window:]
	}
	h.recent = append([]Pattern(nil), recent...)
	h.patternsMu.Unlock()
}

// IncrementUsage bumps the usage counter for key and returns the new count.
func (h *History) IncrementUsage(key string) int {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	h.usage[key]++
	h.pending++
	return h.usage[key]
}

// IncrementLeastUsed picks the key with the lowest usage, first on ties, and
// bumps it under the same lock. It returns the index of the chosen key.
func (h *History) IncrementLeastUsed(keys []string) int {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	best := 0
	for i, k := range keys {
		if h.usage[k] < h.usage[keys[best]] {
			best = i
		}
	}
	h.usage[keys[best]]++
	h.pending++
	return best
}

func (h *History) Usage(key string) int {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	return h.usage[key]
}

func (h *History) RecordOutcome(key string, success bool) {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	p := h.performance[key]
	p.Total++
	if success {
		p.Successes++
	}
	h.performance[key] = p
	h.pending++
}

func (h *History) Performance(key string) (Performance, bool) {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	p, ok := h.performance[key]
	return p, ok
}

// NextCursor returns the current cursor for name and advances it.
func (h *History) NextCursor(name string) int {
	h.countersMu.Lock()
	defer h.countersMu.Unlock()
	c := h.cursors[name]
	h.cursors[name] = c + 1
	h.pending++
	return c
}

// AppendPattern adds an accepted pattern, evicting the oldest beyond the window.
func (h *History) AppendPattern(p Pattern) {
	h.patternsMu.Lock()
	defer h.patternsMu.Unlock()
	h.recent = append(h.recent, p)
	if over := len(h.recent) - h.window; over > 0 {
		h.recent = append(h.recent[:0:0], h.recent[over:]...)
	}
	h.countersMu.Lock()
	h.pending++
	h.countersMu.Unlock()
}

// RecentPatterns returns a copy of the pattern window, oldest first.
func (h *History) RecentPatterns() []Pattern {
	h.patternsMu.Lock()
	defer h.patternsMu.Unlock()
	return append([]Pattern(nil), h.recent...)
}

func (h *History) Window() int { return h.window }

func (h *History) Snapshot() *Snapshot {
	snap := emptySnapshot()
	h.countersMu.Lock()
	snap.Usage = copyInts(h.usage)
	for k, v := range h.performance {
		snap.Performance[k] = v
	}
	snap.Cursors = copyInts(h.cursors)
	h.countersMu.Unlock()

	snap.Recent = h.RecentPatterns()
	snap.SavedAt = time.Now().UTC()
	return snap
}

// MaybeFlush saves the history once enough updates have accumulated.
func (h *History) MaybeFlush(ctx context.Context) error {
	h.countersMu.Lock()
	due := h.pending >= h.flushEvery
	h.countersMu.Unlock()
	if !due {
		return nil
	}
	return h.Flush(ctx)
}

// Flush saves the history unconditionally. Without a store it is a no-op.
func (h *History) Flush(ctx context.Context) error {
	if h.store == nil {
		return nil
	}
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.countersMu.Lock()
	flushed := h.pending
	h.countersMu.Unlock()

	if err := h.store.Save(ctx, h.Snapshot()); err != nil {
		return fmt.Errorf("failed to save variation history: %w", err)
	}

	h.countersMu.Lock()
	h.pending = max(h.pending-flushed, 0)
	h.countersMu.Unlock()
	return nil
}

// Reset clears in-memory state and the persisted snapshot.
func (h *History) Reset(ctx context.Context) error {
	h.restore(emptySnapshot())
	if h.store == nil {
		return nil
	}
	return h.store.Reset(ctx)
}

// TopUsage lists the n most used keys, highest first.
func (h *History) TopUsage(n int) []KeyCount {
	h.countersMu.Lock()
	out := make([]KeyCount, 0, len(h.usage))
	for k, v := range h.usage {
		out = append(out, KeyCount{Key: k, Count: v})
	}
	h.countersMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

type KeyCount struct {
	Key   string
	Count int
}

func copyInts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
