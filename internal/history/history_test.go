package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu    sync.Mutex
	saves int
	last  *Snapshot
}

func (s *countingStore) Load(context.Context) (*Snapshot, error) { return s.last, nil }

func (s *countingStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.last = snap
	return nil
}

func (s *countingStore) Reset(context.Context) error {
	s.last = nil
	return nil
}

func TestHistory_WindowIsBounded(t *testing.T) {
	h := New(Options{Window: 3})
	for i := 0; i < 5; i++ {
		h.AppendPattern(Pattern{Opening: fmt.Sprintf("o%d", i)})
	}
	recent := h.RecentPatterns()
	require.Len(t, recent, 3)
	assert.Equal(t, "o2", recent[0].Opening)
	assert.Equal(t, "o4", recent[2].Opening)
}

func TestHistory_CountersAndCursors(t *testing.T) {
	h := New(Options{})
	assert.Equal(t, 1, h.IncrementUsage("tone:friendly"))
	assert.Equal(t, 2, h.IncrementUsage("tone:friendly"))

	h.RecordOutcome("tone:friendly", true)
	h.RecordOutcome("tone:friendly", false)
	perf, ok := h.Performance("tone:friendly")
	require.True(t, ok)
	assert.Equal(t, Performance{Successes: 1, Total: 2}, perf)

	assert.Equal(t, 0, h.NextCursor("tone"))
	assert.Equal(t, 1, h.NextCursor("tone"))

	top := h.TopUsage(1)
	require.Len(t, top, 1)
	assert.Equal(t, "tone:friendly", top[0].Key)
}

func TestHistory_ConcurrentUpdates(t *testing.T) {
	h := New(Options{Window: 50})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.IncrementUsage("k")
				h.AppendPattern(Pattern{Opening: "question"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, h.Usage("k"))
	assert.Len(t, h.RecentPatterns(), 50)
}

func TestHistory_IncrementLeastUsed(t *testing.T) {
	h := New(Options{})
	h.IncrementUsage("b")
	keys := []string{"a", "b", "c"}

	assert.Equal(t, 0, h.IncrementLeastUsed(keys))
	assert.Equal(t, 2, h.IncrementLeastUsed(keys))
	assert.Equal(t, 0, h.IncrementLeastUsed(keys))
	assert.Equal(t, 2, h.Usage("a"))
	assert.Equal(t, 1, h.Usage("b"))
	assert.Equal(t, 1, h.Usage("c"))
}

func TestHistory_MaybeFlushEveryK(t *testing.T) {
	store := &countingStore{}
	h := New(Options{FlushEvery: 3, Store: store})
	ctx := context.Background()

	h.IncrementUsage("a")
	h.IncrementUsage("a")
	require.NoError(t, h.MaybeFlush(ctx))
	assert.Equal(t, 0, store.saves)

	h.IncrementUsage("a")
	require.NoError(t, h.MaybeFlush(ctx))
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 3, store.last.Usage["a"])

	require.NoError(t, h.MaybeFlush(ctx))
	assert.Equal(t, 1, store.saves)
}

func TestFileStore_RoundTripAndReset(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.json")
	store := NewFileStore(path)

	h, err := Load(ctx, Options{Store: store})
	require.NoError(t, err)
	assert.Empty(t, h.RecentPatterns())

	h.IncrementUsage("opening:question")
	h.RecordOutcome("opening:question", true)
	h.AppendPattern(Pattern{Opening: "question", Closing: "summary", Transitions: []string{"however"}})
	require.NoError(t, h.Flush(ctx))

	reloaded, err := Load(ctx, Options{Store: store})
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Usage("opening:question"))
	require.Len(t, reloaded.RecentPatterns(), 1)
	assert.Equal(t, []string{"however"}, reloaded.RecentPatterns()[0].Transitions)

	require.NoError(t, reloaded.Reset(ctx))
	assert.Zero(t, reloaded.Usage("opening:question"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(context.Background(), Options{Store: NewFileStore(path)})
	assert.Error(t, err)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("PAGESMITH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PAGESMITH_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, "pagesmith:test:"+t.Name())
	require.NoError(t, err)
	defer store.Close()
	defer store.Reset(ctx)

	h := New(Options{Store: store})
	h.IncrementUsage("k")
	require.NoError(t, h.Flush(ctx))

	reloaded, err := Load(ctx, Options{Store: store})
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Usage("k"))
}
