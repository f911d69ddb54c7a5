package rotation

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"pagesmith/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tones = []string{"friendly", "authoritative", "analytical", "conversational"}

func newEngine(opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(1, 2))
	}
	return New(history.New(history.Options{}), opts)
}

func TestLeastUsed_Fairness(t *testing.T) {
	e := newEngine(Options{})
	counts := make(map[string]int)
	for i := 0; i < 100; i++ {
		choice, err := e.Select("tone", tones, LeastUsed)
		require.NoError(t, err)
		counts[choice]++
	}

	lo, hi := 100, 0
	for _, opt := range tones {
		lo = min(lo, counts[opt])
		hi = max(hi, counts[opt])
	}
	assert.LessOrEqual(t, hi-lo, 1)
}

func TestLeastUsed_FairUnderConcurrentSelects(t *testing.T) {
	for trial := 0; trial < 200; trial++ {
		e := newEngine(Options{})
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.Select("opening", tones, LeastUsed)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		lo, hi := 100, 0
		for _, opt := range tones {
			u := e.History().Usage(Key("opening", opt))
			lo = min(lo, u)
			hi = max(hi, u)
		}
		require.LessOrEqual(t, hi-lo, 1, "trial %d", trial)
	}
}

func TestLeastUsed_TiesByInsertionOrder(t *testing.T) {
	e := newEngine(Options{})
	first, err := e.Select("tone", tones, LeastUsed)
	require.NoError(t, err)
	second, err := e.Select("tone", tones, LeastUsed)
	require.NoError(t, err)
	assert.Equal(t, "friendly", first)
	assert.Equal(t, "authoritative", second)
}

func TestSequential_RoundRobin(t *testing.T) {
	e := newEngine(Options{})
	var got []string
	for i := 0; i < 6; i++ {
		choice, err := e.Select("opening", tones, Sequential)
		require.NoError(t, err)
		got = append(got, choice)
	}
	assert.Equal(t, []string{"friendly", "authoritative", "analytical", "conversational", "friendly", "authoritative"}, got)
}

func TestWeightedRandom_FavorsUnused(t *testing.T) {
	e := newEngine(Options{})
	h := e.History()
	for _, opt := range tones[:3] {
		for i := 0; i < 1000; i++ {
			h.IncrementUsage(Key("tone", opt))
		}
	}

	r := rand.New(rand.NewPCG(7, 7))
	fresh := 0
	for i := 0; i < 10; i++ {
		choice, err := e.SelectWith(r, "tone", tones, WeightedRandom)
		require.NoError(t, err)
		if choice == "conversational" {
			fresh++
		}
	}
	assert.GreaterOrEqual(t, fresh, 8)
	assert.Equal(t, fresh, h.Usage(Key("tone", "conversational")))
}

func TestPerformanceBased_PrefersSuccessfulOptions(t *testing.T) {
	e := newEngine(Options{})
	for i := 0; i < 40; i++ {
		e.RecordPerformance("tone", "friendly", true, nil)
		e.RecordPerformance("tone", "authoritative", false, nil)
	}
	assert.InDelta(t, 0.5, SuccessRate(e.History(), Key("tone", "analytical")), 1e-9)

	counts := make(map[string]int)
	for i := 0; i < 400; i++ {
		choice, err := e.Select("tone", []string{"friendly", "authoritative"}, PerformanceBased)
		require.NoError(t, err)
		counts[choice]++
	}
	assert.Greater(t, counts["friendly"], counts["authoritative"]*5)
}

func TestTimeBased_UsesWindowIndex(t *testing.T) {
	now := time.Unix(3*3600+10, 0)
	e := newEngine(Options{Now: func() time.Time { return now }, TimeWindow: time.Hour})

	choice, err := e.Select("tone", tones, TimeBased)
	require.NoError(t, err)
	assert.Equal(t, tones[3], choice)

	now = now.Add(time.Hour)
	choice, err = e.Select("tone", tones, TimeBased)
	require.NoError(t, err)
	assert.Equal(t, tones[0], choice)
}

func TestTimeBased_SubSecondWindow(t *testing.T) {
	now := time.Unix(0, int64(1500*time.Millisecond))
	e := newEngine(Options{Now: func() time.Time { return now }, TimeWindow: 500 * time.Millisecond})

	choice, err := e.Select("tone", tones, TimeBased)
	require.NoError(t, err)
	assert.Equal(t, tones[3], choice)

	now = now.Add(500 * time.Millisecond)
	choice, err = e.Select("tone", tones, TimeBased)
	require.NoError(t, err)
	assert.Equal(t, tones[0], choice)
}

func TestSelect_CountsUsageAndHandlesEdgeCases(t *testing.T) {
	e := newEngine(Options{})

	_, err := e.Select("tone", nil, LeastUsed)
	assert.ErrorIs(t, err, ErrNoOptions)

	choice, err := e.Select("tone", tones, Strategy("nonsense"))
	require.NoError(t, err)
	assert.Equal(t, "friendly", choice)
	assert.Equal(t, 1, e.History().Usage(Key("tone", "friendly")))

	assert.Equal(t, LeastUsed, ParseStrategy("bogus"))
	assert.Equal(t, TimeBased, ParseStrategy(" Time_Based "))
}

func TestClose_FlushesHistory(t *testing.T) {
	store := history.NewFileStore(t.TempDir() + "/history.json")
	h := history.New(history.Options{Store: store})
	e := New(h, Options{})

	_, err := e.Select("tone", tones, LeastUsed)
	require.NoError(t, err)
	require.NoError(t, e.Close(context.Background()))

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Usage[Key("tone", "friendly")])
}
