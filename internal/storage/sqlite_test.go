package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pagesmith/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newMemory(t *testing.T) Store {
	t.Helper()
	return NewMemoryStore()
}

// forEachStore runs the same contract against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store Store)) {
	for name, factory := range map[string]func(*testing.T) Store{
		"sqlite": newSQLite,
		"memory": newMemory,
	} {
		t.Run(name, func(t *testing.T) {
			fn(t, factory(t))
		})
	}
}

func testPages(templateID string, cities ...string) []model.PotentialPage {
	pages := make([]model.PotentialPage, 0, len(cities))
	for i, city := range cities {
		pages = append(pages, model.PotentialPage{
			ID:         fmt.Sprintf("pp_%s_%d", templateID, i),
			TemplateID: templateID,
			Bindings:   map[string]string{"City": city},
			Title:      city + " with Best Investment Potential",
			Slug:       "slug-" + city,
			Priority:   len(cities) - i,
			Position:   i,
		})
	}
	return pages
}

func testGenerated(p model.PotentialPage, fingerprint string) model.GeneratedPage {
	return model.GeneratedPage{
		ID:              "gen-" + p.ID,
		PotentialPageID: p.ID,
		TemplateID:      p.TemplateID,
		Title:           p.Title,
		Slug:            p.Slug,
		Sections:        []model.Section{{Heading: "Overview", Body: "Body for " + p.Title}},
		Metrics:         model.QualityMetrics{WordCount: 320, Score: 80, Passed: true},
		Variation:       model.VariationMetadata{ContentType: "generic", Strategy: "pattern_based", Attempts: 1},
		Fingerprint:     fingerprint,
	}
}

func TestStore_UpsertPotentialPages_KeepsGeneratedFlag(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		pages := testPages("t1", "Toronto", "Vancouver")

		inserted, err := store.UpsertPotentialPages(ctx, pages)
		require.NoError(t, err)
		assert.Equal(t, 2, inserted)

		require.NoError(t, store.MarkGenerated(ctx, []string{pages[0].ID}))

		pages[0].Title = "Toronto (renamed)"
		inserted, err = store.UpsertPotentialPages(ctx, pages)
		require.NoError(t, err)
		assert.Equal(t, 0, inserted)

		got, err := store.GetPotentialPages(ctx, "t1", []string{pages[0].ID, pages[1].ID, "missing"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[pages[0].ID].IsGenerated)
		assert.Equal(t, "Toronto (renamed)", got[pages[0].ID].Title)
		assert.Equal(t, "Toronto", got[pages[0].ID].Bindings["City"])
		assert.False(t, got[pages[1].ID].IsGenerated)
	})
}

func TestStore_ListPotentialPages_Filters(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		pages := testPages("t1", "Toronto", "Vancouver", "Montreal", "Ottawa")
		_, err := store.UpsertPotentialPages(ctx, pages)
		require.NoError(t, err)
		_, err = store.UpsertPotentialPages(ctx, testPages("other", "Calgary"))
		require.NoError(t, err)
		require.NoError(t, store.MarkGenerated(ctx, []string{pages[1].ID}))

		all, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1"})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, all, 4)
		assert.Equal(t, pages[0].ID, all[0].ID)
		assert.Equal(t, pages[3].ID, all[3].ID)

		generated, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1", Status: StatusGenerated})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, pages[1].ID, generated[0].ID)

		_, total, err = store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1", Status: StatusUngenerated})
		require.NoError(t, err)
		assert.Equal(t, 3, total)

		found, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1", Search: "MONT"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Montreal", found[0].Bindings["City"])

		paged, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1", Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, paged, 2)
		assert.Equal(t, pages[2].ID, paged[0].ID)
	})
}

func TestStore_ListPotentialPages_SearchIsLiteral(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		_, err := store.UpsertPotentialPages(ctx, testPages("t1", "50% Off", "500 Deals", "a_b", "axb", `c\d`))
		require.NoError(t, err)

		for search, want := range map[string]string{"50%": "50% Off", "a_b": "a_b", `c\d`: `c\d`} {
			found, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t1", Search: search})
			require.NoError(t, err)
			require.Equal(t, 1, total, search)
			assert.Equal(t, want, found[0].Bindings["City"])
		}
	})
}

func TestStore_ClearPotentialPages(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		_, err := store.UpsertPotentialPages(ctx, testPages("t1", "A", "B"))
		require.NoError(t, err)
		_, err = store.UpsertPotentialPages(ctx, testPages("t2", "C"))
		require.NoError(t, err)

		n, err := store.ClearPotentialPages(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, total, err := store.ListPotentialPages(ctx, PageFilter{TemplateID: "t2"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
	})
}

func TestStore_SaveGeneratedPages_UpsertKeepsRowID(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		p := testPages("t1", "Toronto")[0]

		first := testGenerated(p, "fp-1")
		first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.SaveGeneratedPages(ctx, []model.GeneratedPage{first}))

		second := testGenerated(p, "fp-2")
		second.ID = "gen-other"
		second.CreatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		second.UpdatedAt = second.CreatedAt
		second.Flagged = true
		require.NoError(t, store.SaveGeneratedPages(ctx, []model.GeneratedPage{second}))

		got, err := store.GetGeneratedPage(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, got.ID)
		assert.Equal(t, "fp-2", got.Fingerprint)
		assert.True(t, got.Flagged)
		assert.True(t, got.CreatedAt.Equal(first.CreatedAt))
		assert.Equal(t, "Overview", got.Sections[0].Heading)
		assert.Equal(t, 320, got.Metrics.WordCount)
		assert.Equal(t, "pattern_based", got.Variation.Strategy)

		list, err := store.ListGeneratedPages(ctx, "t1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestStore_SaveGeneratedPages_RejectsDuplicateFingerprint(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		pages := testPages("t1", "Toronto", "Vancouver", "Montreal")

		require.NoError(t, store.SaveGeneratedPages(ctx, []model.GeneratedPage{testGenerated(pages[0], "same")}))

		err := store.SaveGeneratedPages(ctx, []model.GeneratedPage{
			testGenerated(pages[2], "unique"),
			testGenerated(pages[1], "same"),
		})
		require.Error(t, err)

		// The whole batch is rolled back.
		_, err = store.GetGeneratedPage(ctx, pages[2].ID)
		assert.ErrorIs(t, err, ErrNotFound)

		hit, err := store.FindByFingerprint(ctx, "t1", "same")
		require.NoError(t, err)
		assert.Equal(t, pages[0].ID, hit.PotentialPageID)

		_, err = store.FindByFingerprint(ctx, "t2", "same")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_Jobs(t *testing.T) {
	forEachStore(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		_, err := store.GetJob(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)

		job := model.BatchJob{ID: "job-1", TemplateID: "t1", Status: model.JobRunning, Total: 10, StartedAt: now, UpdatedAt: now}
		require.NoError(t, store.SaveJob(ctx, job))

		job.Processed, job.Succeeded, job.Failed = 10, 9, 1
		job.Status = model.JobCompleted
		require.NoError(t, store.SaveJob(ctx, job))

		got, err := store.GetJob(ctx, "job-1")
		require.NoError(t, err)
		assert.Equal(t, model.JobCompleted, got.Status)
		assert.Equal(t, 9, got.Succeeded)
		assert.Equal(t, 1, got.Failed)

		require.NoError(t, store.SaveJobFailures(ctx, "job-1", []model.PageFailure{
			{ID: "pp_a", Reason: "boom"},
			{ID: "pp_b", Reason: "unknown page"},
		}))
		require.NoError(t, store.SaveJobFailures(ctx, "job-1", []model.PageFailure{{ID: "pp_a", Reason: "boom again"}}))

		failures, err := store.ListJobFailures(ctx, "job-1")
		require.NoError(t, err)
		require.Len(t, failures, 2)
		assert.Equal(t, "pp_a", failures[0].ID)
		assert.Equal(t, "boom again", failures[0].Reason)
		assert.Equal(t, "pp_b", failures[1].ID)
	})
}
