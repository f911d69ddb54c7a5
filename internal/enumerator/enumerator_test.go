package enumerator

import (
	"context"
	"errors"
	"math"
	"testing"

	"pagesmith/internal/model"
	"pagesmith/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serviceCityTemplate() model.Template {
	return model.Template{ID: "svc", Pattern: "{service} in {city}"}
}

func TestEnumerate_CartesianCompleteness(t *testing.T) {
	e := New(storage.NewMemoryStore(), 0, nil)

	res, err := e.Enumerate(context.Background(), serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A", "B"}},
		{Name: "city", Values: []string{"X", "Y", "Z"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCombinations)
	require.Len(t, res.Pages, 6)

	pairs := make(map[string]int)
	ids := make(map[string]bool)
	for _, p := range res.Pages {
		pairs[p.Bindings["service"]+"/"+p.Bindings["city"]]++
		ids[p.ID] = true
	}
	assert.Len(t, ids, 6)
	for _, s := range []string{"A", "B"} {
		for _, c := range []string{"X", "Y", "Z"} {
			assert.Equal(t, 1, pairs[s+"/"+c], "pair %s/%s", s, c)
		}
	}

	// First variable varies slowest.
	assert.Equal(t, "A in X", res.Pages[0].Title)
	assert.Equal(t, "A in Y", res.Pages[1].Title)
	assert.Equal(t, "B in X", res.Pages[3].Title)
	assert.Equal(t, 6, res.Pages[0].Priority)
	assert.Equal(t, 1, res.Pages[5].Priority)
}

func TestEnumerate_Deterministic(t *testing.T) {
	datasets := []model.VariableDataset{
		{Name: "service", Values: []string{"Plumbing", "Roofing"}},
		{Name: "city", Values: []string{"Austin", "Dallas"}},
	}
	first, err := New(storage.NewMemoryStore(), 0, nil).Enumerate(context.Background(), serviceCityTemplate(), datasets)
	require.NoError(t, err)
	second, err := New(storage.NewMemoryStore(), 0, nil).Enumerate(context.Background(), serviceCityTemplate(), datasets)
	require.NoError(t, err)

	require.Equal(t, len(first.Pages), len(second.Pages))
	for i := range first.Pages {
		assert.Equal(t, first.Pages[i].ID, second.Pages[i].ID)
		assert.Equal(t, first.Pages[i].Slug, second.Pages[i].Slug)
	}
}

func TestEnumerate_IdempotentReEnumeration(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	e := New(store, 0, nil)

	res, err := e.Enumerate(ctx, serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A"}},
		{Name: "city", Values: []string{"X", "Y"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inserted)
	require.NoError(t, store.MarkGenerated(ctx, []string{res.Pages[0].ID}))

	again, err := e.Enumerate(ctx, serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A"}},
		{Name: "city", Values: []string{"X", "Y", "Z"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Inserted)
	assert.Equal(t, res.Pages[0].ID, again.Pages[0].ID)
	assert.Equal(t, res.Pages[1].ID, again.Pages[1].ID)

	pages, total, err := store.ListPotentialPages(ctx, storage.PageFilter{TemplateID: "svc"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.True(t, pages[0].IsGenerated)
	assert.False(t, pages[2].IsGenerated)
}

func TestEnumerate_DuplicateValuesCollapse(t *testing.T) {
	res, err := New(nil, 0, nil).Enumerate(context.Background(), model.Template{ID: "t", Pattern: "{city}"}, []model.VariableDataset{
		{Name: "city", Values: []string{"Austin", "Austin", " Dallas "}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCombinations)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, "Dallas", res.Pages[1].Bindings["city"])
}

func TestEnumerate_LimitExceeded(t *testing.T) {
	store := storage.NewMemoryStore()
	e := New(store, 5, nil)

	_, err := e.Enumerate(context.Background(), serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A", "B"}},
		{Name: "city", Values: []string{"X", "Y", "Z"}},
	})
	var limitErr *model.CombinationLimitExceeded
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, 6, limitErr.Computed)
	assert.Equal(t, 5, limitErr.Limit)

	_, total, err := store.ListPotentialPages(context.Background(), storage.PageFilter{TemplateID: "svc"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestEnumerate_DatasetErrors(t *testing.T) {
	e := New(nil, 0, nil)

	_, err := e.Enumerate(context.Background(), serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A"}},
	})
	var missing *model.MissingDatasetError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "city", missing.Variable)

	_, err = e.Enumerate(context.Background(), serviceCityTemplate(), []model.VariableDataset{
		{Name: "service", Values: []string{"A"}},
		{Name: "city", Values: []string{" "}},
	})
	var empty *model.EmptyDatasetError
	require.True(t, errors.As(err, &empty))

	_, err = e.Enumerate(context.Background(), model.Template{ID: "t", Pattern: "Static"}, nil)
	var invalid *model.InvalidTemplateError
	require.True(t, errors.As(err, &invalid))
}

func TestEnumerate_TorontoExample(t *testing.T) {
	res, err := New(storage.NewMemoryStore(), 0, nil).Enumerate(context.Background(),
		model.Template{ID: "invest", Pattern: "{City} with Best Investment Potential"},
		[]model.VariableDataset{{Name: "city", Values: []string{"Toronto", "Vancouver", "Montreal"}}},
	)
	require.NoError(t, err)
	require.Len(t, res.Pages, 3)
	assert.Equal(t, "Toronto with Best Investment Potential", res.Pages[0].Title)
	assert.Equal(t, "Vancouver with Best Investment Potential", res.Pages[1].Title)
	assert.Equal(t, "Montreal with Best Investment Potential", res.Pages[2].Title)
	assert.Equal(t, "toronto-with-best-investment-potential", res.Pages[0].Slug)
}

func TestCount_Saturates(t *testing.T) {
	big := make([]string, 1<<20)
	assert.Equal(t, math.MaxInt, Count([][]string{big, big, big, big}))
	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 6, Count([][]string{{"a", "b"}, {"x", "y", "z"}}))
}
