package enumerator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"pagesmith/internal/extractor"
	"pagesmith/internal/logger"
	"pagesmith/internal/model"
	"pagesmith/internal/storage"
)

// DefaultMaxCombinations guards against accidental multi-million-page runs.
const DefaultMaxCombinations = 50000

// Result is what one enumeration produced.
type Result struct {
	TotalCombinations int
	Pages             []model.PotentialPage
	Inserted          int
}

type Enumerator struct {
	store           storage.PageStore
	maxCombinations int
	logger          *logger.Logger
}

func New(store storage.PageStore, maxCombinations int, log *logger.Logger) *Enumerator {
	if maxCombinations <= 0 {
		maxCombinations = DefaultMaxCombinations
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Enumerator{store: store, maxCombinations: maxCombinations, logger: log}
}

// Enumerate expands the template over the cartesian product of its datasets
// and upserts the resulting potential pages. The first variable varies slowest.
func (e *Enumerator) Enumerate(ctx context.Context, tmpl model.Template, datasets []model.VariableDataset) (*Result, error) {
	tmpl, err := extractor.ValidateTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	columns, err := bindDatasets(tmpl.Variables, datasets)
	if err != nil {
		return nil, err
	}

	total := Count(columns)
	if total > e.maxCombinations {
		return nil, &model.CombinationLimitExceeded{Computed: total, Limit: e.maxCombinations}
	}

	pages := make([]model.PotentialPage, 0, total)
	seen := make(map[string]bool, total)
	indices := make([]int, len(columns))
	for n := 0; n < total; n++ {
		bindings := make(map[string]string, len(columns))
		for i, col := range columns {
			bindings[tmpl.Variables[i]] = col[indices[i]]
		}
		advance(indices, columns)

		id := extractor.PageID(tmpl.ID, bindings)
		if seen[id] {
			continue
		}
		seen[id] = true

		title := extractor.Substitute(tmpl.Pattern, bindings)
		pages = append(pages, model.PotentialPage{
			ID:         id,
			TemplateID: tmpl.ID,
			Bindings:   bindings,
			Title:      title,
			Slug:       extractor.Slugify(title),
			Position:   len(pages),
		})
	}
	for i := range pages {
		pages[i].Priority = len(pages) - pages[i].Position
	}

	inserted := 0
	if e.store != nil {
		inserted, err = e.store.UpsertPotentialPages(ctx, pages)
		if err != nil {
			return nil, fmt.Errorf("failed to store potential pages: %w", err)
		}
	}

	e.logger.Info("enumerated potential pages",
		"template_id", tmpl.ID,
		"total", total,
		"distinct", len(pages),
		"inserted", inserted,
	)
	return &Result{TotalCombinations: total, Pages: pages, Inserted: inserted}, nil
}

// Count multiplies the column lengths, saturating at math.MaxInt.
func Count(columns [][]string) int {
	if len(columns) == 0 {
		return 0
	}
	total := 1
	for _, col := range columns {
		n := len(col)
		if n == 0 {
			return 0
		}
		if total > math.MaxInt/n {
			return math.MaxInt
		}
		total *= n
	}
	return total
}

// advance steps the odometer; the last column varies fastest.
func advance(indices []int, columns [][]string) {
	for i := len(indices) - 1; i >= 0; i-- {
		indices[i]++
		if indices[i] < len(columns[i]) {
			return
		}
		indices[i] = 0
	}
}

// bindDatasets orders dataset values by template variable. Names match case-insensitively.
func bindDatasets(variables []string, datasets []model.VariableDataset) ([][]string, error) {
	byName := make(map[string]model.VariableDataset, len(datasets))
	for _, ds := range datasets {
		byName[strings.ToLower(strings.TrimSpace(ds.Name))] = ds
	}

	columns := make([][]string, 0, len(variables))
	for _, v := range variables {
		ds, ok := byName[strings.ToLower(v)]
		if !ok {
			return nil, &model.MissingDatasetError{Variable: v}
		}
		values := make([]string, 0, len(ds.Values))
		for _, val := range ds.Values {
			if val = strings.TrimSpace(val); val != "" {
				values = append(values, val)
			}
		}
		if len(values) == 0 {
			return nil, &model.EmptyDatasetError{Name: ds.Name}
		}
		columns = append(columns, values)
	}
	return columns, nil
}
