package selection

import (
	"context"
	"fmt"
	"strings"

	"pagesmith/internal/model"
	"pagesmith/internal/storage"
)

const DefaultPageSize = 50

// Query describes one listing page. Page is 1-based.
type Query struct {
	TemplateID string
	Status     storage.PageStatus
	Search     string
	Page       int
	PageSize   int
}

type Listing struct {
	Pages    []model.PotentialPage
	Total    int
	Page     int
	PageSize int
}

// Selection is the resolved set of pages a batch will generate.
type Selection struct {
	Pages            []model.PotentialPage
	Unknown          []string
	AlreadyGenerated []string
}

// Gate lets an operator preview potential pages and pick a subset.
type Gate struct {
	store storage.PageStore
}

func NewGate(store storage.PageStore) *Gate {
	return &Gate{store: store}
}

func (g *Gate) List(ctx context.Context, q Query) (*Listing, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	switch q.Status {
	case storage.StatusAll, storage.StatusGenerated, storage.StatusUngenerated:
	case "all":
		q.Status = storage.StatusAll
	default:
		return nil, fmt.Errorf("unknown status filter %q", q.Status)
	}

	pages, total, err := g.store.ListPotentialPages(ctx, storage.PageFilter{
		TemplateID: q.TemplateID,
		Status:     q.Status,
		Search:     q.Search,
		Limit:      q.PageSize,
		Offset:     (q.Page - 1) * q.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list potential pages: %w", err)
	}
	return &Listing{Pages: pages, Total: total, Page: q.Page, PageSize: q.PageSize}, nil
}

// Resolve checks that ids exist and belong to the template. Input order is
// kept and duplicates collapse. Generated pages are skipped unless force is set.
func (g *Gate) Resolve(ctx context.Context, templateID string, ids []string, force bool) (*Selection, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	found, err := g.store.GetPotentialPages(ctx, templateID, unique)
	if err != nil {
		return nil, fmt.Errorf("failed to load potential pages: %w", err)
	}

	sel := &Selection{}
	for _, id := range unique {
		p, ok := found[id]
		switch {
		case !ok:
			sel.Unknown = append(sel.Unknown, id)
		case p.IsGenerated && !force:
			sel.AlreadyGenerated = append(sel.AlreadyGenerated, id)
		default:
			sel.Pages = append(sel.Pages, p)
		}
	}
	return sel, nil
}

// AllIDs lists every potential page id of a template in enumeration order.
func (g *Gate) AllIDs(ctx context.Context, templateID string, status storage.PageStatus) ([]string, error) {
	pages, _, err := g.store.ListPotentialPages(ctx, storage.PageFilter{TemplateID: templateID, Status: status})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.ID
	}
	return ids, nil
}
