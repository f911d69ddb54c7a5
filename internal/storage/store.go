package storage

import (
	"context"
	"errors"

	"pagesmith/internal/model"
)

// ErrNotFound is returned by single-record lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store combines every persistence capability the engine needs.
type Store interface {
	PageStore
	GeneratedStore
	JobStore
	Close() error
}

// PageStatus filters potential pages by generation state.
type PageStatus string

const (
	StatusAll         PageStatus = ""
	StatusGenerated   PageStatus = "generated"
	StatusUngenerated PageStatus = "ungenerated"
)

// PageFilter narrows ListPotentialPages. Limit <= 0 means no limit.
type PageFilter struct {
	TemplateID string
	Status     PageStatus
	Search     string
	Limit      int
	Offset     int
}

// PageStore persists potential pages produced by enumeration.
type PageStore interface {
	// UpsertPotentialPages inserts new pages and refreshes title, slug, priority
	// and position of existing ones. IsGenerated is never overwritten.
	UpsertPotentialPages(ctx context.Context, pages []model.PotentialPage) (inserted int, err error)

	// ListPotentialPages returns one page of results in enumeration order plus the total match count.
	ListPotentialPages(ctx context.Context, filter PageFilter) ([]model.PotentialPage, int, error)

	// GetPotentialPages loads pages of a template by id; missing ids are absent from the map.
	GetPotentialPages(ctx context.Context, templateID string, ids []string) (map[string]model.PotentialPage, error)

	// MarkGenerated flips IsGenerated for the given ids.
	MarkGenerated(ctx context.Context, ids []string) error

	// ClearPotentialPages bulk-deletes the potential pages of a template.
	ClearPotentialPages(ctx context.Context, templateID string) (int, error)
}

// GeneratedStore persists generated pages. There is at most one row per
// potential page and at most one row per (template, fingerprint).
type GeneratedStore interface {
	// SaveGeneratedPages upserts pages by potential page id in a single transaction.
	SaveGeneratedPages(ctx context.Context, pages []model.GeneratedPage) error

	GetGeneratedPage(ctx context.Context, potentialPageID string) (*model.GeneratedPage, error)
	FindByFingerprint(ctx context.Context, templateID, fingerprint string) (*model.GeneratedPage, error)
	ListGeneratedPages(ctx context.Context, templateID string) ([]model.GeneratedPage, error)
}

// JobStore persists batch job progress and per-page failures.
type JobStore interface {
	SaveJob(ctx context.Context, job model.BatchJob) error
	GetJob(ctx context.Context, id string) (*model.BatchJob, error)
	SaveJobFailures(ctx context.Context, jobID string, failures []model.PageFailure) error
	ListJobFailures(ctx context.Context, jobID string) ([]model.PageFailure, error)
}
