package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pagesmith/internal/model"
)

// MemoryStore is an in-process Store used by tests and dry runs.
type MemoryStore struct {
	mu        sync.RWMutex
	potential map[string]model.PotentialPage
	generated map[string]model.GeneratedPage // keyed by potential page id
	jobs      map[string]model.BatchJob
	failures  map[string][]model.PageFailure
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		potential: make(map[string]model.PotentialPage),
		generated: make(map[string]model.GeneratedPage),
		jobs:      make(map[string]model.BatchJob),
		failures:  make(map[string][]model.PageFailure),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) UpsertPotentialPages(_ context.Context, pages []model.PotentialPage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, p := range pages {
		if existing, ok := m.potential[p.ID]; ok {
			p.IsGenerated = existing.IsGenerated
			p.Bindings = existing.Bindings
		} else {
			inserted++
			p.Bindings = copyBindings(p.Bindings)
		}
		m.potential[p.ID] = p
	}
	return inserted, nil
}

func (m *MemoryStore) ListPotentialPages(_ context.Context, filter PageFilter) ([]model.PotentialPage, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []model.PotentialPage
	for _, p := range m.potential {
		if p.TemplateID != filter.TemplateID {
			continue
		}
		if filter.Status == StatusGenerated && !p.IsGenerated {
			continue
		}
		if filter.Status == StatusUngenerated && p.IsGenerated {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Position != matched[j].Position {
			return matched[i].Position < matched[j].Position
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	if filter.Limit > 0 {
		start := min(max(filter.Offset, 0), total)
		end := min(start+filter.Limit, total)
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *MemoryStore) GetPotentialPages(_ context.Context, templateID string, ids []string) (map[string]model.PotentialPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]model.PotentialPage, len(ids))
	for _, id := range ids {
		if p, ok := m.potential[id]; ok && p.TemplateID == templateID {
			result[id] = p
		}
	}
	return result, nil
}

func (m *MemoryStore) MarkGenerated(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		if p, ok := m.potential[id]; ok {
			p.IsGenerated = true
			m.potential[id] = p
		}
	}
	return nil
}

func (m *MemoryStore) ClearPotentialPages(_ context.Context, templateID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, p := range m.potential {
		if p.TemplateID == templateID {
			delete(m.potential, id)
			n++
		}
	}
	return n, nil
}

// SaveGeneratedPages applies the same constraints as the SQLite schema and
// leaves the store untouched when any page violates them.
func (m *MemoryStore) SaveGeneratedPages(_ context.Context, pages []model.GeneratedPage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[string]model.GeneratedPage, len(pages))
	for _, p := range pages {
		if existing, ok := m.generated[p.PotentialPageID]; ok {
			p.ID = existing.ID
			p.CreatedAt = existing.CreatedAt
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		if owner := m.fingerprintOwner(p.TemplateID, p.Fingerprint, staged); owner != "" && owner != p.PotentialPageID {
			return fmt.Errorf("save generated page %s: fingerprint already used by %s", p.PotentialPageID, owner)
		}
		staged[p.PotentialPageID] = p
	}
	for id, p := range staged {
		m.generated[id] = p
	}
	return nil
}

func (m *MemoryStore) fingerprintOwner(templateID, fingerprint string, staged map[string]model.GeneratedPage) string {
	for id, p := range staged {
		if p.TemplateID == templateID && p.Fingerprint == fingerprint {
			return id
		}
	}
	for id, p := range m.generated {
		if _, replaced := staged[id]; replaced {
			continue
		}
		if p.TemplateID == templateID && p.Fingerprint == fingerprint {
			return id
		}
	}
	return ""
}

func (m *MemoryStore) GetGeneratedPage(_ context.Context, potentialPageID string) (*model.GeneratedPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.generated[potentialPageID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) FindByFingerprint(_ context.Context, templateID, fingerprint string) (*model.GeneratedPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.generated {
		if p.TemplateID == templateID && p.Fingerprint == fingerprint {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) ListGeneratedPages(_ context.Context, templateID string) ([]model.GeneratedPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pages []model.GeneratedPage
	for _, p := range m.generated {
		if p.TemplateID == templateID {
			pages = append(pages, p)
		}
	}
	sort.Slice(pages, func(i, j int) bool {
		if !pages[i].CreatedAt.Equal(pages[j].CreatedAt) {
			return pages[i].CreatedAt.Before(pages[j].CreatedAt)
		}
		return pages[i].ID < pages[j].ID
	})
	return pages, nil
}

func (m *MemoryStore) SaveJob(_ context.Context, job model.BatchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.jobs[job.ID]; ok && job.StartedAt.IsZero() {
		job.StartedAt = existing.StartedAt
	}
	m.jobs[job.ID] = job
	return nil
}

func (m *MemoryStore) GetJob(_ context.Context, id string) (*model.BatchJob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &job, nil
}

func (m *MemoryStore) SaveJobFailures(_ context.Context, jobID string, failures []model.PageFailure) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.failures[jobID]
	index := make(map[string]int, len(existing))
	for i, f := range existing {
		index[f.ID] = i
	}
	for _, f := range failures {
		if i, ok := index[f.ID]; ok {
			existing[i].Reason = f.Reason
			continue
		}
		index[f.ID] = len(existing)
		existing = append(existing, f)
	}
	m.failures[jobID] = existing
	return nil
}

func (m *MemoryStore) ListJobFailures(_ context.Context, jobID string) ([]model.PageFailure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.PageFailure, len(m.failures[jobID]))
	copy(out, m.failures[jobID])
	return out, nil
}

func copyBindings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
