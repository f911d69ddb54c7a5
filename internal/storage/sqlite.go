package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"pagesmith/internal/model"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// The orchestrator persists from one goroutine; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS potential_pages (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			bindings JSON,
			title TEXT,
			slug TEXT,
			is_generated INTEGER NOT NULL DEFAULT 0,
			priority INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_potential_template ON potential_pages(template_id, position);`,
		`CREATE TABLE IF NOT EXISTS generated_pages (
			id TEXT PRIMARY KEY,
			potential_page_id TEXT NOT NULL UNIQUE,
			template_id TEXT NOT NULL,
			title TEXT,
			slug TEXT,
			sections JSON,
			metrics JSON,
			variation JSON,
			fingerprint TEXT NOT NULL,
			flagged INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			UNIQUE (template_id, fingerprint)
		);`,
		`CREATE TABLE IF NOT EXISTS batch_jobs (
			id TEXT PRIMARY KEY,
			template_id TEXT,
			status TEXT,
			total INTEGER,
			processed INTEGER,
			succeeded INTEGER,
			failed INTEGER,
			skipped_duplicate INTEGER,
			started_at TIMESTAMP,
			updated_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS job_failures (
			job_id TEXT,
			page_id TEXT,
			reason TEXT,
			PRIMARY KEY (job_id, page_id)
		);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- PageStore Implementation ---

func (s *SQLiteStore) UpsertPotentialPages(ctx context.Context, pages []model.PotentialPage) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	existsStmt, err := tx.PrepareContext(ctx, `SELECT 1 FROM potential_pages WHERE id = ?`)
	if err != nil {
		return 0, err
	}
	defer existsStmt.Close()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO potential_pages (id, template_id, bindings, title, slug, is_generated, priority, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title=excluded.title,
			slug=excluded.slug,
			priority=excluded.priority,
			position=excluded.position
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range pages {
		var one int
		switch err := existsStmt.QueryRowContext(ctx, p.ID).Scan(&one); {
		case errors.Is(err, sql.ErrNoRows):
			inserted++
		case err != nil:
			return 0, fmt.Errorf("check potential page %s: %w", p.ID, err)
		}

		bindings, err := json.Marshal(p.Bindings)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.TemplateID, string(bindings), p.Title, p.Slug, boolInt(p.IsGenerated), p.Priority, p.Position); err != nil {
			return 0, fmt.Errorf("upsert potential page %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// likeEscaper makes search text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *SQLiteStore) ListPotentialPages(ctx context.Context, filter PageFilter) ([]model.PotentialPage, int, error) {
	where := sq.And{sq.Eq{"template_id": filter.TemplateID}}
	switch filter.Status {
	case StatusGenerated:
		where = append(where, sq.Eq{"is_generated": 1})
	case StatusUngenerated:
		where = append(where, sq.Eq{"is_generated": 0})
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		where = append(where, sq.Expr(`lower(title) LIKE ? ESCAPE '\'`, pattern))
	}

	countSQL, countArgs, err := sq.Select("COUNT(*)").From("potential_pages").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count potential pages: %w", err)
	}

	query := potentialSelect().Where(where).OrderBy("position ASC", "id ASC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit)).Offset(uint64(max(filter.Offset, 0)))
	}
	pages, err := s.queryPotential(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return pages, total, nil
}

func (s *SQLiteStore) GetPotentialPages(ctx context.Context, templateID string, ids []string) (map[string]model.PotentialPage, error) {
	result := make(map[string]model.PotentialPage, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	pages, err := s.queryPotential(ctx, potentialSelect().Where(sq.Eq{"template_id": templateID, "id": ids}))
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		result[p.ID] = p
	}
	return result, nil
}

func (s *SQLiteStore) MarkGenerated(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sq.Update("potential_pages").Set("is_generated", 1).Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) ClearPotentialPages(ctx context.Context, templateID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM potential_pages WHERE template_id = ?`, templateID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func potentialSelect() sq.SelectBuilder {
	return sq.Select("id", "template_id", "bindings", "title", "slug", "is_generated", "priority", "position").From("potential_pages")
}

func (s *SQLiteStore) queryPotential(ctx context.Context, b sq.SelectBuilder) ([]model.PotentialPage, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query potential pages: %w", err)
	}
	defer rows.Close()

	var pages []model.PotentialPage
	for rows.Next() {
		var p model.PotentialPage
		var bindings []byte
		var generated int
		if err := rows.Scan(&p.ID, &p.TemplateID, &bindings, &p.Title, &p.Slug, &generated, &p.Priority, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan potential page: %w", err)
		}
		if len(bindings) > 0 {
			if err := json.Unmarshal(bindings, &p.Bindings); err != nil {
				return nil, fmt.Errorf("decode bindings of %s: %w", p.ID, err)
			}
		}
		p.IsGenerated = generated != 0
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// --- GeneratedStore Implementation ---

func (s *SQLiteStore) SaveGeneratedPages(ctx context.Context, pages []model.GeneratedPage) error {
	if len(pages) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generated_pages (id, potential_page_id, template_id, title, slug, sections, metrics, variation, fingerprint, flagged, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(potential_page_id) DO UPDATE SET
			title=excluded.title,
			slug=excluded.slug,
			sections=excluded.sections,
			metrics=excluded.metrics,
			variation=excluded.variation,
			fingerprint=excluded.fingerprint,
			flagged=excluded.flagged,
			updated_at=excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range pages {
		sections, err := json.Marshal(p.Sections)
		if err != nil {
			return err
		}
		metrics, err := json.Marshal(p.Metrics)
		if err != nil {
			return err
		}
		variation, err := json.Marshal(p.Variation)
		if err != nil {
			return err
		}
		created, updated := p.CreatedAt, p.UpdatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		if updated.IsZero() {
			updated = created
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.PotentialPageID, p.TemplateID, p.Title, p.Slug,
			string(sections), string(metrics), string(variation), p.Fingerprint, boolInt(p.Flagged), created, updated); err != nil {
			return fmt.Errorf("save generated page %s: %w", p.PotentialPageID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetGeneratedPage(ctx context.Context, potentialPageID string) (*model.GeneratedPage, error) {
	return s.queryOneGenerated(ctx, generatedSelect().Where(sq.Eq{"potential_page_id": potentialPageID}))
}

func (s *SQLiteStore) FindByFingerprint(ctx context.Context, templateID, fingerprint string) (*model.GeneratedPage, error) {
	return s.queryOneGenerated(ctx, generatedSelect().Where(sq.Eq{"template_id": templateID, "fingerprint": fingerprint}))
}

func (s *SQLiteStore) ListGeneratedPages(ctx context.Context, templateID string) ([]model.GeneratedPage, error) {
	return s.queryGenerated(ctx, generatedSelect().Where(sq.Eq{"template_id": templateID}).OrderBy("created_at ASC", "id ASC"))
}

func generatedSelect() sq.SelectBuilder {
	return sq.Select("id", "potential_page_id", "template_id", "title", "slug", "sections", "metrics", "variation", "fingerprint", "flagged", "created_at", "updated_at").
		From("generated_pages")
}

func (s *SQLiteStore) queryOneGenerated(ctx context.Context, b sq.SelectBuilder) (*model.GeneratedPage, error) {
	pages, err := s.queryGenerated(ctx, b.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNotFound
	}
	return &pages[0], nil
}

func (s *SQLiteStore) queryGenerated(ctx context.Context, b sq.SelectBuilder) ([]model.GeneratedPage, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generated pages: %w", err)
	}
	defer rows.Close()

	var pages []model.GeneratedPage
	for rows.Next() {
		var p model.GeneratedPage
		var sections, metrics, variation []byte
		var flagged int
		if err := rows.Scan(&p.ID, &p.PotentialPageID, &p.TemplateID, &p.Title, &p.Slug,
			&sections, &metrics, &variation, &p.Fingerprint, &flagged, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generated page: %w", err)
		}
		if err := decodeJSON(sections, &p.Sections); err != nil {
			return nil, err
		}
		if err := decodeJSON(metrics, &p.Metrics); err != nil {
			return nil, err
		}
		if err := decodeJSON(variation, &p.Variation); err != nil {
			return nil, err
		}
		p.Flagged = flagged != 0
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// --- JobStore Implementation ---

func (s *SQLiteStore) SaveJob(ctx context.Context, job model.BatchJob) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batch_jobs (id, template_id, status, total, processed, succeeded, failed, skipped_duplicate, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			total=excluded.total,
			processed=excluded.processed,
			succeeded=excluded.succeeded,
			failed=excluded.failed,
			skipped_duplicate=excluded.skipped_duplicate,
			updated_at=excluded.updated_at
	`, job.ID, job.TemplateID, string(job.Status), job.Total, job.Processed, job.Succeeded, job.Failed, job.SkippedDuplicate, job.StartedAt, job.UpdatedAt)
	return err
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.BatchJob, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, template_id, status, total, processed, succeeded, failed, skipped_duplicate, started_at, updated_at
		FROM batch_jobs WHERE id = ?`, id)

	var job model.BatchJob
	var status string
	err := row.Scan(&job.ID, &job.TemplateID, &status, &job.Total, &job.Processed, &job.Succeeded, &job.Failed, &job.SkippedDuplicate, &job.StartedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	return &job, nil
}

func (s *SQLiteStore) SaveJobFailures(ctx context.Context, jobID string, failures []model.PageFailure) error {
	if len(failures) == 0 {
		return nil
	}
	b := sq.Insert("job_failures").Columns("job_id", "page_id", "reason").Suffix("ON CONFLICT(job_id, page_id) DO UPDATE SET reason=excluded.reason")
	for _, f := range failures {
		b = b.Values(jobID, f.ID, f.Reason)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLiteStore) ListJobFailures(ctx context.Context, jobID string) ([]model.PageFailure, error) {
	query, args, err := sq.Select("page_id", "reason").From("job_failures").Where(sq.Eq{"job_id": jobID}).OrderBy("rowid ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failures []model.PageFailure
	for rows.Next() {
		var f model.PageFailure
		if err := rows.Scan(&f.ID, &f.Reason); err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func decodeJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
