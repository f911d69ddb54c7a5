package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"pagesmith/internal/extractor"
	"pagesmith/internal/generator"
	"pagesmith/internal/logger"
	"pagesmith/internal/model"
	"pagesmith/internal/rotation"
	"pagesmith/internal/selection"
	"pagesmith/internal/storage"
	"pagesmith/internal/uniqueness"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 50
	DefaultWorkers   = 4
)

// Policy decides what happens when a force-regenerated page already has a row.
type Policy string

const (
	PolicyUpdate Policy = "update"
	PolicyReject Policy = "reject"
)

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeDuplicate = "skipped_duplicate"
)

// PageGenerator produces content for one potential page.
type PageGenerator interface {
	Generate(ctx context.Context, req generator.Request) (*generator.Output, error)
}

type Config struct {
	BatchSize  int
	Workers    int
	Policy     Policy
	ReportPath string
}

type Deps struct {
	Store     storage.Store
	Generator PageGenerator
	// Rotation, when set, is flushed at the end of every run.
	Rotation *rotation.Engine
	Logger   *logger.Logger
	Now      func() time.Time
}

type Orchestrator struct {
	store    storage.Store
	gate     *selection.Gate
	gen      PageGenerator
	rotation *rotation.Engine
	cfg      Config
	logger   *logger.Logger
	now      func() time.Time
}

func New(deps Deps, cfg Config) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{
		store:    deps.Store,
		gate:     selection.NewGate(deps.Store),
		gen:      deps.Generator,
		rotation: deps.Rotation,
		cfg:      cfg,
		logger:   deps.Logger,
		now:      deps.Now,
	}
}

// Request selects pages of one template to generate. Zero-valued overrides
// fall back to the orchestrator Config.
type Request struct {
	Template   model.Template
	IDs        []string
	Force      bool
	BatchSize  int
	Workers    int
	Policy     Policy
	ReportPath string
	// OnBatch observes job progress after each persisted batch.
	OnBatch func(model.BatchJob)
}

type Result struct {
	JobID            string
	Succeeded        []string
	Failed           []model.PageFailure
	SkippedDuplicate []string
	SkippedGenerated []string
	Flagged          []string
	Cancelled        bool
}

// FailedIDs lists the ids worth re-running.
func (r *Result) FailedIDs() []string {
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = f.ID
	}
	return ids
}

type pageResult struct {
	page model.PotentialPage
	out  *generator.Output
	err  error
}

// runState is owned by the Run goroutine; workers only write their own slot
// of a batch result slice.
type runState struct {
	req       Request
	job       model.BatchJob
	result    *Result
	claimed   map[string]string
	report    *RunReport
	intensity uniqueness.Intensity
}

// Run generates the requested pages batch by batch. Only an invalid template or
// a failure to create the job aborts the run; every per-page problem ends up
// in Result.Failed. Cancellation is honoured between batches: a batch that has
// started is generated and persisted in full.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	tmpl, err := extractor.ValidateTemplate(req.Template)
	if err != nil {
		return nil, err
	}
	req.Template = tmpl
	req = o.withDefaults(req)
	ids := dedupe(req.IDs)

	now := o.now().UTC()
	st := &runState{
		req: req,
		job: model.BatchJob{
			ID:         uuid.NewString(),
			TemplateID: tmpl.ID,
			Status:     model.JobRunning,
			Total:      len(ids),
			StartedAt:  now,
			UpdatedAt:  now,
		},
		claimed:   make(map[string]string),
		intensity: uniqueness.IntensityFor(len(ids)),
	}
	st.result = &Result{JobID: st.job.ID}
	st.report = NewRunReport(st.job.ID, tmpl.ID)
	if err := o.store.SaveJob(ctx, st.job); err != nil {
		return nil, fmt.Errorf("failed to create batch job: %w", err)
	}

	log := o.logger.With("job_id", st.job.ID, "template_id", tmpl.ID)
	log.Info("generation started", "pages", len(ids), "batch_size", req.BatchSize, "workers", req.Workers, "force", req.Force, "intensity", st.intensity)

	for start := 0; start < len(ids); start += req.BatchSize {
		if ctx.Err() != nil {
			st.result.Cancelled = true
			st.report.AddSignal("run_cancelled", "run", "warning", "generation cancelled between batches", float64(st.job.Processed))
			break
		}
		end := min(start+req.BatchSize, len(ids))
		o.runBatch(context.WithoutCancel(ctx), st, start/req.BatchSize+1, ids[start:end], log)
	}

	bg := context.WithoutCancel(ctx)
	st.job.Status = model.JobCompleted
	if st.result.Cancelled {
		st.job.Status = model.JobCancelled
	}
	st.job.UpdatedAt = o.now().UTC()
	if err := o.store.SaveJob(bg, st.job); err != nil {
		log.Error("failed to save final job state", "error", err)
	}
	if o.rotation != nil {
		if err := o.rotation.Close(bg); err != nil {
			log.Warn("variation history flush failed", "error", err)
		}
	}
	if req.ReportPath != "" {
		if err := st.report.Save(req.ReportPath); err != nil {
			log.Warn("failed to write run report", "path", req.ReportPath, "error", err)
		}
	}

	log.Info("generation finished",
		"status", st.job.Status,
		"succeeded", len(st.result.Succeeded),
		"failed", len(st.result.Failed),
		"skipped_duplicate", len(st.result.SkippedDuplicate),
		"skipped_generated", len(st.result.SkippedGenerated),
		"flagged", len(st.result.Flagged),
	)
	return st.result, nil
}

// Progress returns the persisted state of a job.
func (o *Orchestrator) Progress(ctx context.Context, jobID string) (*model.BatchJob, error) {
	return o.store.GetJob(ctx, jobID)
}

func (o *Orchestrator) withDefaults(req Request) Request {
	if req.BatchSize <= 0 {
		req.BatchSize = o.cfg.BatchSize
	}
	if req.BatchSize <= 0 {
		req.BatchSize = DefaultBatchSize
	}
	if req.Workers <= 0 {
		req.Workers = o.cfg.Workers
	}
	if req.Workers <= 0 {
		req.Workers = DefaultWorkers
	}
	if req.Policy == "" {
		req.Policy = o.cfg.Policy
	}
	if req.Policy != PolicyReject {
		req.Policy = PolicyUpdate
	}
	if req.ReportPath == "" {
		req.ReportPath = o.cfg.ReportPath
	}
	return req
}

func (o *Orchestrator) runBatch(ctx context.Context, st *runState, n int, ids []string, log *logger.Logger) {
	stage := st.report.BeginStage(fmt.Sprintf("batch-%d", n))
	var failures []model.PageFailure
	fail := func(id, reason string) {
		failures = append(failures, model.PageFailure{ID: id, Reason: reason})
		st.report.AddPage(PageMetric{PageID: id, Outcome: outcomeFailed})
	}

	sel, err := o.gate.Resolve(ctx, st.req.Template.ID, ids, st.req.Force)
	if err != nil {
		for _, id := range ids {
			fail(id, err.Error())
		}
		o.finishBatch(ctx, st, len(ids), 0, failures, log)
		st.report.EndStage(stage, "error", nil, nil, err)
		return
	}
	for _, id := range sel.Unknown {
		fail(id, (&model.UnknownPageError{ID: id, TemplateID: st.req.Template.ID}).Error())
	}
	st.result.SkippedGenerated = append(st.result.SkippedGenerated, sel.AlreadyGenerated...)

	pages, duplicates := sel.Pages, 0
	if st.req.Policy == PolicyReject {
		var rejected []string
		pages, rejected, err = o.withoutExistingRows(ctx, sel.Pages)
		if err != nil {
			for _, p := range sel.Pages {
				fail(p.ID, err.Error())
			}
			pages = nil
		}
		for _, id := range rejected {
			log.Warn("existing page kept under reject policy", "page_id", id)
			st.result.SkippedDuplicate = append(st.result.SkippedDuplicate, id)
			st.report.AddPage(PageMetric{PageID: id, Outcome: outcomeDuplicate})
		}
		duplicates = len(rejected)
	}

	results := o.generate(ctx, st, pages)

	var toSave []model.GeneratedPage
	pending := make(map[string]PageMetric)
	for _, r := range results {
		if r.err != nil {
			fail(r.page.ID, r.err.Error())
			continue
		}
		gp := r.out.Page
		metric := pageMetric(r.out)

		if dup, err := o.duplicateOf(ctx, st, r.page, gp); err != nil {
			fail(r.page.ID, err.Error())
			continue
		} else if dup != nil {
			log.Warn("duplicate content skipped", "page_id", r.page.ID, "error", dup)
			st.result.SkippedDuplicate = append(st.result.SkippedDuplicate, r.page.ID)
			duplicates++
			metric.Outcome = outcomeDuplicate
			st.report.AddPage(metric)
			continue
		}

		st.claimed[gp.Fingerprint] = r.page.ID
		toSave = append(toSave, gp)
		metric.Outcome = outcomeSucceeded
		pending[r.page.ID] = metric
	}

	saved, saveFailures := o.persist(ctx, toSave, log)
	for _, f := range saveFailures {
		delete(st.claimed, f.fingerprint)
		fail(f.id, f.reason)
	}
	for _, id := range saved {
		metric := pending[id]
		st.report.AddPage(metric)
		st.result.Succeeded = append(st.result.Succeeded, id)
		if metric.Flagged {
			st.result.Flagged = append(st.result.Flagged, id)
		}
	}

	o.finishBatch(ctx, st, len(ids), duplicates, failures, log)
	st.report.EndStage(stage, "ok", map[string]float64{
		"requested":         float64(len(ids)),
		"generated":         float64(len(results)),
		"saved":             float64(len(saved)),
		"failed":            float64(len(failures)),
		"skipped_duplicate": float64(duplicates),
		"skipped_generated": float64(len(sel.AlreadyGenerated)),
	}, nil, nil)
	if len(failures) > 0 {
		st.report.AddSignal("page_failures", stage.name, "warning", "pages failed in batch", float64(len(failures)))
	}
}

// generate fans a batch out over the worker pool. A panicking page becomes a
// failure; it never takes down the batch.
func (o *Orchestrator) generate(ctx context.Context, st *runState, pages []model.PotentialPage) []pageResult {
	results := make([]pageResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(st.req.Workers)
	for i, p := range pages {
		g.Go(func() error {
			results[i] = o.generateOne(gctx, st, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (o *Orchestrator) generateOne(ctx context.Context, st *runState, page model.PotentialPage) (res pageResult) {
	res.page = page
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("page generation panicked", "page_id", page.ID, "panic", r, "stack", string(debug.Stack()))
			res.out = nil
			res.err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	out, err := o.gen.Generate(ctx, generator.Request{Template: st.req.Template, Page: page, Intensity: st.intensity})
	if err == nil && out == nil {
		err = errors.New("generator returned no output")
	}
	res.out, res.err = out, err
	return res
}

// duplicateOf reports whether gp repeats content already owned by another
// potential page, either earlier in this run or in the store.
func (o *Orchestrator) duplicateOf(ctx context.Context, st *runState, page model.PotentialPage, gp model.GeneratedPage) (*model.DuplicateContentDetected, error) {
	if owner, ok := st.claimed[gp.Fingerprint]; ok && owner != page.ID {
		return &model.DuplicateContentDetected{PotentialPageID: page.ID, Fingerprint: gp.Fingerprint, ExistingPageID: owner}, nil
	}

	existing, err := o.store.FindByFingerprint(ctx, page.TemplateID, gp.Fingerprint)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to check fingerprint: %w", err)
	case existing.PotentialPageID != page.ID:
		return &model.DuplicateContentDetected{PotentialPageID: page.ID, Fingerprint: gp.Fingerprint, ExistingPageID: existing.PotentialPageID}, nil
	}
	return nil, nil
}

// withoutExistingRows splits off pages that already have a generated row, so
// the reject policy never runs generation (and its history updates) for them.
func (o *Orchestrator) withoutExistingRows(ctx context.Context, pages []model.PotentialPage) ([]model.PotentialPage, []string, error) {
	keep := make([]model.PotentialPage, 0, len(pages))
	var rejected []string
	for _, p := range pages {
		if !p.IsGenerated {
			keep = append(keep, p)
			continue
		}
		_, err := o.store.GetGeneratedPage(ctx, p.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			keep = append(keep, p)
		case err != nil:
			return nil, nil, fmt.Errorf("failed to load existing page: %w", err)
		default:
			rejected = append(rejected, p.ID)
		}
	}
	return keep, rejected, nil
}

type saveFailure struct {
	id          string
	fingerprint string
	reason      string
}

// persist saves a batch in one transaction. If that fails the pages are saved
// one by one so a single bad row only fails itself.
func (o *Orchestrator) persist(ctx context.Context, pages []model.GeneratedPage, log *logger.Logger) ([]string, []saveFailure) {
	if len(pages) == 0 {
		return nil, nil
	}
	err := o.store.SaveGeneratedPages(ctx, pages)
	if err == nil {
		return o.markGenerated(ctx, pages, nil, log)
	}
	log.Warn("batch save failed, retrying per page", "pages", len(pages), "error", err)

	var (
		ok       []model.GeneratedPage
		failures []saveFailure
	)
	for _, p := range pages {
		if err := o.store.SaveGeneratedPages(ctx, []model.GeneratedPage{p}); err != nil {
			failures = append(failures, saveFailure{id: p.PotentialPageID, fingerprint: p.Fingerprint, reason: "persist failed: " + err.Error()})
			continue
		}
		ok = append(ok, p)
	}
	return o.markGenerated(ctx, ok, failures, log)
}

func (o *Orchestrator) markGenerated(ctx context.Context, pages []model.GeneratedPage, failures []saveFailure, log *logger.Logger) ([]string, []saveFailure) {
	ids := make([]string, len(pages))
	for i, p := range pages {
		ids[i] = p.PotentialPageID
	}
	if err := o.store.MarkGenerated(ctx, ids); err != nil {
		log.Error("failed to mark pages generated", "pages", len(ids), "error", err)
	}
	return ids, failures
}

func (o *Orchestrator) finishBatch(ctx context.Context, st *runState, processed, duplicates int, failures []model.PageFailure, log *logger.Logger) {
	st.result.Failed = append(st.result.Failed, failures...)

	st.job.Processed += processed
	st.job.Succeeded = len(st.result.Succeeded)
	st.job.Failed = len(st.result.Failed)
	st.job.SkippedDuplicate += duplicates
	st.job.UpdatedAt = o.now().UTC()
	if err := o.store.SaveJob(ctx, st.job); err != nil {
		log.Error("failed to save job progress", "error", err)
	}
	if len(failures) > 0 {
		if err := o.store.SaveJobFailures(ctx, st.job.ID, failures); err != nil {
			log.Error("failed to save job failures", "error", err)
		}
	}
	if o.rotation != nil {
		if err := o.rotation.Checkpoint(ctx); err != nil {
			log.Warn("variation history checkpoint failed", "error", err)
		}
	}
	log.Info("batch persisted", "processed", st.job.Processed, "total", st.job.Total, "succeeded", st.job.Succeeded, "failed", st.job.Failed)
	if st.req.OnBatch != nil {
		st.req.OnBatch(st.job)
	}
}

func pageMetric(out *generator.Output) PageMetric {
	gp := out.Page
	return PageMetric{
		PageID:         gp.PotentialPageID,
		ContentType:    gp.Variation.ContentType,
		UsedModel:      gp.Variation.UsedModel,
		Provider:       gp.Variation.Provider,
		FallbackReason: gp.Variation.FallbackReason,
		QualityScore:   gp.Metrics.Score,
		QualityIssues:  gp.Metrics.Issues,
		DiversityScore: gp.Variation.DiversityScore,
		Attempts:       gp.Variation.Attempts,
		Flagged:        gp.Flagged,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
