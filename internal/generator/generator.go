package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pagesmith/internal/enrichment"
	"pagesmith/internal/extractor"
	"pagesmith/internal/logger"
	"pagesmith/internal/model"
	"pagesmith/internal/provider"
	"pagesmith/internal/quality"
	"pagesmith/internal/rotation"
	"pagesmith/internal/schemas"
	"pagesmith/internal/uniqueness"

	"github.com/google/uuid"
)

// State is one step of a page generation.
type State string

const (
	StateNotStarted         State = "not_started"
	StateAttemptingGrounded State = "attempting_grounded"
	StateSuccess            State = "success"
	StateFallback           State = "fallback"
	StatePatternBased       State = "pattern_based"
	StateRendered           State = "rendered"
	StateVaried             State = "varied"
	StateScored             State = "scored"
)

// Rotation prompt types.
const (
	PromptTone    = "tone"
	PromptOpening = "opening"
	PromptClosing = "closing"
)

const (
	DefaultMaxTokens   = 1800
	DefaultTemperature = 0.4

	systemRole = "You write helpful, accurate web pages for a programmatic SEO site."
)

// Trace records the states a generation visited.
type Trace struct {
	States         []State
	UsedModel      bool
	Provider       string
	FallbackReason string
}

func (t *Trace) enter(s State) { t.States = append(t.States, s) }

func (t Trace) String() string {
	parts := make([]string, len(t.States))
	for i, s := range t.States {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

type Config struct {
	Strategy    rotation.Strategy
	MaxTokens   int
	Temperature float64
}

// Deps are the collaborators of a Generator. Nil entries get working defaults:
// no providers, no enrichment data, a fresh in-memory history.
type Deps struct {
	Chain      *provider.Chain
	Facts      enrichment.Source
	Rotation   *rotation.Engine
	Uniqueness *uniqueness.Engine
	Quality    *quality.Gate
	Logger     *logger.Logger
	Now        func() time.Time
}

type Generator struct {
	chain      *provider.Chain
	facts      enrichment.Source
	rotation   *rotation.Engine
	uniqueness *uniqueness.Engine
	quality    *quality.Gate
	prompts    PromptBuilder
	cfg        Config
	logger     *logger.Logger
	now        func() time.Time
}

func New(deps Deps, cfg Config) *Generator {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Facts == nil {
		deps.Facts = enrichment.NoopSource{MinFacts: enrichment.DefaultMinFacts}
	}
	if deps.Rotation == nil {
		deps.Rotation = rotation.New(nil, rotation.Options{Logger: deps.Logger})
	}
	if deps.Uniqueness == nil {
		deps.Uniqueness = uniqueness.NewEngine(deps.Rotation.History(), uniqueness.Config{}, deps.Logger)
	}
	if deps.Quality == nil {
		deps.Quality = quality.NewGate(quality.Config{})
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	cfg.Strategy = rotation.ParseStrategy(string(cfg.Strategy))
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	return &Generator{
		chain:      deps.Chain,
		facts:      deps.Facts,
		rotation:   deps.Rotation,
		uniqueness: deps.Uniqueness,
		quality:    deps.Quality,
		cfg:        cfg,
		logger:     deps.Logger,
		now:        deps.Now,
	}
}

// Request is one potential page to generate.
type Request struct {
	Template  model.Template
	Page      model.PotentialPage
	Intensity uniqueness.Intensity
}

type Output struct {
	Page  model.GeneratedPage
	Trace Trace
}

// Generate produces content for one page. Provider failures never surface:
// they move the page onto the pattern-based path. The only error is a
// *model.QualityBelowThreshold when the gate hard-rejects the result, in
// which case the output is still returned for reporting.
func (g *Generator) Generate(ctx context.Context, req Request) (*Output, error) {
	ct := Classify(req.Template)
	bindings := req.Page.Bindings
	intensity := req.Intensity
	if intensity == "" {
		intensity = uniqueness.IntensityFor(1)
	}
	r := uniqueness.SeededRand(req.Page.ID, 0)

	trace := Trace{}
	trace.enter(StateNotStarted)
	meta := model.VariationMetadata{
		ContentType: string(ct.Kind()),
		Strategy:    string(g.cfg.Strategy),
		Intensity:   string(intensity),
	}

	facts, factErr := g.facts.Lookup(ctx, ct.Kind(), bindings)

	var sections []model.Section
	switch {
	case !g.chain.Configured():
		trace.FallbackReason = "no provider configured"
	case factErr != nil:
		trace.FallbackReason = "insufficient data"
		if !errors.Is(factErr, model.ErrInsufficientData) {
			g.logger.Warn("enrichment lookup failed", "page_id", req.Page.ID, "error", factErr)
		}
	default:
		trace.enter(StateAttemptingGrounded)
		tone, _ := g.rotation.SelectWith(r, PromptTone, Tones, g.cfg.Strategy)
		meta.Style = tone

		drafted, providerName, reason := g.tryGrounded(ctx, ct, req, facts, tone)
		if reason == "" {
			trace.enter(StateSuccess)
			trace.UsedModel = true
			trace.Provider = providerName
			sections = drafted
		} else {
			trace.enter(StateFallback)
			trace.FallbackReason = reason
			g.rotation.RecordPerformance(PromptTone, tone, false, map[string]any{"reason": reason})
		}
	}

	if !trace.UsedModel {
		trace.enter(StatePatternBased)
		sections = renderPattern(ct, req.Template, req.Page, facts)
	}
	trace.enter(StateRendered)

	opening, _ := g.rotation.SelectWith(r, PromptOpening, uniqueness.OpeningStyles, g.cfg.Strategy)
	closing, _ := g.rotation.SelectWith(r, PromptClosing, uniqueness.ClosingStyles, g.cfg.Strategy)
	outcome := g.uniqueness.Apply(model.JoinSections(sections), uniqueness.Request{
		Seed:         req.Page.ID,
		Intensity:    intensity,
		Subject:      ct.Subject(bindings),
		Protected:    boundValues(bindings),
		OpeningStyle: opening,
		ClosingStyle: closing,
		Facts:        openingFacts(facts),
	})
	sections = splitSections(outcome.Body)
	trace.enter(StateVaried)

	metrics := g.quality.Assess(quality.Input{
		Sections:    sections,
		Keyword:     ct.Primary(bindings),
		RequireList: ct.RequiresList(),
	})
	trace.enter(StateScored)

	if trace.UsedModel {
		g.rotation.RecordPerformance(PromptTone, meta.Style, metrics.Passed, map[string]any{"score": metrics.Score})
	}
	g.rotation.RecordPerformance(PromptOpening, outcome.OpeningStyle, metrics.Passed, nil)
	g.rotation.RecordPerformance(PromptClosing, outcome.ClosingStyle, metrics.Passed, nil)
	if err := g.rotation.Checkpoint(ctx); err != nil {
		g.logger.Warn("variation history checkpoint failed", "error", err)
	}

	meta.Opening = outcome.OpeningStyle
	meta.Closing = outcome.ClosingStyle
	meta.Provider = trace.Provider
	meta.UsedModel = trace.UsedModel
	meta.FallbackReason = trace.FallbackReason
	meta.Attempts = outcome.Attempts
	meta.DiversityScore = outcome.Score

	now := g.now().UTC()
	out := &Output{
		Trace: trace,
		Page: model.GeneratedPage{
			ID:              uuid.NewString(),
			PotentialPageID: req.Page.ID,
			TemplateID:      req.Page.TemplateID,
			Title:           req.Page.Title,
			Slug:            req.Page.Slug,
			Sections:        sections,
			Metrics:         metrics,
			Variation:       meta,
			Fingerprint:     uniqueness.ContentFingerprint(model.JoinSections(sections)),
			Flagged:         !metrics.Passed,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	g.logger.Debug("page generated",
		"page_id", req.Page.ID,
		"content_type", ct.Kind(),
		"trace", trace.String(),
		"fallback_reason", trace.FallbackReason,
		"quality", quality.Summary(metrics),
		"diversity", outcome.Score,
	)

	if g.quality.Rejects(metrics) {
		return out, g.quality.Check(metrics)
	}
	return out, nil
}

// tryGrounded asks the provider chain for a draft. A non-empty reason means
// the draft is unusable and the page must fall back.
func (g *Generator) tryGrounded(ctx context.Context, ct ContentType, req Request, facts enrichment.Facts, tone string) ([]model.Section, string, string) {
	res := g.chain.Complete(ctx, provider.Request{
		System:      g.prompts.System(systemRole),
		Prompt:      g.prompts.BuildPagePrompt(ct, req.Template, req.Page, facts, tone),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if !res.OK() {
		return nil, "", res.Err.Reason
	}

	sections, err := parseDraft(res.Text)
	if err != nil {
		g.logger.Warn("grounded draft rejected", "page_id", req.Page.ID, "provider", res.Provider, "error", err)
		return nil, "", "malformed response"
	}
	return sections, res.Provider, ""
}

func parseDraft(text string) ([]model.Section, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in response")
	}
	schema, err := schemas.PageDraft()
	if err != nil {
		return nil, err
	}
	if err := schemas.ValidateJSON(schema, []byte(raw)); err != nil {
		return nil, err
	}

	var draft struct {
		Sections []model.Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	sections := cleanDraftSections(draft.Sections)
	if len(sections) == 0 {
		return nil, fmt.Errorf("draft has no usable sections")
	}
	for _, s := range sections {
		if names := extractor.Extract(s.Heading, s.Body); len(names) > 0 {
			return nil, fmt.Errorf("draft leaves placeholders unresolved: %s", strings.Join(names, ", "))
		}
	}
	return sections, nil
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func boundValues(bindings map[string]string) []string {
	out := make([]string, 0, len(bindings))
	for _, v := range bindings {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func openingFacts(facts enrichment.Facts) []uniqueness.Fact {
	out := make([]uniqueness.Fact, 0, len(facts))
	for _, f := range facts {
		out = append(out, uniqueness.Fact{Label: f.Label, Value: f.Text()})
	}
	return out
}
