package model

import (
	"strings"
	"time"
)

// SectionTemplate is one (heading, body) pair of a page template.
type SectionTemplate struct {
	HeadingPattern string `json:"heading_pattern" yaml:"heading"`
	BodyPattern    string `json:"body_pattern" yaml:"body"`
}

// Template is owned by the project layer and read-only inside the engine.
type Template struct {
	ID        string            `json:"id" yaml:"id"`
	Pattern   string            `json:"pattern" yaml:"pattern"`
	Sections  []SectionTemplate `json:"content_sections,omitempty" yaml:"sections"`
	Variables []string          `json:"variables,omitempty" yaml:"variables"`
}

// VariableDataset holds the ordered values for one template variable.
type VariableDataset struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

// PotentialPage is one enumerated combination that may be generated later.
type PotentialPage struct {
	ID          string            `json:"id"`
	TemplateID  string            `json:"template_id"`
	Bindings    map[string]string `json:"variable_bindings"`
	Title       string            `json:"rendered_title"`
	Slug        string            `json:"rendered_slug"`
	IsGenerated bool              `json:"is_generated"`
	Priority    int               `json:"priority"`
	Position    int               `json:"position"`
}

// Section is a rendered heading/body pair.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// QualityMetrics is the quality gate verdict stored with each page.
type QualityMetrics struct {
	WordCount       int      `json:"word_count"`
	KeywordDensity  float64  `json:"keyword_density"`
	StructuralScore float64  `json:"structural_score"`
	Score           float64  `json:"score"`
	Passed          bool     `json:"passed"`
	Issues          []string `json:"issues,omitempty"`
}

// VariationMetadata records how a page's content was produced.
type VariationMetadata struct {
	ContentType    string  `json:"content_type"`
	Strategy       string  `json:"strategy"`
	Style          string  `json:"style,omitempty"`
	Opening        string  `json:"opening,omitempty"`
	Closing        string  `json:"closing,omitempty"`
	Provider       string  `json:"provider,omitempty"`
	UsedModel      bool    `json:"used_model"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	Attempts       int     `json:"attempts"`
	DiversityScore float64 `json:"diversity_score"`
	Intensity      string  `json:"intensity"`
}

// GeneratedPage is created at most once per potential page.
type GeneratedPage struct {
	ID              string            `json:"id"`
	PotentialPageID string            `json:"potential_page_id"`
	TemplateID      string            `json:"template_id"`
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	Sections        []Section         `json:"content_sections"`
	Metrics         QualityMetrics    `json:"quality_metrics"`
	Variation       VariationMetadata `json:"variation_metadata"`
	Fingerprint     string            `json:"content_fingerprint"`
	Flagged         bool              `json:"flagged"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ExportRecord is the exporter-facing view of a generated page.
type ExportRecord struct {
	Title    string         `json:"title"`
	Slug     string         `json:"slug"`
	Sections []Section      `json:"sections"`
	Metrics  QualityMetrics `json:"metrics"`
}

// Record returns the plain record handed to exporters.
func (p GeneratedPage) Record() ExportRecord {
	sections := make([]Section, len(p.Sections))
	copy(sections, p.Sections)
	return ExportRecord{
		Title:    p.Title,
		Slug:     p.Slug,
		Sections: sections,
		Metrics:  p.Metrics,
	}
}

// Body joins all section bodies; it is the text the fingerprint is taken over.
func (p GeneratedPage) Body() string {
	return JoinSections(p.Sections)
}

// JoinSections renders sections as one markdown document.
func JoinSections(sections []Section) string {
	var sb strings.Builder
	for i, s := range sections {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if s.Heading != "" {
			sb.WriteString("## " + s.Heading + "\n\n")
		}
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// ContentKind names a content-type classification derived from template shape.
type ContentKind string

const (
	KindEvaluationQuestion ContentKind = "evaluation_question"
	KindLocationService    ContentKind = "location_service"
	KindComparison         ContentKind = "comparison"
	KindGeneric            ContentKind = "generic"
)

// JobStatus enumerates batch job lifecycle states.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
	JobFailed    JobStatus = "failed"
)

// BatchJob tracks progress of one generation run.
type BatchJob struct {
	ID               string    `json:"id"`
	TemplateID       string    `json:"template_id"`
	Status           JobStatus `json:"status"`
	Total            int       `json:"total"`
	Processed        int       `json:"processed"`
	Succeeded        int       `json:"succeeded"`
	Failed           int       `json:"failed"`
	SkippedDuplicate int       `json:"skipped_duplicate"`
	StartedAt        time.Time `json:"started_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PageFailure is a per-page error reported in a batch result.
type PageFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
