package orchestrator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type ReportSignal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Notes      []string           `json:"notes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// PageMetric summarizes how one page was produced.
type PageMetric struct {
	PageID         string   `json:"page_id"`
	ContentType    string   `json:"content_type"`
	UsedModel      bool     `json:"used_model"`
	Provider       string   `json:"provider,omitempty"`
	FallbackReason string   `json:"fallback_reason,omitempty"`
	QualityScore   float64  `json:"quality_score"`
	QualityIssues  []string `json:"quality_issues,omitempty"`
	DiversityScore float64  `json:"diversity_score"`
	Attempts       int      `json:"attempts"`
	Flagged        bool     `json:"flagged"`
	Outcome        string   `json:"outcome"`
}

type ReportSummary struct {
	StageCount        int            `json:"stage_count"`
	PageCount         int            `json:"page_count"`
	FailedStages      int            `json:"failed_stages"`
	ModelPages        int            `json:"model_pages"`
	FallbackPages     int            `json:"fallback_pages"`
	FlaggedPages      int            `json:"flagged_pages"`
	AvgQuality        float64        `json:"avg_quality"`
	AvgDiversity      float64        `json:"avg_diversity"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

// RunReport is written next to a generation run when a report path is set.
type RunReport struct {
	Version     string         `json:"version"`
	JobID       string         `json:"job_id"`
	TemplateID  string         `json:"template_id"`
	GeneratedAt string         `json:"generated_at"`
	Stages      []StageMetric  `json:"stages"`
	Pages       []PageMetric   `json:"pages,omitempty"`
	Signals     []ReportSignal `json:"signals,omitempty"`
	Summary     ReportSummary  `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func NewRunReport(jobID, templateID string) *RunReport {
	return &RunReport{
		Version:     "v1",
		JobID:       jobID,
		TemplateID:  templateID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:      []StageMetric{},
		Pages:       []PageMetric{},
		Signals:     []ReportSignal{},
	}
}

func (r *RunReport) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *RunReport) EndStage(h StageHandle, status string, counters map[string]float64, notes []string, err error) {
	if r == nil || h.name == "" {
		return
	}
	if strings.TrimSpace(status) == "" {
		status = "ok"
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   cleanCounters(counters),
		Notes:      cleanNotes(notes),
	}
	if err != nil {
		m.Error = err.Error()
		if status == "ok" {
			m.Status = "error"
		}
	}
	r.Stages = append(r.Stages, m)
}

func (r *RunReport) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := ReportSignal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *RunReport) AddPage(m PageMetric) {
	if r == nil || m.PageID == "" {
		return
	}
	r.Pages = append(r.Pages, m)
}

func (r *RunReport) Finalize() {
	if r == nil {
		return
	}
	r.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	severityCount := map[string]int{"critical": 0, "warning": 0, "info": 0}
	sort.SliceStable(r.Signals, func(i, j int) bool {
		pi, pj := signalPriority(r.Signals[i].Severity), signalPriority(r.Signals[j].Severity)
		if pi == pj {
			if r.Signals[i].Stage == r.Signals[j].Stage {
				return r.Signals[i].Code < r.Signals[j].Code
			}
			return r.Signals[i].Stage < r.Signals[j].Stage
		}
		return pi > pj
	})
	for _, s := range r.Signals {
		severityCount[s.Severity]++
	}

	failed := 0
	for _, st := range r.Stages {
		if st.Status != "ok" {
			failed++
		}
	}

	sum := ReportSummary{
		StageCount:        len(r.Stages),
		PageCount:         len(r.Pages),
		FailedStages:      failed,
		SignalsBySeverity: severityCount,
	}
	scored := 0
	for _, p := range r.Pages {
		if p.UsedModel {
			sum.ModelPages++
		} else if p.FallbackReason != "" {
			sum.FallbackPages++
		}
		if p.Flagged {
			sum.FlaggedPages++
		}
		if p.Outcome == outcomeFailed && p.QualityScore == 0 {
			continue
		}
		scored++
		sum.AvgQuality += p.QualityScore
		sum.AvgDiversity += p.DiversityScore
	}
	if scored > 0 {
		sum.AvgQuality /= float64(scored)
		sum.AvgDiversity /= float64(scored)
	}
	r.Summary = sum
}

func (r *RunReport) Save(path string) error {
	if r == nil {
		return nil
	}
	r.Finalize()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}

func cleanCounters(raw map[string]float64) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		if key := strings.TrimSpace(k); key != "" {
			out[key] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cleanNotes(raw []string) []string {
	var out []string
	for _, n := range raw {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func signalPriority(severity string) int {
	switch severity {
	case "critical":
		return 3
	case "warning":
		return 2
	default:
		return 1
	}
}
