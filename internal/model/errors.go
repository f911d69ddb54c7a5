package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientData marks enrichment lookups that found too few verified facts.
	ErrInsufficientData = errors.New("insufficient enrichment data")
	// ErrDuplicateContent marks pages whose fingerprint already exists for the template.
	ErrDuplicateContent = errors.New("duplicate content detected")
)

// InvalidTemplateError is fatal to enumeration.
type InvalidTemplateError struct {
	TemplateID string
	Reason     string
}

func (e *InvalidTemplateError) Error() string {
	if e.TemplateID == "" {
		return "invalid template: " + e.Reason
	}
	return fmt.Sprintf("invalid template %s: %s", e.TemplateID, e.Reason)
}

// CombinationLimitExceeded reports the computed total so callers can narrow datasets.
type CombinationLimitExceeded struct {
	Computed int
	Limit    int
}

func (e *CombinationLimitExceeded) Error() string {
	return fmt.Sprintf("combination limit exceeded: %d combinations (limit %d)", e.Computed, e.Limit)
}

// MissingDatasetError is returned when a template variable has no dataset.
type MissingDatasetError struct {
	Variable string
}

func (e *MissingDatasetError) Error() string {
	return fmt.Sprintf("no dataset for variable %q", e.Variable)
}

// EmptyDatasetError is returned when a dataset has no values.
type EmptyDatasetError struct {
	Name string
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("dataset %q is empty", e.Name)
}

// ProviderError is always recoverable: the generator falls back to pattern-based content.
type ProviderError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := "provider error"
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InsufficientDataError forces the pattern-based path.
type InsufficientDataError struct {
	ContentType string
	Available   int
	Required    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d facts, need %d", e.ContentType, e.Available, e.Required)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DuplicateContentDetected is recorded when a page is skipped as a duplicate.
type DuplicateContentDetected struct {
	PotentialPageID string
	Fingerprint     string
	ExistingPageID  string
}

func (e *DuplicateContentDetected) Error() string {
	return fmt.Sprintf("duplicate content for %s (fingerprint %s matches page %s)", e.PotentialPageID, shortFingerprint(e.Fingerprint), e.ExistingPageID)
}

func (e *DuplicateContentDetected) Is(target error) bool { return target == ErrDuplicateContent }

// QualityBelowThreshold flags a page; it is fatal to that page only under hard rejection.
type QualityBelowThreshold struct {
	Score   float64
	Minimum float64
	Issues  []string
}

func (e *QualityBelowThreshold) Error() string {
	msg := fmt.Sprintf("quality score %.1f below minimum %.1f", e.Score, e.Minimum)
	if len(e.Issues) > 0 {
		msg += " (" + strings.Join(e.Issues, ", ") + ")"
	}
	return msg
}

// UnknownPageError is reported for selected ids that do not belong to the template.
type UnknownPageError struct {
	ID         string
	TemplateID string
}

func (e *UnknownPageError) Error() string {
	return fmt.Sprintf("unknown potential page %s for template %s", e.ID, e.TemplateID)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
