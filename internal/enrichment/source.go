package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pagesmith/internal/logger"
	"pagesmith/internal/model"
	"pagesmith/internal/schemas"
)

// DefaultMinFacts is the number of verified facts the grounded path needs.
const DefaultMinFacts = 3

// Fact is one verified data point about a bound value.
type Fact struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Unit   string `json:"unit,omitempty"`
	Source string `json:"source,omitempty"`
}

// Text renders the fact for prompts and pattern-based copy.
func (f Fact) Text() string {
	v := f.Value
	if f.Unit != "" {
		v += " " + f.Unit
	}
	return v
}

type Facts []Fact

// Source returns verified facts for a combination, or an InsufficientDataError.
type Source interface {
	Lookup(ctx context.Context, kind model.ContentKind, bindings map[string]string) (Facts, error)
}

// NoopSource never has data.
type NoopSource struct {
	MinFacts int
}

func (n NoopSource) Lookup(_ context.Context, kind model.ContentKind, _ map[string]string) (Facts, error) {
	return nil, &model.InsufficientDataError{ContentType: string(kind), Available: 0, Required: max(n.MinFacts, 1)}
}

type dataFile struct {
	Facts map[string][]rawFact `json:"facts" yaml:"facts"`
}

type rawFact struct {
	Label        string   `json:"label" yaml:"label"`
	Value        any      `json:"value" yaml:"value"`
	Unit         string   `json:"unit,omitempty" yaml:"unit"`
	Source       string   `json:"source,omitempty" yaml:"source"`
	Verified     *bool    `json:"verified,omitempty" yaml:"verified"`
	ContentTypes []string `json:"content_types,omitempty" yaml:"content_types"`
}

type storedFact struct {
	Fact
	kinds map[model.ContentKind]bool
}

// FileSource serves facts from a YAML or JSON data file keyed by bound value.
// Keys match case-insensitively. Facts marked verified: false are never served.
type FileSource struct {
	facts    map[string][]storedFact
	minFacts int
	logger   *logger.Logger
}

// LoadFile reads and validates a data file. A missing file yields an empty source.
func LoadFile(path string, minFacts int, log *logger.Logger) (*FileSource, error) {
	if log == nil {
		log = logger.Nop()
	}
	src := &FileSource{facts: make(map[string][]storedFact), minFacts: minFacts, logger: log}
	if src.minFacts <= 0 {
		src.minFacts = DefaultMinFacts
	}
	if strings.TrimSpace(path) == "" {
		return src, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("enrichment data file not found, grounded generation disabled", "path", path)
		return src, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read enrichment data: %w", err)
	}

	var generic any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &generic)
	default:
		err = yaml.Unmarshal(raw, &generic)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse enrichment data %s: %w", path, err)
	}

	schema, err := schemas.Enrichment()
	if err != nil {
		return nil, fmt.Errorf("failed to compile enrichment schema: %w", err)
	}
	if err := schemas.Validate(schema, generic); err != nil {
		return nil, fmt.Errorf("invalid enrichment data %s: %w", path, err)
	}

	// Re-decode through JSON so YAML and JSON share one struct mapping.
	normalized, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var file dataFile
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment data: %w", err)
	}

	total := 0
	for key, list := range file.Facts {
		k := normalizeKey(key)
		for _, rf := range list {
			if rf.Verified != nil && !*rf.Verified {
				continue
			}
			sf := storedFact{
				Fact: Fact{
					Key:    key,
					Label:  strings.TrimSpace(rf.Label),
					Value:  formatValue(rf.Value),
					Unit:   strings.TrimSpace(rf.Unit),
					Source: strings.TrimSpace(rf.Source),
				},
			}
			if len(rf.ContentTypes) > 0 {
				sf.kinds = make(map[model.ContentKind]bool, len(rf.ContentTypes))
				for _, ct := range rf.ContentTypes {
					sf.kinds[model.ContentKind(ct)] = true
				}
			}
			src.facts[k] = append(src.facts[k], sf)
			total++
		}
	}
	log.Info("enrichment data loaded", "path", path, "keys", len(src.facts), "facts", total)
	return src, nil
}

// Lookup gathers facts for every bound value in variable-name order.
func (s *FileSource) Lookup(_ context.Context, kind model.ContentKind, bindings map[string]string) (Facts, error) {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var out Facts
	seen := make(map[string]bool)
	for _, name := range names {
		for _, sf := range s.facts[normalizeKey(bindings[name])] {
			if sf.kinds != nil && !sf.kinds[kind] {
				continue
			}
			id := sf.Key + "|" + sf.Label
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, sf.Fact)
		}
	}

	if len(out) < s.minFacts {
		return out, &model.InsufficientDataError{ContentType: string(kind), Available: len(out), Required: s.minFacts}
	}
	return out, nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
