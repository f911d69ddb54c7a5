package schemas

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed enrichment.schema.json
	enrichmentSchema []byte
	//go:embed page_draft.schema.json
	pageDraftSchema []byte
)

const (
	EnrichmentURL = "mem://pagesmith/enrichment.schema.json"
	PageDraftURL  = "mem://pagesmith/page_draft.schema.json"
)

var (
	cacheMu sync.Mutex
	cache   = make(map[string]*jsonschema.Schema)

	sources = map[string][]byte{
		EnrichmentURL: enrichmentSchema,
		PageDraftURL:  pageDraftSchema,
	}
)

// Enrichment validates enrichment data files.
func Enrichment() (*jsonschema.Schema, error) { return compiled(EnrichmentURL) }

// PageDraft validates the JSON a provider returns for a grounded page.
func PageDraft() (*jsonschema.Schema, error) { return compiled(PageDraftURL) }

func compiled(url string) (*jsonschema.Schema, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if s, ok := cache[url]; ok {
		return s, nil
	}

	src, ok := sources[url]
	if !ok {
		return nil, fmt.Errorf("unknown schema %s", url)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(src)); err != nil {
		return nil, err
	}
	s, err := compiler.Compile(url)
	if err != nil {
		return nil, err
	}
	cache[url] = s
	return s, nil
}

// Validate checks any Go value against a schema after normalizing it through
// JSON, so values decoded from YAML validate the same as values from JSON.
func Validate(schema *jsonschema.Schema, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for schema validation: %w", err)
	}
	return ValidateJSON(schema, raw)
}

// ValidateJSON validates raw JSON bytes.
func ValidateJSON(schema *jsonschema.Schema, raw []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to decode value for schema validation: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
