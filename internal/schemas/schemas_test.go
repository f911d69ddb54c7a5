package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageDraft(t *testing.T) {
	s, err := PageDraft()
	require.NoError(t, err)

	assert.NoError(t, ValidateJSON(s, []byte(`{"sections":[{"heading":"Overview","body":"Text"}]}`)))
	assert.Error(t, ValidateJSON(s, []byte(`{"sections":[]}`)))
	assert.Error(t, ValidateJSON(s, []byte(`{"sections":[{"heading":"Overview"}]}`)))
	assert.Error(t, ValidateJSON(s, []byte(`not json`)))

	again, err := PageDraft()
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestEnrichment(t *testing.T) {
	s, err := Enrichment()
	require.NoError(t, err)

	valid := map[string]any{
		"facts": map[string]any{
			"toronto": []any{
				map[string]any{"label": "median rent", "value": 2400, "unit": "CAD", "verified": true},
			},
		},
	}
	assert.NoError(t, Validate(s, valid))

	invalid := map[string]any{
		"facts": map[string]any{
			"toronto": []any{map[string]any{"value": "x"}},
		},
	}
	assert.Error(t, Validate(s, invalid))
}
