package quality

import (
	"errors"
	"strings"
	"testing"

	"pagesmith/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// filler returns n words with keyword at every 40th position.
func filler(n int, keyword string) string {
	words := make([]string, n)
	for i := range words {
		if i%40 == 0 {
			words[i] = keyword
		} else {
			words[i] = "word"
		}
	}
	return strings.Join(words, " ") + "."
}

func TestAssess_PassingPage(t *testing.T) {
	g := NewGate(Config{})
	m := g.Assess(Input{
		Keyword:     "Toronto",
		RequireList: true,
		Sections: []model.Section{
			{Heading: "Overview", Body: filler(390, "Toronto")},
			{Heading: "Highlights", Body: "- Transit\n- Schools"},
		},
	})

	assert.True(t, m.Passed, Summary(m))
	assert.GreaterOrEqual(t, m.WordCount, 300)
	assert.InDelta(t, 2.5, m.KeywordDensity, 0.2)
	assert.Equal(t, 30.0, m.StructuralScore)
	assert.Equal(t, 100.0, m.Score)
	assert.Empty(t, m.Issues)
	assert.NoError(t, g.Check(m))
}

func TestAssess_ShortPageFlagged(t *testing.T) {
	g := NewGate(Config{})
	m := g.Assess(Input{
		Keyword:     "Toronto",
		RequireList: true,
		Sections:    []model.Section{{Body: "Toronto is nice. " + filler(40, "word")}},
	})

	assert.False(t, m.Passed)
	assert.Contains(t, m.Issues, "below_min_words")
	assert.Contains(t, m.Issues, "missing_heading")
	assert.Contains(t, m.Issues, "missing_list_or_table")

	err := g.Check(m)
	var low *model.QualityBelowThreshold
	require.True(t, errors.As(err, &low))
	assert.Equal(t, 60.0, low.Minimum)
	assert.False(t, g.Rejects(m))
	assert.True(t, NewGate(Config{HardReject: true}).Rejects(m))
}

func TestAssess_DensityBand(t *testing.T) {
	g := NewGate(Config{MinWords: 100})

	stuffed := g.Assess(Input{Keyword: "Austin", Sections: []model.Section{{Heading: "H", Body: strings.Repeat("Austin plumbing ", 100)}}})
	assert.Contains(t, stuffed.Issues, "keyword_density_high")
	assert.InDelta(t, 49.75, stuffed.KeywordDensity, 0.5)

	sparse := g.Assess(Input{Keyword: "Austin", Sections: []model.Section{{Heading: "H", Body: filler(400, "plumbing")}}})
	assert.Contains(t, sparse.Issues, "keyword_density_low")
	assert.Zero(t, sparse.KeywordDensity)
}

func TestAssess_TableSatisfiesListRequirement(t *testing.T) {
	g := NewGate(Config{})
	m := g.Assess(Input{
		RequireList: true,
		Sections:    []model.Section{{Heading: "Compare", Body: "| A | B |\n|---|---|\n| 1 | 2 |"}},
	})
	assert.NotContains(t, m.Issues, "missing_list_or_table")
}

func TestAssess_PlaceholdersAndEmpty(t *testing.T) {
	g := NewGate(Config{})
	m := g.Assess(Input{Sections: []model.Section{{Heading: "H", Body: "Welcome to {city}."}}})
	assert.Contains(t, m.Issues, "placeholder_text")

	empty := g.Assess(Input{})
	assert.Equal(t, []string{"empty_content"}, empty.Issues)
	assert.False(t, empty.Passed)
}

func TestCountPhrase(t *testing.T) {
	words := wordRe.FindAllString("New York is big. Toronto's market and new york prices.", -1)
	assert.Equal(t, 2, countPhrase(words, "New York"))
	assert.Equal(t, 1, countPhrase(words, "Toronto"))
}
