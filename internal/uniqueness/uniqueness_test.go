package uniqueness

import (
	"strings"
	"testing"

	"pagesmith/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `## Overview

Why is Toronto drawing so much attention? Prices have climbed steadily, and demand keeps rising. However, buyers should review local costs carefully.

- Transit access
- School quality

| Metric | Value |
|---|---|
| Growth | steady |

Contact a local advisor to plan your next move.`

func TestExtract_Fingerprint(t *testing.T) {
	fp := Extract(sampleBody)
	assert.Equal(t, ShapeQuestion, fp.Opening)
	assert.Equal(t, ShapeImperative, fp.Closing)
	assert.Equal(t, []string{"however"}, fp.Transitions)
	assert.Equal(t, 1, fp.Structures[StructCompound])
	assert.Equal(t, 4, sumCounts(fp.Structures))
}

func TestExtract_ShapesAndStructures(t *testing.T) {
	assert.Equal(t, ShapeDataLed, sentenceShape("Vacancy sits at 2.1% this year."))
	assert.Equal(t, ShapeStatement, sentenceShape("The market is calm."))
	assert.Equal(t, StructCausal, sentenceStructure("Rents rose because supply fell."))
	assert.Equal(t, StructComplex, sentenceStructure("Buyers wait when rates climb."))
	assert.Equal(t, StructSimple, sentenceStructure("The market is calm."))
}

func TestSplitSentences_KeepsDecimals(t *testing.T) {
	got := splitSentences("Growth hit 3.5% last year. Will it last? Yes!")
	assert.Equal(t, []string{"Growth hit 3.5% last year.", "Will it last?", "Yes!"}, got)
}

func TestScore(t *testing.T) {
	fp := Extract(sampleBody)
	assert.Equal(t, 1.0, Score(fp, nil))
	assert.InDelta(t, 0.0, Score(fp, []Fingerprint{fp, fp}), 1e-9)

	other := Fingerprint{Opening: ShapeStatement, Closing: ShapeQuestion, Transitions: []string{"moreover"}, Structures: map[string]int{StructCausal: 2}}
	s := Score(fp, []Fingerprint{other})
	assert.Greater(t, s, 0.9)
	assert.LessOrEqual(t, s, 1.0)
}

func TestContentFingerprint_Normalizes(t *testing.T) {
	a := ContentFingerprint("## Hello,   World!\n\nSome **text**.")
	b := ContentFingerprint("hello world some text")
	c := ContentFingerprint("hello world other text")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestVary_PreservesStructuralLines(t *testing.T) {
	out := Vary(sampleBody, VaryOptions{
		Rand:         SeededRand("page-1", 1),
		Intensity:    Heavy,
		Subject:      "Toronto",
		OpeningStyle: OpeningStatement,
		ClosingStyle: ClosingSummary,
	})

	for _, keep := range []string{"## Overview", "- Transit access", "- School quality", "| Metric | Value |", "|---|---|", "| Growth | steady |"} {
		assert.Contains(t, out, keep)
	}
	assert.Contains(t, out, "Toronto")
	assert.NotEqual(t, sampleBody, out)
}

func TestVary_DeterministicPerSeed(t *testing.T) {
	opts := func(seed string) VaryOptions {
		return VaryOptions{Rand: SeededRand(seed, 1), Intensity: Heavy, Subject: "Toronto", OpeningStyle: OpeningQuestion, ClosingStyle: ClosingRhetorical}
	}
	assert.Equal(t, Vary(sampleBody, opts("a")), Vary(sampleBody, opts("a")))
}

func TestVary_DataLedNeedsFacts(t *testing.T) {
	withoutFacts := openingSentence(VaryOptions{Rand: SeededRand("x", 1), Subject: "Toronto", OpeningStyle: OpeningDataLed})
	assert.NotContains(t, withoutFacts, "{")
	assert.Equal(t, ShapeStatement, sentenceShape(withoutFacts))

	withFacts := openingSentence(VaryOptions{
		Rand: SeededRand("x", 1), Subject: "Toronto", OpeningStyle: OpeningDataLed,
		Facts: []Fact{{Label: "median rent", Value: "$2,400"}},
	})
	assert.Contains(t, withFacts, "$2,400")
}

func TestSubstituteSynonyms_RespectsProtectedAndNames(t *testing.T) {
	protected := protectedWords("Great Falls", nil)
	out := substituteSynonyms("Great Falls offers many good options near Key Biscayne.", SeededRand("s", 1), 1.0, protected)

	assert.True(t, strings.HasPrefix(out, "Great Falls"))
	assert.Contains(t, out, "Key Biscayne")
	assert.NotContains(t, out, " many ")
	assert.NotContains(t, out, " good ")
}

func TestSubstituteSynonyms_PreservesCase(t *testing.T) {
	out := substituteSynonyms("Important details matter.", SeededRand("s", 1), 1.0, nil)
	assert.True(t, strings.HasPrefix(out, "Key ") || strings.HasPrefix(out, "Essential ") || strings.HasPrefix(out, "Crucial "), out)
}

func TestReorderClauses(t *testing.T) {
	out := reorderClauses("The market is calm, and prices are stable.", SeededRand("r", 1), 1.0, nil)
	assert.Equal(t, "Prices are stable, and the market is calm.", out)

	kept := reorderClauses("Toronto is calm, and prices are stable.", SeededRand("r", 1), 1.0, nil)
	assert.Equal(t, "Toronto is calm, and prices are stable.", kept)
}

func TestSwapTransition_SameFamily(t *testing.T) {
	for i := 0; i < 20; i++ {
		out := swapTransition("However, buyers wait.", SeededRand("t", i), 1.0)
		tr, fam, ok := leadingTransition(out)
		require.True(t, ok, out)
		assert.Equal(t, "contrast", fam)
		assert.True(t, strings.HasSuffix(out, ", buyers wait."), tr)
	}
}

func TestIntensityFor(t *testing.T) {
	assert.Equal(t, Light, IntensityFor(3))
	assert.Equal(t, Moderate, IntensityFor(10))
	assert.Equal(t, Strong, IntensityFor(999))
	assert.Equal(t, Heavy, IntensityFor(1000))
	assert.Less(t, Light.Rates().Synonym, Heavy.Rates().Synonym)
	assert.Less(t, Moderate.Rates().Reorder, Strong.Rates().Reorder)
}

func TestEngine_ApplyRecordsHistoryAndNeverFails(t *testing.T) {
	h := history.New(history.Options{Window: 10})
	e := NewEngine(h, Config{DiversityFloor: 0.99, MaxAttempts: 3}, nil)

	first := e.Apply(sampleBody, Request{Seed: "p1", Intensity: Moderate, Subject: "Toronto"})
	assert.Equal(t, 1.0, first.Score)
	assert.Equal(t, 1, first.Attempts)
	require.Len(t, h.RecentPatterns(), 1)

	// Identical drafts cannot clear a 0.99 floor against themselves; the best is accepted.
	var last Outcome
	for i := 0; i < 5; i++ {
		last = e.Apply(sampleBody, Request{Seed: "p1", Intensity: Moderate, Subject: "Toronto"})
	}
	assert.Equal(t, 3, last.Attempts)
	assert.NotEmpty(t, last.Body)
	assert.Len(t, h.RecentPatterns(), 6)
}

func TestEngine_ApplyStopsAtFloor(t *testing.T) {
	e := NewEngine(nil, Config{}, nil)
	out := e.Apply(sampleBody, Request{Seed: "p2", Intensity: Light, Subject: "Toronto", OpeningStyle: OpeningQuestion, ClosingStyle: ClosingSummary})
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, OpeningQuestion, out.OpeningStyle)
	assert.Equal(t, ClosingSummary, out.ClosingStyle)
	assert.Equal(t, ShapeQuestion, out.Fingerprint.Opening)
}
