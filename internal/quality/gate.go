package quality

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"pagesmith/internal/model"
)

const (
	DefaultMinWords   = 300
	DefaultDensityMin = 1.5
	DefaultDensityMax = 3.5
	DefaultMinScore   = 60

	wordsWeight     = 40
	structureWeight = 30
	densityWeight   = 30
)

type Config struct {
	MinWords   int
	DensityMin float64
	DensityMax float64
	MinScore   float64
	HardReject bool
}

func (c Config) withDefaults() Config {
	if c.MinWords <= 0 {
		c.MinWords = DefaultMinWords
	}
	if c.DensityMin <= 0 {
		c.DensityMin = DefaultDensityMin
	}
	if c.DensityMax <= c.DensityMin {
		c.DensityMax = math.Max(DefaultDensityMax, c.DensityMin+1)
	}
	if c.MinScore <= 0 {
		c.MinScore = DefaultMinScore
	}
	return c
}

// Input is one rendered page to assess.
type Input struct {
	Sections []model.Section
	// Keyword is the primary variable value; density is its occurrence rate.
	Keyword string
	// RequireList demands at least one list or table.
	RequireList bool
}

type Gate struct {
	cfg Config
}

func NewGate(cfg Config) *Gate {
	return &Gate{cfg: cfg.withDefaults()}
}

func (g *Gate) Config() Config { return g.cfg }

var (
	wordRe        = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’-]*`)
	placeholderRe = regexp.MustCompile(`\{[A-Za-z][A-Za-z0-9_]*\}`)
	orderedItemRe = regexp.MustCompile(`^\d+[.)]\s`)
)

// Assess scores a page in [0,100]: 40 points for length, 30 for structure
// and 30 for keyword density.
func (g *Gate) Assess(in Input) model.QualityMetrics {
	text := model.JoinSections(in.Sections)
	words := wordRe.FindAllString(text, -1)
	wc := len(words)
	issues := make([]string, 0, 6)

	if strings.TrimSpace(text) == "" {
		return model.QualityMetrics{Issues: []string{"empty_content"}}
	}

	wordsScore := wordsWeight * math.Min(1, float64(wc)/float64(g.cfg.MinWords))
	if wc < g.cfg.MinWords {
		issues = append(issues, "below_min_words")
	}

	structure, structIssues := g.structure(in, text)
	issues = append(issues, structIssues...)

	density := 0.0
	densityScore := float64(densityWeight)
	if kw := strings.TrimSpace(in.Keyword); kw != "" && wc > 0 {
		density = 100 * float64(countPhrase(words, kw)) / float64(wc)
		switch {
		case density < g.cfg.DensityMin:
			densityScore = densityWeight * density / g.cfg.DensityMin
			issues = append(issues, "keyword_density_low")
		case density > g.cfg.DensityMax:
			densityScore = densityWeight * math.Max(0, 1-(density-g.cfg.DensityMax)/g.cfg.DensityMax)
			issues = append(issues, "keyword_density_high")
		}
	}

	score := round1(wordsScore + structure + densityScore)
	return model.QualityMetrics{
		WordCount:       wc,
		KeywordDensity:  round2(density),
		StructuralScore: round1(structure),
		Score:           score,
		Passed:          score >= g.cfg.MinScore,
		Issues:          issues,
	}
}

// Check converts a failing verdict into a QualityBelowThreshold error.
func (g *Gate) Check(m model.QualityMetrics) error {
	if m.Passed {
		return nil
	}
	return &model.QualityBelowThreshold{Score: m.Score, Minimum: g.cfg.MinScore, Issues: m.Issues}
}

// Rejects reports whether a failing page must not be persisted.
func (g *Gate) Rejects(m model.QualityMetrics) bool {
	return g.cfg.HardReject && !m.Passed
}

func (g *Gate) structure(in Input, text string) (float64, []string) {
	var issues []string
	score := float64(structureWeight)

	hasHeading := false
	for _, s := range in.Sections {
		if strings.TrimSpace(s.Heading) != "" {
			hasHeading = true
			break
		}
	}

	total, bullets, tables := 0, 0, 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		total++
		switch {
		case strings.HasPrefix(line, "#"):
			hasHeading = true
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "), orderedItemRe.MatchString(line):
			bullets++
		case strings.HasPrefix(line, "|"):
			tables++
		}
	}

	if !hasHeading {
		score -= 15
		issues = append(issues, "missing_heading")
	}
	if in.RequireList && bullets == 0 && tables == 0 {
		score -= 15
		issues = append(issues, "missing_list_or_table")
	}
	if total > 0 && float64(bullets)/float64(total) > 0.45 {
		score -= 5
		issues = append(issues, "list_heavy")
	}
	lower := strings.ToLower(text)
	if placeholderRe.MatchString(text) || strings.Contains(lower, "lorem ipsum") || strings.Contains(lower, "tbd") {
		score -= 10
		issues = append(issues, "placeholder_text")
	}
	return math.Max(0, score), issues
}

// countPhrase counts case-insensitive, word-aligned occurrences of phrase.
func countPhrase(words []string, phrase string) int {
	target := wordRe.FindAllString(phrase, -1)
	if len(target) == 0 {
		return 0
	}
	n := 0
	for i := 0; i+len(target) <= len(words); i++ {
		match := true
		for j, t := range target {
			if !strings.EqualFold(strings.TrimSuffix(strings.TrimSuffix(words[i+j], "’s"), "'s"), t) {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Summary renders metrics for logs and the CLI.
func Summary(m model.QualityMetrics) string {
	s := fmt.Sprintf("score=%.1f words=%d density=%.2f%% structure=%.1f", m.Score, m.WordCount, m.KeywordDensity, m.StructuralScore)
	if len(m.Issues) > 0 {
		s += " issues=" + strings.Join(m.Issues, ",")
	}
	return s
}
