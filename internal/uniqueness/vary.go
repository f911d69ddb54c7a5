package uniqueness

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"
)

// Intensity is the scale-aware strength of variation.
type Intensity string

const (
	Light    Intensity = "light"
	Moderate Intensity = "moderate"
	Strong   Intensity = "strong"
	Heavy    Intensity = "heavy"
)

// Rates are per-candidate probabilities applied by Vary.
type Rates struct {
	Synonym    float64
	Reorder    float64
	Transition float64
}

var intensityRates = map[Intensity]Rates{
	Light:    {Synonym: 0.05, Reorder: 0.10, Transition: 0.20},
	Moderate: {Synonym: 0.10, Reorder: 0.20, Transition: 0.35},
	Strong:   {Synonym: 0.18, Reorder: 0.35, Transition: 0.50},
	Heavy:    {Synonym: 0.25, Reorder: 0.50, Transition: 0.70},
}

// IntensityFor maps the total batch size to an intensity level.
func IntensityFor(batchSize int) Intensity {
	switch {
	case batchSize < 10:
		return Light
	case batchSize < 100:
		return Moderate
	case batchSize < 1000:
		return Strong
	default:
		return Heavy
	}
}

func (i Intensity) Rates() Rates {
	if r, ok := intensityRates[i]; ok {
		return r
	}
	return intensityRates[Light]
}

// Fact is a verified figure a data-led opening may quote.
type Fact struct {
	Label string
	Value string
}

// VaryOptions controls one variation pass.
type VaryOptions struct {
	Rand         *rand.Rand
	Intensity    Intensity
	Subject      string
	Protected    []string
	OpeningStyle string
	ClosingStyle string
	Facts        []Fact
}

var wordRe = regexp.MustCompile(`[A-Za-z][A-Za-z'-]*`)

// Vary rewrites the prose lines of a markdown body. Headings, list items and
// table rows pass through unchanged.
func Vary(body string, opts VaryOptions) string {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(0, 0))
	}
	rates := opts.Intensity.Rates()
	protected := protectedWords(opts.Subject, opts.Protected)

	lines := strings.Split(body, "\n")
	firstProse, lastProse := -1, -1
	for i, line := range lines {
		if !isProse(line) {
			continue
		}
		if firstProse < 0 {
			firstProse = i
		}
		lastProse = i

		sentences := splitSentences(strings.TrimSpace(line))
		for j, s := range sentences {
			s = swapTransition(s, opts.Rand, rates.Transition)
			s = reorderClauses(s, opts.Rand, rates.Reorder, protected)
			s = substituteSynonyms(s, opts.Rand, rates.Synonym, protected)
			sentences[j] = s
		}
		lines[i] = leadingIndent(line) + strings.Join(sentences, " ")
	}

	if firstProse >= 0 {
		if opening := openingSentence(opts); opening != "" {
			lines[firstProse] = leadingIndent(lines[firstProse]) + opening + " " + strings.TrimSpace(lines[firstProse])
		}
		if closing := closingSentence(opts); closing != "" {
			lines[lastProse] = strings.TrimRight(lines[lastProse], " ") + " " + closing
		}
	}
	return strings.Join(lines, "\n")
}

func openingSentence(opts VaryOptions) string {
	if opts.OpeningStyle == "" || opts.Subject == "" {
		return ""
	}
	style := opts.OpeningStyle
	vars := map[string]string{"subject": opts.Subject}
	if style == OpeningDataLed {
		if len(opts.Facts) == 0 {
			style = OpeningStatement
		} else {
			f := opts.Facts[opts.Rand.IntN(len(opts.Facts))]
			vars["label"] = f.Label
			vars["value"] = f.Value
		}
	}
	pool := openingPool[style]
	if len(pool) == 0 {
		return ""
	}
	return fillTemplate(pool[opts.Rand.IntN(len(pool))], vars)
}

func closingSentence(opts VaryOptions) string {
	pool := closingPool[opts.ClosingStyle]
	if len(pool) == 0 || opts.Subject == "" {
		return ""
	}
	return fillTemplate(pool[opts.Rand.IntN(len(pool))], map[string]string{"subject": opts.Subject})
}

// swapTransition replaces a leading transition with another of the same family.
func swapTransition(s string, r *rand.Rand, rate float64) string {
	canonical, family, ok := leadingTransition(s)
	if !ok || r.Float64() >= rate {
		return s
	}
	options := transitionFamilies[family]
	alt := options[r.IntN(len(options))]
	if strings.EqualFold(alt, canonical) {
		return s
	}
	return alt + s[len(canonical):]
}

// reorderClauses swaps the two clauses of "A, and B." when A starts with a
// word that is safe to lowercase.
func reorderClauses(s string, r *rand.Rand, rate float64, protected map[string]bool) string {
	idx := strings.Index(s, ", and ")
	if idx <= 0 || strings.Count(s, ", and ") != 1 {
		return s
	}
	end := s[len(s)-1]
	if end != '.' && end != '!' {
		return s
	}
	first := strings.ToLower(firstWord(s))
	if !reorderSafe[first] || protected[first] {
		return s
	}
	if r.Float64() >= rate {
		return s
	}
	a := s[:idx]
	b := strings.TrimSpace(s[idx+len(", and ") : len(s)-1])
	if b == "" {
		return s
	}
	return upperFirst(b) + ", and " + lowerFirst(a) + string(end)
}

// substituteSynonyms replaces bank words at the given rate. The first word of a
// sentence may be capitalized; other capitalized words are treated as names.
func substituteSynonyms(s string, r *rand.Rand, rate float64, protected map[string]bool) string {
	if rate <= 0 {
		return s
	}
	locs := wordRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var sb strings.Builder
	prev := 0
	for i, loc := range locs {
		word := s[loc[0]:loc[1]]
		lower := strings.ToLower(word)
		replacement := word

		alts, ok := synonymBank[lower]
		capitalized := unicode.IsUpper(rune(word[0]))
		if ok && !protected[lower] && (i == 0 || !capitalized) && r.Float64() < rate {
			replacement = matchCase(word, alts[r.IntN(len(alts))])
		}
		sb.WriteString(s[prev:loc[0]])
		sb.WriteString(replacement)
		prev = loc[1]
	}
	sb.WriteString(s[prev:])
	return sb.String()
}

func matchCase(original, replacement string) string {
	if len(original) > 1 && strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if unicode.IsUpper(rune(original[0])) {
		return upperFirst(replacement)
	}
	return replacement
}

func protectedWords(subject string, terms []string) map[string]bool {
	out := make(map[string]bool)
	for _, t := range append([]string{subject}, terms...) {
		for _, w := range wordRe.FindAllString(t, -1) {
			out[strings.ToLower(w)] = true
		}
	}
	return out
}

func leadingIndent(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
