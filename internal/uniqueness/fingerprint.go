package uniqueness

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"pagesmith/internal/history"
)

// Fingerprint is the structural shape of a body; it is what the history window stores.
type Fingerprint = history.Pattern

// Sentence shapes.
const (
	ShapeQuestion   = "question"
	ShapeDataLed    = "data_led"
	ShapeImperative = "imperative"
	ShapeStatement  = "statement"
)

// Sentence structure classes.
const (
	StructSimple   = "simple"
	StructCompound = "compound"
	StructCausal   = "causal"
	StructComplex  = "complex"
)

var (
	orderedListRe = regexp.MustCompile(`^\d+[.)]\s`)
	normalizeRe   = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

var imperativeVerbs = map[string]bool{
	"discover": true, "explore": true, "consider": true, "learn": true, "find": true,
	"compare": true, "see": true, "check": true, "start": true, "get": true,
	"contact": true, "choose": true, "take": true, "make": true, "read": true,
	"review": true, "ask": true, "plan": true, "reach": true, "book": true,
}

var (
	causalMarkers   = []string{" because ", " since ", "therefore", " so that ", "as a result", "consequently", " thus ", "due to "}
	compoundMarkers = []string{", and ", ", but ", ", or ", ", yet ", ", so ", "; "}
	complexMarkers  = []string{" which ", " although ", " while ", " when ", " if ", " unless ", " whereas ", " who "}
)

// Extract computes the fingerprint of a markdown body. Only prose lines count.
func Extract(body string) Fingerprint {
	var sentences []string
	for _, line := range strings.Split(body, "\n") {
		if isProse(line) {
			sentences = append(sentences, splitSentences(line)...)
		}
	}

	fp := Fingerprint{Structures: make(map[string]int)}
	if len(sentences) == 0 {
		return fp
	}
	fp.Opening = sentenceShape(sentences[0])
	fp.Closing = sentenceShape(sentences[len(sentences)-1])

	seen := make(map[string]bool)
	for _, s := range sentences {
		if tr, _, ok := leadingTransition(s); ok && !seen[tr] {
			seen[tr] = true
			fp.Transitions = append(fp.Transitions, tr)
		}
		fp.Structures[sentenceStructure(s)]++
	}
	sort.Strings(fp.Transitions)
	return fp
}

// Similarity compares two fingerprints in [0,1]; 1 means identical shape.
func Similarity(a, b Fingerprint) float64 {
	var sim float64
	if a.Opening == b.Opening {
		sim += 0.25
	}
	if a.Closing == b.Closing {
		sim += 0.25
	}
	sim += 0.25 * jaccard(a.Transitions, b.Transitions)
	sim += 0.25 * distributionOverlap(a.Structures, b.Structures)
	return sim
}

// Score is 1 minus the mean similarity against recent fingerprints. An empty window scores 1.
func Score(fp Fingerprint, recent []Fingerprint) float64 {
	if len(recent) == 0 {
		return 1
	}
	var total float64
	for _, r := range recent {
		total += Similarity(fp, r)
	}
	return clamp01(1 - total/float64(len(recent)))
}

// ContentFingerprint is a normalized sha256 of the body text: case, punctuation
// and markdown markup do not change it.
func ContentFingerprint(body string) string {
	norm := strings.TrimSpace(normalizeRe.ReplaceAllString(strings.ToLower(body), " "))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

func isProse(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '#', '-', '*', '+', '|', '>', '`':
		return false
	}
	return !orderedListRe.MatchString(trimmed)
}

// splitSentences splits on . ! ? followed by whitespace or end of text.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' && text[i+1] != '\t' {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func sentenceShape(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "?") {
		return ShapeQuestion
	}
	if strings.ContainsFunc(s, unicode.IsDigit) || strings.Contains(s, "%") {
		return ShapeDataLed
	}
	first := strings.ToLower(strings.TrimFunc(firstWord(s), func(r rune) bool { return !unicode.IsLetter(r) }))
	if imperativeVerbs[first] {
		return ShapeImperative
	}
	return ShapeStatement
}

func sentenceStructure(s string) string {
	lower := " " + strings.ToLower(s) + " "
	switch {
	case containsAny(lower, causalMarkers):
		return StructCausal
	case containsAny(lower, compoundMarkers):
		return StructCompound
	case containsAny(lower, complexMarkers):
		return StructComplex
	default:
		return StructSimple
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	set := make(map[string]int, len(a)+len(b))
	for _, x := range a {
		set[x] |= 1
	}
	for _, x := range b {
		set[x] |= 2
	}
	inter := 0
	for _, v := range set {
		if v == 3 {
			inter++
		}
	}
	return float64(inter) / float64(len(set))
}

func distributionOverlap(a, b map[string]int) float64 {
	ta, tb := sumCounts(a), sumCounts(b)
	if ta == 0 && tb == 0 {
		return 1
	}
	if ta == 0 || tb == 0 {
		return 0
	}
	var l1 float64
	for _, k := range []string{StructSimple, StructCompound, StructCausal, StructComplex} {
		d := float64(a[k])/float64(ta) - float64(b[k])/float64(tb)
		if d < 0 {
			d = -d
		}
		l1 += d
	}
	return clamp01(1 - l1/2)
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
