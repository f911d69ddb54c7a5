package generator

import (
	"regexp"
	"strings"

	"pagesmith/internal/extractor"
	"pagesmith/internal/model"
)

// ContentType is the closed set of page shapes the generator knows how to
// write: EvaluationQuestion, LocationService, Comparison and Generic.
// Each variant names the template variables that play a role in its copy.
type ContentType interface {
	Kind() model.ContentKind
	// Primary returns the bound value keyword density is measured against.
	Primary(bindings map[string]string) string
	// Subject is the phrase opening and closing sentences are written about.
	Subject(bindings map[string]string) string
	RequiresList() bool

	instructions(bindings map[string]string) []string
	pool() contentPool
	secondary(bindings map[string]string) string
}

type EvaluationQuestion struct {
	SubjectVar string
}

type LocationService struct {
	LocationVar string
	// ServiceVar is empty when the template only varies the location.
	ServiceVar string
}

type Comparison struct {
	LeftVar  string
	RightVar string
}

type Generic struct {
	PrimaryVar string
}

var (
	comparisonRe = regexp.MustCompile(`(?i)\b(vs\.?|versus|compare[ds]?|comparison)\b`)
	evaluationRe = regexp.MustCompile(`(?i)\b(best|top|should|worth|is it|good for)\b`)
)

var locationVars = map[string]bool{
	"city": true, "location": true, "state": true, "region": true, "country": true,
	"area": true, "town": true, "county": true, "province": true, "neighborhood": true,
	"neighbourhood": true, "suburb": true, "zip": true, "place": true,
}

// Classify picks the content type from the template pattern and variable
// names. Comparison wins over evaluation, which wins over location.
func Classify(t model.Template) ContentType {
	vars := t.Variables
	if len(vars) == 0 {
		vars = extractor.Extract(t.Pattern)
	}
	first := ""
	if len(vars) > 0 {
		first = vars[0]
	}

	pattern := t.Pattern
	switch {
	case comparisonRe.MatchString(pattern) && len(vars) >= 2:
		return Comparison{LeftVar: vars[0], RightVar: vars[1]}
	case evaluationRe.MatchString(pattern) || strings.Contains(pattern, "?"):
		return EvaluationQuestion{SubjectVar: first}
	}

	for i, v := range vars {
		if !locationVars[strings.ToLower(v)] {
			continue
		}
		ls := LocationService{LocationVar: v}
		for j, other := range vars {
			if j != i {
				ls.ServiceVar = other
				break
			}
		}
		return ls
	}
	return Generic{PrimaryVar: first}
}

func (EvaluationQuestion) Kind() model.ContentKind { return model.KindEvaluationQuestion }
func (LocationService) Kind() model.ContentKind    { return model.KindLocationService }
func (Comparison) Kind() model.ContentKind         { return model.KindComparison }
func (Generic) Kind() model.ContentKind            { return model.KindGeneric }

func (EvaluationQuestion) RequiresList() bool { return true }
func (LocationService) RequiresList() bool    { return true }
func (Comparison) RequiresList() bool         { return true }
func (Generic) RequiresList() bool            { return false }

func (c EvaluationQuestion) Primary(b map[string]string) string { return b[c.SubjectVar] }
func (c LocationService) Primary(b map[string]string) string    { return b[c.LocationVar] }
func (c Comparison) Primary(b map[string]string) string         { return b[c.LeftVar] }
func (c Generic) Primary(b map[string]string) string            { return b[c.PrimaryVar] }

func (c EvaluationQuestion) Subject(b map[string]string) string { return c.Primary(b) }
func (c Generic) Subject(b map[string]string) string            { return c.Primary(b) }

func (c LocationService) Subject(b map[string]string) string {
	if s := c.secondary(b); s != "" && c.ServiceVar != "" {
		return s + " in " + c.Primary(b)
	}
	return c.Primary(b)
}

func (c Comparison) Subject(b map[string]string) string {
	return c.Primary(b) + " vs " + c.secondary(b)
}

func (EvaluationQuestion) secondary(map[string]string) string { return "" }
func (Generic) secondary(map[string]string) string            { return "" }

func (c LocationService) secondary(b map[string]string) string {
	if v := b[c.ServiceVar]; c.ServiceVar != "" && v != "" {
		return v
	}
	return "local services"
}

func (c Comparison) secondary(b map[string]string) string {
	if v := b[c.RightVar]; v != "" {
		return v
	}
	return "the alternatives"
}

func (c EvaluationQuestion) instructions(b map[string]string) []string {
	return []string{
		"Answer the question in the title directly in the first section, then justify the answer.",
		"Include a bulleted list of the factors that decide the answer for " + c.Primary(b) + ".",
		"Cover both strengths and risks; do not present the answer as certain.",
		"Close with a short section telling the reader how to decide for themselves.",
	}
}

func (c LocationService) instructions(b map[string]string) []string {
	return []string{
		"Write for a reader looking to hire " + c.secondary(b) + " in " + c.Primary(b) + ".",
		"Include a bulleted list of what to look for in a provider.",
		"Explain what drives pricing and timing without quoting prices that are not in the verified facts.",
		"Include a short question-and-answer section with questions to ask a provider.",
	}
}

func (c Comparison) instructions(b map[string]string) []string {
	return []string{
		"Compare " + c.Primary(b) + " and " + c.secondary(b) + " even-handedly; do not declare a universal winner.",
		"Include a markdown table comparing both options on at least four factors.",
		"Describe which kind of reader each option suits best.",
		"Finish with a short verdict section.",
	}
}

func (c Generic) instructions(b map[string]string) []string {
	return []string{
		"Give a practical overview of " + c.Primary(b) + " for a first-time reader.",
		"Use short paragraphs under clear headings; a list is welcome where it helps scanning.",
		"Include a frequently asked questions section.",
	}
}

func (EvaluationQuestion) pool() contentPool { return evaluationCopy }
func (LocationService) pool() contentPool    { return locationCopy }
func (Comparison) pool() contentPool         { return comparisonCopy }
func (Generic) pool() contentPool            { return genericCopy }
