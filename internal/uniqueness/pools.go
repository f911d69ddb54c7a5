package uniqueness

import "strings"

// Opening styles.
const (
	OpeningQuestion  = "question"
	OpeningStatement = "statement"
	OpeningDataLed   = "data_led"
)

// Closing styles.
const (
	ClosingCallToAction = "call_to_action"
	ClosingSummary      = "summary"
	ClosingRhetorical   = "rhetorical_question"
)

var (
	OpeningStyles = []string{OpeningQuestion, OpeningStatement, OpeningDataLed}
	ClosingStyles = []string{ClosingCallToAction, ClosingSummary, ClosingRhetorical}
)

// Templates use {subject}; data-led openings also use {label} and {value}
// and are only rendered from a verified fact.
var openingPool = map[string][]string{
	OpeningQuestion: {
		"What makes {subject} worth a closer look?",
		"Why are so many people paying attention to {subject}?",
		"Is {subject} the right fit for your plans?",
		"How does {subject} hold up against the alternatives?",
		"What should you know before deciding on {subject}?",
	},
	OpeningStatement: {
		"{subject} deserves a careful and practical look.",
		"There is more to {subject} than first impressions suggest.",
		"Understanding {subject} starts with the fundamentals.",
		"Plenty of people are weighing their options around {subject}.",
		"A clear picture of {subject} makes every later decision easier.",
	},
	OpeningDataLed: {
		"Start with the numbers: {label} for {subject} is {value}.",
		"One figure frames the discussion of {subject}: {label} stands at {value}.",
		"{label} for {subject} comes in at {value}, which sets the context for everything below.",
	},
}

var closingPool = map[string][]string{
	ClosingCallToAction: {
		"Take the next step and compare your options for {subject} today.",
		"Reach out to a local specialist to explore what {subject} can offer you.",
		"Review your priorities and start planning around {subject} now.",
	},
	ClosingSummary: {
		"In short, {subject} rewards careful research and clear priorities.",
		"Overall, the right decision about {subject} depends on your own goals.",
		"All things considered, {subject} is worth a thoughtful evaluation.",
	},
	ClosingRhetorical: {
		"So, is {subject} the right move for you?",
		"With all of this in mind, what will you decide about {subject}?",
		"Why not take a closer look at {subject} yourself?",
	},
}

// transitionFamilies groups sentence-leading transitions by rhetorical function.
var transitionFamilies = map[string][]string{
	"addition":   {"Additionally", "Moreover", "Furthermore", "In addition", "Also"},
	"contrast":   {"However", "That said", "On the other hand", "Even so", "Still"},
	"causation":  {"As a result", "Consequently", "Therefore", "For this reason", "Because of this"},
	"example":    {"For example", "For instance", "To illustrate"},
	"conclusion": {"In short", "Overall", "Ultimately", "All in all"},
}

var familyOrder = []string{"addition", "contrast", "causation", "example", "conclusion"}

// synonymBank maps lowercase words to interchangeable alternatives.
var synonymBank = map[string][]string{
	"important":   {"key", "essential", "crucial"},
	"help":        {"assist", "support"},
	"choose":      {"select", "pick"},
	"many":        {"numerous", "plenty of"},
	"good":        {"solid", "strong"},
	"great":       {"excellent", "outstanding"},
	"options":     {"choices", "alternatives"},
	"costs":       {"prices", "expenses"},
	"cost":        {"price", "expense"},
	"area":        {"region", "locale"},
	"find":        {"discover", "locate"},
	"offers":      {"provides", "delivers"},
	"consider":    {"weigh", "evaluate"},
	"provide":     {"offer", "deliver"},
	"reliable":    {"dependable", "trustworthy"},
	"benefits":    {"advantages", "upsides"},
	"understand":  {"grasp", "appreciate"},
	"popular":     {"in-demand", "sought-after"},
	"growth":      {"expansion", "momentum"},
	"strong":      {"robust", "solid"},
	"experience":  {"expertise", "track record"},
	"quickly":     {"promptly", "rapidly"},
	"often":       {"frequently", "regularly"},
	"typically":   {"usually", "generally"},
	"usually":     {"typically", "generally"},
	"compare":     {"contrast", "weigh up"},
	"significant": {"considerable", "substantial"},
	"key":         {"central", "core"},
	"factors":     {"considerations", "elements"},
	"decision":    {"choice", "call"},
	"residents":   {"locals", "community members"},
	"demand":      {"interest", "appetite"},
	"plan":        {"prepare", "map out"},
	"review":      {"assess", "examine"},
	"simple":      {"straightforward", "easy"},
	"clear":       {"obvious", "evident"},
	"local":       {"nearby", "neighborhood"},
	"value":       {"worth", "merit"},
	"helps":       {"assists", "supports"},
	"makes":       {"renders", "leaves"},
}

// reorderSafe lists leading words that can be lowercased when clauses swap.
var reorderSafe = map[string]bool{
	"the": true, "this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "many": true, "most": true, "some": true,
	"each": true, "every": true, "a": true, "an": true, "there": true,
	"they": true, "we": true, "you": true, "your": true, "our": true,
	"their": true, "prices": true, "demand": true, "local": true,
	"residents": true, "buyers": true, "costs": true, "options": true,
}

// leadingTransition reports the canonical transition that opens s, its family
// and whether one was found. Matching is case-insensitive and requires a comma.
func leadingTransition(s string) (string, string, bool) {
	lower := strings.ToLower(s)
	for _, fam := range familyOrder {
		for _, tr := range transitionFamilies[fam] {
			if strings.HasPrefix(lower, strings.ToLower(tr)+",") {
				return strings.ToLower(tr), fam, true
			}
		}
	}
	return "", "", false
}

func fillTemplate(tmpl string, vars map[string]string) string {
	for k, v := range vars {
		tmpl = strings.ReplaceAll(tmpl, "{"+k+"}", v)
	}
	return upperFirst(tmpl)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] - 'A' + 'a'
	}
	return string(r)
}
