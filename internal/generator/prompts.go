package generator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"pagesmith/internal/enrichment"
	"pagesmith/internal/extractor"
	"pagesmith/internal/model"
)

const promptMarker = "PAGESMITH_GROUNDED_V1"

// Tones rotated across grounded prompts.
var Tones = []string{"friendly", "authoritative", "analytical", "conversational"}

// PromptBuilder constructs the grounded-generation prompts.
type PromptBuilder struct{}

// System wraps a role line with the grounding preamble. Applying it twice is a no-op.
func (pb *PromptBuilder) System(role string) string {
	base := strings.TrimSpace(role)
	if strings.Contains(base, promptMarker) {
		return base
	}
	var b strings.Builder
	b.WriteString(promptMarker)
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nOutput only the JSON format that is specified. Do not add analysis or extra commentary.")
	b.WriteString("\nUse the verified facts as your only source of figures; do not invent statistics, prices, rankings or citations.")
	b.WriteString("\nIf information is missing, write around it in general terms instead of guessing.")
	b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}

func (pb *PromptBuilder) BuildPagePrompt(ct ContentType, tmpl model.Template, page model.PotentialPage, facts enrichment.Facts, tone string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: Write a web page titled %q.\n", page.Title)
	fmt.Fprintf(&sb, "Content type: %s. Tone: %s.\n", ct.Kind(), tone)

	sb.WriteString("\n==================================================================\n")
	sb.WriteString("### PAGE VARIABLES\n")
	sb.WriteString("==================================================================\n")
	names := make([]string, 0, len(page.Bindings))
	for name := range page.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "- %s: %s\n", name, page.Bindings[name])
	}

	sb.WriteString("\n==================================================================\n")
	sb.WriteString("### VERIFIED FACTS\n")
	sb.WriteString("==================================================================\n")
	for _, f := range facts {
		line := fmt.Sprintf("- %s: %s", f.Label, f.Text())
		if f.Source != "" {
			line += " (source: " + f.Source + ")"
		}
		sb.WriteString(line + "\n")
	}

	if len(tmpl.Sections) > 0 {
		sb.WriteString("\nRequired sections, in order:\n")
		for _, s := range tmpl.Sections {
			fmt.Fprintf(&sb, "- %s\n", extractor.Substitute(s.HeadingPattern, page.Bindings))
		}
	}

	primary := ct.Primary(page.Bindings)
	sb.WriteString("\n**INSTRUCTION**:\n")
	for i, line := range ct.instructions(page.Bindings) {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	sb.WriteString("- Write between 400 and 700 words in markdown, split into 4 to 6 sections.\n")
	fmt.Fprintf(&sb, "- Mention %q naturally about once every 40 words; never stuff it.\n", primary)
	sb.WriteString("- Section headings are plain text without leading '#'.\n")
	sb.WriteString("- Quote figures only from VERIFIED FACTS and keep their units.\n")
	sb.WriteString("\nOutput format: {\"sections\":[{\"heading\":\"...\",\"body\":\"...markdown...\"}]}\n")
	return sb.String()
}

var headingPrefixRe = regexp.MustCompile(`^#+\s*`)

// cleanDraftSections drops prompt echoes and empty sections from a model draft.
func cleanDraftSections(in []model.Section) []model.Section {
	out := make([]model.Section, 0, len(in))
	for _, s := range in {
		heading := strings.TrimSpace(headingPrefixRe.ReplaceAllString(strings.TrimSpace(s.Heading), ""))
		body := stripPromptArtifacts(s.Body)
		if body == "" {
			continue
		}
		out = append(out, model.Section{Heading: heading, Body: body})
	}
	return out
}

func stripPromptArtifacts(content string) string {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trim := strings.TrimSpace(strings.ToLower(line))
		if strings.HasPrefix(trim, "===") || strings.HasPrefix(trim, "### page variables") || strings.HasPrefix(trim, "### verified facts") {
			continue
		}
		if strings.Contains(trim, "**instruction**") || strings.Contains(trim, strings.ToLower(promptMarker)) {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
