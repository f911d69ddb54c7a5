package generator

import (
	"fmt"
	"strings"

	"pagesmith/internal/enrichment"
	"pagesmith/internal/extractor"
	"pagesmith/internal/model"
	"pagesmith/internal/uniqueness"
)

// renderPattern fills the content type's copy for one page. Body variants are
// drawn from a source seeded by the page id, so a page always renders the same
// draft. Template sections follow the opening section, then verified facts.
func renderPattern(ct ContentType, tmpl model.Template, page model.PotentialPage, facts enrichment.Facts) []model.Section {
	b := page.Bindings
	primary := ct.Primary(b)
	fill := strings.NewReplacer("{p}", primary, "{s}", ct.secondary(b), "{title}", page.Title)
	pool := ct.pool()
	r := uniqueness.SeededRand(page.ID, 0)

	out := make([]model.Section, 0, len(pool.Sections)+len(tmpl.Sections)+1)
	for i, sec := range pool.Sections {
		body := sec.Variants[r.IntN(len(sec.Variants))]
		body = strings.ReplaceAll(body, "{list}", pool.List)
		out = append(out, model.Section{Heading: sec.Heading, Body: fill.Replace(body)})
		if i > 0 {
			continue
		}
		out = append(out, templateSections(tmpl, b)...)
		if table := factsTable(facts); table != "" {
			out = append(out, model.Section{
				Heading: "Key figures",
				Body:    fmt.Sprintf("Verified figures for %s:\n\n%s", primary, table),
			})
		}
	}
	return out
}

func templateSections(tmpl model.Template, bindings map[string]string) []model.Section {
	var out []model.Section
	for _, s := range tmpl.Sections {
		heading := strings.TrimSpace(extractor.Substitute(s.HeadingPattern, bindings))
		body := strings.TrimSpace(extractor.Substitute(s.BodyPattern, bindings))
		if heading == "" && body == "" {
			continue
		}
		out = append(out, model.Section{Heading: heading, Body: body})
	}
	return out
}

func factsTable(facts enrichment.Facts) string {
	if len(facts) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("| Figure | Value | Source |\n|---|---|---|")
	for _, f := range facts {
		source := f.Source
		if source == "" {
			source = "n/a"
		}
		fmt.Fprintf(&sb, "\n| %s | %s | %s |", escapeCell(f.Label), escapeCell(f.Text()), escapeCell(source))
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

// splitSections is the inverse of model.JoinSections for "## " headings.
// Text before the first heading becomes an untitled section.
func splitSections(body string) []model.Section {
	var (
		out     []model.Section
		current *model.Section
		lines   []string
	)
	flush := func() {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if current == nil {
			if text != "" {
				out = append(out, model.Section{Body: text})
			}
			return
		}
		current.Body = text
		out = append(out, *current)
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = &model.Section{Heading: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
			continue
		}
		lines = append(lines, line)
	}
	flush()
	return out
}
