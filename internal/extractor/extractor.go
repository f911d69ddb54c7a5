package extractor

import (
	"regexp"
	"strings"

	"pagesmith/internal/model"
)

// placeholderRe matches {name} placeholders. Braces around anything else stay literal.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z][A-Za-z0-9_]*)\}`)

// Extract returns the distinct placeholder names referenced by the given texts,
// in first-occurrence order.
func Extract(texts ...string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, text := range texts {
		for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// TemplateVariables extracts the ordered variable set of a template:
// pattern first, then each section heading and body.
func TemplateVariables(t model.Template) ([]string, error) {
	texts := []string{t.Pattern}
	for _, s := range t.Sections {
		texts = append(texts, s.HeadingPattern, s.BodyPattern)
	}
	vars := Extract(texts...)
	if len(vars) == 0 {
		return nil, &model.InvalidTemplateError{TemplateID: t.ID, Reason: "template references no variables"}
	}
	return vars, nil
}

// ValidateTemplate checks the template invariants and returns a copy whose
// Variables field is populated. Declared variables keep their declared order.
func ValidateTemplate(t model.Template) (model.Template, error) {
	if strings.TrimSpace(t.ID) == "" {
		return t, &model.InvalidTemplateError{Reason: "template id is required"}
	}
	if len(Extract(t.Pattern)) == 0 {
		return t, &model.InvalidTemplateError{TemplateID: t.ID, Reason: "pattern must reference at least one variable"}
	}
	referenced, err := TemplateVariables(t)
	if err != nil {
		return t, err
	}
	if len(t.Variables) == 0 {
		t.Variables = referenced
		return t, nil
	}

	declared := make(map[string]bool, len(t.Variables))
	for _, v := range t.Variables {
		declared[v] = true
	}
	var missing []string
	for _, v := range referenced {
		if !declared[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return t, &model.InvalidTemplateError{
			TemplateID: t.ID,
			Reason:     "undeclared variables referenced: " + strings.Join(missing, ", "),
		}
	}
	return t, nil
}

// Substitute replaces every bound {name} placeholder; unbound placeholders are kept.
func Substitute(text string, bindings map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := bindings[name]; ok {
			return v
		}
		return m
	})
}
