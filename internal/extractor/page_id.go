package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugInvalid  = regexp.MustCompile(`[^a-z0-9]+`)
)

const maxSlugLength = 80

// PageID creates a deterministic potential-page ID from the template ID and
// the variable bindings. Variable names are compared case-insensitively and
// pairs are sorted, so the ID does not depend on map or declaration order.
func PageID(templateID string, bindings map[string]string) string {
	pairs := make([]string, 0, len(bindings))
	for name, value := range bindings {
		pairs = append(pairs, strings.ToLower(strings.TrimSpace(name))+"="+canonicalize(value))
	}
	sort.Strings(pairs)

	fingerprint := strings.TrimSpace(templateID) + "|" + strings.Join(pairs, "|")
	sum := sha256.Sum256([]byte(fingerprint))
	return "pp_" + hex.EncodeToString(sum[:16])
}

// Slugify produces a lowercase, hyphen-separated ASCII slug.
func Slugify(text string) string {
	slug := strings.ToLower(strings.TrimSpace(text))
	slug = slugInvalid.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "page"
	}
	return slug
}

func canonicalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return whitespaceRe.ReplaceAllString(s, " ")
}
