package provider

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var (
	htmlTagRe = regexp.MustCompile(`(?i)<(p|h[1-6]|ul|ol|li|table|div|br|strong|em)\b[^>]*>`)

	refusalPrefixes = []string{
		"i'm sorry",
		"i am sorry",
		"i cannot",
		"i can't",
		"i can not",
		"i'm unable",
		"i am unable",
		"as an ai",
		"i won't",
	}
)

// Normalize cleans raw model output: code fences are stripped, HTML is
// converted to Markdown, and empty or refusal responses become errors.
func Normalize(text string) (string, error) {
	text = stripFences(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	if isRefusal(text) {
		return "", ErrRefusal
	}
	if !strings.HasPrefix(text, "{") && htmlTagRe.MatchString(text) {
		converted, err := md.NewConverter("", true, nil).ConvertString(text)
		if err != nil {
			return "", fmt.Errorf("failed to convert html output: %w", err)
		}
		text = strings.TrimSpace(converted)
	}
	return text, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// Drop the info string (```json, ```markdown, ...).
	if nl := strings.IndexByte(text, '\n'); nl >= 0 && !strings.ContainsAny(text[:nl], " {<") {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func isRefusal(text string) bool {
	lower := strings.ToLower(text)
	lower = strings.ReplaceAll(lower, "’", "'")
	for _, p := range refusalPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
