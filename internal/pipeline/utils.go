package pipeline

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"regexp"
	"sort"
	"strings"
)

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func cleanHTMLTags(htmlStr string) string {
	// Remove HTML tags
	text := htmlTagRe.ReplaceAllString(htmlStr, "")
	// Decode HTML entities
	text = html.UnescapeString(text)
	return strings.TrimSpace(text)
}

func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-3] + "..."
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortStrings(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

func uniqueArticlesByLink(in []Article) []Article {
	seen := map[string]bool{}
	out := make([]Article, 0, len(in))
	for _, a := range in {
		if a.Link == "" {
			continue
		}
		if seen[a.Link] {
			continue
		}
		seen[a.Link] = true
		out = append(out, a)
	}
	return out
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readJSONFile(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARN: "+format+"\n", args...)
}

func infof(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
}

func errorf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}
