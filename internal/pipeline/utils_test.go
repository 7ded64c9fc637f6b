package pipeline

import (
	"reflect"
	"testing"
)

func TestCleanHTMLTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"a &amp; b", "a & b"},
		{"<div>\n  spaced  \n</div>", "spaced"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanHTMLTags(tt.in); got != tt.want {
			t.Errorf("cleanHTMLTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 100); got != "short" {
		t.Errorf("truncateText() = %q, want unchanged", got)
	}
	got := truncateText("abcdefghij", 8)
	if got != "abcde..." {
		t.Errorf("truncateText() = %q, want %q", got, "abcde...")
	}
	if len(got) != 8 {
		t.Errorf("truncated length = %d, want 8", len(got))
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("  a \n\t b   c "); got != "a b c" {
		t.Errorf("normalizeWhitespace() = %q", got)
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"longevity", "Longevity"},
		{"ai", "Ai"},
		{"", ""},
		{"Already", "Already"},
	}
	for _, tt := range tests {
		if got := capitalize(tt.in); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUniqueArticlesByLink(t *testing.T) {
	in := []Article{
		{Title: "a", Link: "https://example.com/1"},
		{Title: "no link"},
		{Title: "b", Link: "https://example.com/2"},
		{Title: "a again", Link: "https://example.com/1"},
	}
	got := uniqueArticlesByLink(in)
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2", len(got))
	}
	if got[0].Title != "a" || got[1].Title != "b" {
		t.Errorf("kept %q, %q; first occurrence should win", got[0].Title, got[1].Title)
	}
}

func TestSortStringsDoesNotMutate(t *testing.T) {
	in := []string{"b", "a"}
	got := sortStrings(in)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("sortStrings() = %v", got)
	}
	if in[0] != "b" {
		t.Error("sortStrings mutated its input")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0.125, 0.13},
		{0.124, 0.12},
		{1, 1},
		{0, 0},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
