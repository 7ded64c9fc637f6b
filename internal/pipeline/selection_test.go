package pipeline

import (
	"fmt"
	"testing"
	"time"
)

var testNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func makeArticle(link string, relevancy float64, publishedAt time.Time) Article {
	return Article{
		Title:       "Article " + link,
		Link:        "https://example.com/" + link,
		Source:      "Test Feed",
		SourceType:  SourceTypeRSS,
		PublishedAt: publishedAt,
		Relevancy:   relevancy,
	}
}

func admitAll(admitted *[]string) func(Article) bool {
	return func(a Article) bool {
		*admitted = append(*admitted, a.Link)
		return true
	}
}

func TestFilterStale(t *testing.T) {
	lastRun := testNow.Add(-48 * time.Hour)

	articles := []Article{
		makeArticle("fresh", 0.5, testNow.Add(-1*time.Hour)),
		makeArticle("boundary", 0.5, lastRun), // published exactly at lastRun
		makeArticle("old", 0.5, lastRun.Add(-time.Hour)),
		makeArticle("undated", 0.5, time.Time{}),
	}

	got := FilterStale(articles, lastRun)
	if len(got) != 2 {
		t.Fatalf("FilterStale kept %d articles, want 2", len(got))
	}
	if got[0].Link != "https://example.com/fresh" {
		t.Errorf("first kept article = %s, want fresh", got[0].Link)
	}
	if got[1].Link != "https://example.com/undated" {
		t.Errorf("second kept article = %s, want undated", got[1].Link)
	}
}

func TestSelectTopNeverExceedsTopLimit(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 10, MaxConsider: 20, TopLimit: 15}

	// 40 recent articles, all admissible
	var articles []Article
	for i := 0; i < 40; i++ {
		articles = append(articles, makeArticle(fmt.Sprintf("a%02d", i), 0.9, testNow.Add(-time.Hour)))
	}

	var admitted []string
	published := SelectTop(articles, testNow, cfg, admitAll(&admitted))

	if published != cfg.TopLimit {
		t.Errorf("published %d, want %d", published, cfg.TopLimit)
	}
	if len(admitted) != cfg.TopLimit {
		t.Errorf("admitted %d, want %d", len(admitted), cfg.TopLimit)
	}
}

func TestSelectTopTierOnePlusTierTwo(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 10, MaxConsider: 20, TopLimit: 15}

	// 12 recent articles: tier 1 takes max(10, 12/2) = 10, the
	// remaining 2 flow into tier 2 under the same day group.
	var articles []Article
	for i := 0; i < 12; i++ {
		articles = append(articles, makeArticle(fmt.Sprintf("r%02d", i), 0.9, testNow.Add(-2*time.Hour)))
	}

	var admitted []string
	published := SelectTop(articles, testNow, cfg, admitAll(&admitted))

	if published != 12 {
		t.Errorf("published %d, want 12", published)
	}
}

func TestSelectTopRejectionDoesNotConsumeQuota(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 5, MaxConsider: 20, TopLimit: 9}

	// 8 recent articles; tier 1 slice = max(5, 4) = 5. The gate
	// rejects two of the tier-1 picks, so only 3 publish in tier 1
	// and the rejections leave the remaining quota untouched for
	// tier 2 to backfill.
	var articles []Article
	for i := 0; i < 8; i++ {
		rel := 0.9 - float64(i)*0.01 // descending so ranking is deterministic
		articles = append(articles, makeArticle(fmt.Sprintf("r%d", i), rel, testNow.Add(-2*time.Hour)))
	}

	rejected := map[string]bool{
		"https://example.com/r1": true,
		"https://example.com/r3": true,
	}

	var admitted []string
	published := SelectTop(articles, testNow, cfg, func(a Article) bool {
		if rejected[a.Link] {
			return false
		}
		admitted = append(admitted, a.Link)
		return true
	})

	// Tier 1 publishes r0, r2, r4. Tier 2 has remaining quota 6, so
	// the single same-day group gets cap min(10, 6/2) = 3 attempts:
	// r1 and r3 are rejected again, r5 publishes.
	want := []string{
		"https://example.com/r0",
		"https://example.com/r2",
		"https://example.com/r4",
		"https://example.com/r5",
	}
	if published != len(want) {
		t.Fatalf("published %d, want %d", published, len(want))
	}
	for i, link := range want {
		if admitted[i] != link {
			t.Errorf("admitted[%d] = %s, want %s", i, admitted[i], link)
		}
	}
	for _, link := range admitted {
		if rejected[link] {
			t.Errorf("rejected article %s was counted as admitted", link)
		}
	}
}

func TestSelectTopTierTwoDayOrdering(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 10, MaxConsider: 20, TopLimit: 4}

	// No article is recent, so everything goes through tier 2.
	// Newest day first, per-day cap max(1, remaining/2).
	articles := []Article{
		makeArticle("a1", 0.9, testNow.Add(-48*time.Hour)),  // Jan 8
		makeArticle("a2", 0.8, testNow.Add(-49*time.Hour)),  // Jan 8
		makeArticle("a3", 0.7, testNow.Add(-50*time.Hour)),  // Jan 8
		makeArticle("b1", 0.95, testNow.Add(-72*time.Hour)), // Jan 7
		makeArticle("b2", 0.6, testNow.Add(-73*time.Hour)),  // Jan 7
	}

	var admitted []string
	published := SelectTop(articles, testNow, cfg, admitAll(&admitted))

	// remaining=4: Jan 8 gets cap 2 (a1, a2), then remaining=2:
	// Jan 7 gets cap 1 (b1, the highest-ranked of that day)
	want := []string{
		"https://example.com/a1",
		"https://example.com/a2",
		"https://example.com/b1",
	}
	if published != len(want) {
		t.Fatalf("published %d, want %d", published, len(want))
	}
	for i, link := range want {
		if admitted[i] != link {
			t.Errorf("admitted[%d] = %s, want %s", i, admitted[i], link)
		}
	}
}

func TestSelectTopUndatedArticlesGroupUnderToday(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 10, MaxConsider: 20, TopLimit: 4}

	articles := []Article{
		makeArticle("undated", 0.9, time.Time{}),
		makeArticle("old", 0.8, testNow.Add(-72*time.Hour)),
	}

	var admitted []string
	SelectTop(articles, testNow, cfg, admitAll(&admitted))

	// The undated article lands in today's group, which sorts ahead
	// of the three-day-old group.
	if len(admitted) != 2 {
		t.Fatalf("admitted %d articles, want 2", len(admitted))
	}
	if admitted[0] != "https://example.com/undated" {
		t.Errorf("admitted[0] = %s, want undated first", admitted[0])
	}
}

func TestSelectTopStableForEqualScores(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 3, MaxConsider: 20, TopLimit: 3}

	articles := []Article{
		makeArticle("first", 0.5, testNow.Add(-time.Hour)),
		makeArticle("second", 0.5, testNow.Add(-time.Hour)),
		makeArticle("third", 0.5, testNow.Add(-time.Hour)),
	}

	var admitted []string
	SelectTop(articles, testNow, cfg, admitAll(&admitted))

	want := []string{
		"https://example.com/first",
		"https://example.com/second",
		"https://example.com/third",
	}
	for i, link := range want {
		if admitted[i] != link {
			t.Errorf("admitted[%d] = %s, want %s (input order must be preserved)", i, admitted[i], link)
		}
	}
}

func TestSelectTopMaxConsiderCapsTierTwoPool(t *testing.T) {
	cfg := SelectionConfig{MinSelect: 10, MaxConsider: 3, TopLimit: 15}

	// No recent articles; tier 2 pool is capped at 3 candidates even
	// though the quota would allow more.
	var articles []Article
	for i := 0; i < 10; i++ {
		rel := 0.9 - float64(i)*0.01
		articles = append(articles, makeArticle(fmt.Sprintf("o%d", i), rel, testNow.Add(-72*time.Hour)))
	}

	var admitted []string
	published := SelectTop(articles, testNow, cfg, admitAll(&admitted))

	if published > 3 {
		t.Errorf("published %d, want at most 3 (MaxConsider cap)", published)
	}
}
