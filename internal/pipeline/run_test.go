package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testPipeline(cfg *Config, store Store, mailbox AlertMailbox) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   store,
		mailbox: mailbox,
		now:     func() time.Time { return testNow },
		sleep:   func(time.Duration) {},
	}
}

func TestProcessArticles(t *testing.T) {
	lastRun := testNow.Add(-48 * time.Hour)

	store := newFakeStore("https://example.com/dup")
	cfg := &Config{
		Selection: SelectionConfig{MinSelect: 3, MaxConsider: 20, TopLimit: 3},
	}
	p := testPipeline(cfg, store, nil)

	fresh1 := makeArticle("fresh1", 0.9, testNow.Add(-2*time.Hour))
	dup := makeArticle("dup", 0.8, testNow.Add(-2*time.Hour))
	fresh2 := makeArticle("fresh2", 0.7, testNow.Add(-2*time.Hour))
	stale := makeArticle("stale", 0.95, lastRun.Add(-time.Hour))
	undated := makeArticle("undated", 0.6, time.Time{})
	undated.SourceType = SourceTypeGoogleAlert

	stats := &RunStats{}
	p.ProcessArticles(context.Background(), []Article{fresh1, dup, fresh2, stale, undated}, lastRun, stats)

	if stats.Stale != 1 {
		t.Errorf("Stale = %d, want 1", stats.Stale)
	}
	// dup is attempted in tier 1 and again in tier 2, rejected both times
	if stats.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", stats.Duplicates)
	}
	if stats.PublishedRSS != 2 || stats.PublishedAlerts != 0 {
		t.Errorf("Published RSS/Alerts = %d/%d, want 2/0", stats.PublishedRSS, stats.PublishedAlerts)
	}
	if stats.PublishErrors != 0 {
		t.Errorf("PublishErrors = %d, want 0", stats.PublishErrors)
	}

	if len(store.created) != 2 {
		t.Fatalf("store has %d records, want 2", len(store.created))
	}
	if store.created[0].Link != fresh1.Link || store.created[1].Link != fresh2.Link {
		t.Errorf("created links = %s, %s; want fresh1 then fresh2 (relevancy order)",
			store.created[0].Link, store.created[1].Link)
	}

	rec := store.created[0]
	if len(rec.Themes) == 0 {
		t.Error("published record has no themes")
	}
	if !rec.FetchedAt.Equal(testNow) {
		t.Errorf("FetchedAt = %v, want injected clock time", rec.FetchedAt)
	}
	if rec.AgeDays != 0 {
		t.Errorf("AgeDays = %d, want 0 for a two-hour-old article", rec.AgeDays)
	}
}

func TestProcessArticlesPublishError(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("notion write failed")
	cfg := &Config{
		Selection: SelectionConfig{MinSelect: 2, MaxConsider: 20, TopLimit: 2},
	}
	p := testPipeline(cfg, store, nil)

	stats := &RunStats{}
	articles := []Article{makeArticle("a", 0.9, testNow.Add(-time.Hour))}
	p.ProcessArticles(context.Background(), articles, testNow.Add(-48*time.Hour), stats)

	if stats.Published() != 0 {
		t.Errorf("Published() = %d, want 0", stats.Published())
	}
	// attempted in tier 1 and retried in tier 2, failing both times
	if stats.PublishErrors != 2 {
		t.Errorf("PublishErrors = %d, want 2", stats.PublishErrors)
	}
	if len(stats.Added) != 0 {
		t.Errorf("Added has %d entries, want 0", len(stats.Added))
	}
}

func TestProcessArticlesAgeDays(t *testing.T) {
	store := newFakeStore()
	cfg := &Config{
		Selection: SelectionConfig{MinSelect: 2, MaxConsider: 20, TopLimit: 2},
	}
	p := testPipeline(cfg, store, nil)

	stats := &RunStats{}
	// three days old but fresher than last run
	a := makeArticle("aged", 0.9, testNow.Add(-72*time.Hour))
	p.ProcessArticles(context.Background(), []Article{a}, testNow.Add(-96*time.Hour), stats)

	if len(store.created) != 1 {
		t.Fatalf("store has %d records, want 1", len(store.created))
	}
	if got := store.created[0].AgeDays; got != 3 {
		t.Errorf("AgeDays = %d, want 3", got)
	}
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	cfg := &Config{
		Feeds:      map[string]string{}, // no live feeds in tests
		Selection:  SelectionConfig{MinSelect: 10, MaxConsider: 20, TopLimit: 15},
		Source:     DefaultSourceConfig(),
		CursorPath: filepath.Join(dir, "last_run.txt"),
		PDFDir:     filepath.Join(dir, "pdfs"),
	}
	mailbox := &fakeMailbox{msgs: []AlertMessage{
		{Subject: "Google Alert - crispr", Date: testNow.Add(-2 * time.Hour), HTMLBody: alertHTMLFixture},
	}}
	p := testPipeline(cfg, store, mailbox)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stats.FetchedAlerts != 1 {
		t.Errorf("FetchedAlerts = %d, want 1", stats.FetchedAlerts)
	}
	if stats.PublishedAlerts != 1 {
		t.Errorf("PublishedAlerts = %d, want 1", stats.PublishedAlerts)
	}
	if len(stats.Added) != 1 {
		t.Fatalf("Added has %d entries, want 1", len(stats.Added))
	}
	if stats.Added[0].PageURL == "" {
		t.Error("Added entry is missing the Notion page URL")
	}

	// The cursor must be saved with the run start time
	saved := LoadLastRun(cfg.CursorPath, func() time.Time { return testNow })
	if !saved.Equal(testNow) {
		t.Errorf("saved cursor = %v, want %v", saved, testNow)
	}
}

func TestRunDebugModeSkipsCursorSave(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	cfg := &Config{
		Feeds:      map[string]string{},
		Selection:  DefaultSelectionConfig(),
		Source:     DefaultSourceConfig(),
		CursorPath: filepath.Join(dir, "last_run.txt"),
		PDFDir:     filepath.Join(dir, "pdfs"),
		Debug:      true,
	}
	p := testPipeline(cfg, store, nil)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// No cursor file should exist, so loading falls back to the
	// default lookback.
	got := LoadLastRun(cfg.CursorPath, func() time.Time { return testNow })
	if !got.Equal(testNow.Add(-defaultLookback)) {
		t.Errorf("cursor was saved in debug mode: %v", got)
	}
}
