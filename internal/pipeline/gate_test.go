package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for tests
type fakeStore struct {
	existing  map[string]bool
	created   []PublicationRecord
	queryErr  error
	createErr error
}

func newFakeStore(links ...string) *fakeStore {
	existing := map[string]bool{}
	for _, l := range links {
		existing[l] = true
	}
	return &fakeStore{existing: existing}
}

func (fs *fakeStore) ExistsByLink(ctx context.Context, link string) (bool, error) {
	if fs.queryErr != nil {
		return false, fs.queryErr
	}
	return fs.existing[link], nil
}

func (fs *fakeStore) Create(ctx context.Context, rec PublicationRecord) (string, error) {
	if fs.createErr != nil {
		return "", fs.createErr
	}
	fs.existing[rec.Link] = true
	fs.created = append(fs.created, rec)
	return "https://notion.so/page-" + rec.Link, nil
}

func TestGateAdmit(t *testing.T) {
	lastRun := testNow.Add(-48 * time.Hour)

	tests := []struct {
		name    string
		article Article
		store   *fakeStore
		want    Admission
	}{
		{
			name:    "article without link is rejected",
			article: Article{Title: "No link"},
			store:   newFakeStore(),
			want:    RejectedNoLink,
		},
		{
			name:    "article published exactly at last run is stale",
			article: makeArticle("boundary", 0.5, lastRun),
			store:   newFakeStore(),
			want:    RejectedStale,
		},
		{
			name:    "article published before last run is stale",
			article: makeArticle("old", 0.5, lastRun.Add(-time.Hour)),
			store:   newFakeStore(),
			want:    RejectedStale,
		},
		{
			name:    "existing link is a duplicate",
			article: makeArticle("dup", 0.5, testNow.Add(-time.Hour)),
			store:   newFakeStore("https://example.com/dup"),
			want:    RejectedDuplicate,
		},
		{
			name:    "undated article skips staleness check",
			article: makeArticle("undated", 0.5, time.Time{}),
			store:   newFakeStore(),
			want:    Admitted,
		},
		{
			name:    "fresh new article is admitted",
			article: makeArticle("fresh", 0.5, testNow.Add(-time.Hour)),
			store:   newFakeStore(),
			want:    Admitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewGate(tt.store)
			got, err := gate.Admit(context.Background(), tt.article, lastRun)
			if err != nil {
				t.Fatalf("Admit() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Admit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGateAdmitStoreError(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("notion unavailable")

	gate := NewGate(store)
	got, err := gate.Admit(context.Background(), makeArticle("a", 0.5, testNow), testNow.Add(-48*time.Hour))
	if err == nil {
		t.Fatal("Admit() expected error when the duplicate lookup fails")
	}
	if got != RejectedDuplicate {
		t.Errorf("Admit() = %v, want RejectedDuplicate on lookup failure", got)
	}
}

func TestGateRejectsAfterCreate(t *testing.T) {
	// Once a record is created, re-admitting the same link must fail
	// as a duplicate. This is what makes reruns safe.
	store := newFakeStore()
	gate := NewGate(store)
	lastRun := testNow.Add(-48 * time.Hour)
	a := makeArticle("once", 0.5, testNow.Add(-time.Hour))

	got, err := gate.Admit(context.Background(), a, lastRun)
	if err != nil || got != Admitted {
		t.Fatalf("first Admit() = %v, %v; want Admitted", got, err)
	}

	if _, err := store.Create(context.Background(), PublicationRecord{Article: a, Themes: []string{"general"}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err = gate.Admit(context.Background(), a, lastRun)
	if err != nil {
		t.Fatalf("second Admit() error = %v", err)
	}
	if got != RejectedDuplicate {
		t.Errorf("second Admit() = %v, want RejectedDuplicate", got)
	}
}

func TestAdmissionString(t *testing.T) {
	if Admitted.String() != "admitted" {
		t.Errorf("Admitted.String() = %q", Admitted.String())
	}
	if RejectedStale.String() != "stale" {
		t.Errorf("RejectedStale.String() = %q", RejectedStale.String())
	}
}
