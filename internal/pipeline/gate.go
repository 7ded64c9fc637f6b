package pipeline

import (
	"context"
	"time"
)

// Store is the persistence layer the publication gate checks against
// and the pipeline publishes into. NotionStore is the real
// implementation; tests swap in an in-memory fake.
type Store interface {
	// ExistsByLink reports whether a record with the given link
	// already exists in the store.
	ExistsByLink(ctx context.Context, link string) (bool, error)

	// Create persists a new record and returns the URL of the
	// created page.
	Create(ctx context.Context, rec PublicationRecord) (string, error)
}

// Admission is the gate's verdict for a single article.
type Admission int

const (
	Admitted Admission = iota
	RejectedNoLink
	RejectedDuplicate
	RejectedStale
)

// String returns a short label for logging.
func (a Admission) String() string {
	switch a {
	case Admitted:
		return "admitted"
	case RejectedNoLink:
		return "no link"
	case RejectedDuplicate:
		return "duplicate"
	case RejectedStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Gate decides whether an article may be published. It re-checks
// staleness and duplicates right before the write, so the same rules
// hold even if the store changed between collection and publication.
type Gate struct {
	store Store
}

// NewGate returns a gate backed by the given store.
func NewGate(store Store) *Gate {
	return &Gate{store: store}
}

// Admit checks an article against the publication rules, in order:
//
//  1. the article must have a link (the link is the identity key)
//  2. an article published at or before lastRunAt is stale
//  3. an article whose link already exists in the store is a duplicate
//
// Articles without a published date skip the staleness check.
// A non-nil error means the duplicate lookup itself failed; the
// article is rejected as a duplicate in that case so a flaky store
// never causes double publication.
func (g *Gate) Admit(ctx context.Context, a Article, lastRunAt time.Time) (Admission, error) {
	if a.Link == "" {
		return RejectedNoLink, nil
	}
	if a.HasPublishedAt() && !a.PublishedAt.After(lastRunAt) {
		return RejectedStale, nil
	}
	exists, err := g.store.ExistsByLink(ctx, a.Link)
	if err != nil {
		return RejectedDuplicate, err
	}
	if exists {
		return RejectedDuplicate, nil
	}
	return Admitted, nil
}
