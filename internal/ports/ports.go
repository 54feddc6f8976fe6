package ports

import (
	"context"
	"time"

	"ArtistScout/internal/domain"
)

// SearchFilters narrows a video-platform search.
type SearchFilters struct {
	PublishedAfter time.Time
	MaxDuration    time.Duration
	HDOnly         bool
}

// SearchPage is one bounded page of search results.
type SearchPage struct {
	Candidates []domain.Candidate
	HasMore    bool
}

// SearchSource pulls recent uploads from the video platform.
type SearchSource interface {
	Search(ctx context.Context, query string, filters SearchFilters, page int) (SearchPage, error)
}

// PlatformAdapter fetches normalized popularity metrics for one platform.
// Failures are reported through the domain error taxonomy (ErrNotFound,
// ErrRateLimited, ErrAdapterUnavailable) so callers can decide how to react.
type PlatformAdapter interface {
	Platform() domain.Platform
	Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error)
}

// LyricAnalyzer rates lyric/theme text on a 0..10 quality scale.
type LyricAnalyzer interface {
	Analyze(ctx context.Context, text string) (float64, error)
}

// UpsertOutcome reports whether a record was newly stored or collided
// with an existing artist (a late-detected duplicate, not an error).
type UpsertOutcome struct {
	Stored     bool
	ExistingID string
}

// ArtistRepository persists validated artists and their fingerprints.
type ArtistRepository interface {
	Upsert(ctx context.Context, record domain.ArtistRecord) (UpsertOutcome, error)
	KnownFingerprints(ctx context.Context) ([]domain.FingerprintEntry, error)
}

// Notifier delivers session summaries to an outbound channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary domain.SessionSummary) error
}

// Scheduler controls when discovery sessions execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
