package domain

import "time"

// Platform identifies one external popularity source.
type Platform string

const (
	PlatformVideo      Platform = "video"
	PlatformStreaming  Platform = "streaming"
	PlatformSocial     Platform = "social"
	PlatformShortVideo Platform = "shortvideo"
	PlatformContent    Platform = "content"
)

// Candidate is a raw search result prior to filtering and dedup.
type Candidate struct {
	VideoID     string
	Title       string
	Description string
	ChannelID   string
	ChannelName string
	Language    string
	ViewCount   int64
	Duration    time.Duration
	PublishedAt time.Time
}

// Identity collects the weak identifiers an artist can be recognized by.
// Any single non-empty hard key (channel or streaming id) is enough to
// tie two sightings to the same artist.
type Identity struct {
	ChannelID   string
	StreamingID string
	Handles     []string
	Name        string
}

// EnrichmentHint is what platform adapters get to locate an artist.
// SampleText carries lyric/description text for the content analyzer.
type EnrichmentHint struct {
	Identity   Identity
	SampleText string
}

// PlatformMetrics is the normalized popularity snapshot for one platform.
// A platform that could not be queried never appears in a MetricSet;
// absence is represented by a missing key, not by zeroes.
type PlatformMetrics struct {
	Platform  Platform
	Audience  int64   // followers, subscribers, or monthly listeners
	Plays     int64   // view/stream count where the platform exposes one
	Quality   float64 // content-quality signal 0..10 (content platform only)
	FetchedAt time.Time
}

// MetricSet maps platforms to the metrics obtained for them.
type MetricSet map[Platform]PlatformMetrics

// ArtistStatus enumerates pipeline milestones for an artist record.
type ArtistStatus string

const (
	StatusDiscovered ArtistStatus = "discovered"
	StatusEnriching  ArtistStatus = "enriching"
	StatusScored     ArtistStatus = "scored"
	StatusStored     ArtistStatus = "stored"
	StatusRejected   ArtistStatus = "rejected"
)

// RejectReason explains why a candidate left the pipeline.
type RejectReason string

const (
	ReasonExcludedKeyword   RejectReason = "excluded_keyword"
	ReasonNonTargetLanguage RejectReason = "non_target_language"
	ReasonTooPopular        RejectReason = "too_popular"
	ReasonKnownArtist       RejectReason = "known_artist"
	ReasonAlreadyKnown      RejectReason = "already_known"
)

// ArtistRecord is the canonical artist entity tracked through a session.
type ArtistRecord struct {
	ID           string
	Name         string
	Identity     Identity
	Candidate    Candidate
	Metrics      MetricSet
	Breakdown    *ScoreBreakdown
	Status       ArtistStatus
	RejectReason RejectReason
	Flags        []string
	DiscoveredAt time.Time
}

// PlatformPoints is one platform's contribution to a score.
type PlatformPoints struct {
	Platform Platform
	Points   float64
	Raw      int64
}

// Penalty is a subtractive consistency adjustment with its cause.
type Penalty struct {
	Reason string
	Points float64
}

// ScoreBreakdown is the immutable result of scoring one artist.
// Recomputation produces a new value; callers never mutate one.
type ScoreBreakdown struct {
	PlatformPoints []PlatformPoints
	Penalties      []Penalty
	Queried        []Platform
	Skipped        []Platform
	Final          float64
	ComputedAt     time.Time
}

// PenaltyTotal sums all penalty points in the breakdown.
func (b ScoreBreakdown) PenaltyTotal() float64 {
	var total float64
	for _, p := range b.Penalties {
		total += p.Points
	}
	return total
}

// FingerprintEntry ties persisted identity tokens to a stored artist,
// used to seed the deduplicator across sessions.
type FingerprintEntry struct {
	ArtistID string
	Identity Identity
}

// SessionSummary aggregates per-stage counts for one discovery session.
type SessionSummary struct {
	Query       string
	Found       int
	FilteredOut map[RejectReason]int
	Duplicates  int
	Enriched    int
	Scored      int
	Stored      int
	QuotaUnits  int64
	StartedAt   time.Time
	Elapsed     time.Duration
}
