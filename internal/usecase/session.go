package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"ArtistScout/internal/adapter"
	"ArtistScout/internal/dedup"
	"ArtistScout/internal/domain"
	"ArtistScout/internal/filter"
	"ArtistScout/internal/ports"
	"ArtistScout/internal/quota"
	"ArtistScout/internal/scoring"
)

const searchOperation = "search"

// Stage names the orchestrator's session states.
type Stage string

const (
	StageSearching     Stage = "searching"
	StageFiltering     Stage = "filtering"
	StageDeduplicating Stage = "deduplicating"
	StageEnriching     Stage = "enriching"
	StageScoring       Stage = "scoring"
	StagePersisting    Stage = "persisting"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// Deps wires all collaborators into the orchestrator.
type Deps struct {
	Search     ports.SearchSource
	Gateway    *adapter.Gateway
	Deduper    *dedup.Deduper
	Filter     *filter.Filter
	Scoring    *scoring.Engine
	Repository ports.ArtistRepository
	Notifier   ports.Notifier
	Ledger     *quota.Ledger
	Logger     *slog.Logger

	// Platforms to enrich from; the content platform additionally feeds
	// the lyric/theme quality signal.
	Platforms []domain.Platform

	Filters        ports.SearchFilters
	MaxPages       int
	Concurrency    int64
	SessionTimeout time.Duration
}

// Progress is a point-in-time snapshot of a session for polling.
type Progress struct {
	SessionID string
	Query     string
	Stage     Stage
	Found     int
	Survivors int
	Enriched  int
	Stored    int
	StartedAt time.Time
	LastError string
}

// SessionResult is the blocking outcome of one discovery session. When
// the session failed the partial results gathered so far are retained.
type SessionResult struct {
	SessionID string
	Stage     Stage
	Summary   domain.SessionSummary
	Artists   []domain.ArtistRecord
}

// Orchestrator drives discovery sessions end to end: search, filter,
// dedup, enrichment fan-out, score, persist. One session runs at a time.
type Orchestrator struct {
	deps Deps

	runMu    sync.Mutex
	running  bool
	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu       sync.Mutex
	progress Progress
}

func (s *sessionState) set(update func(*Progress)) {
	s.mu.Lock()
	update(&s.progress)
	s.mu.Unlock()
}

func (s *sessionState) snapshot() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// NewOrchestrator constructs the session driver.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 4
	}
	if deps.MaxPages <= 0 {
		deps.MaxPages = 5
	}
	return &Orchestrator{deps: deps, sessions: map[string]*sessionState{}}
}

// SessionStatus returns the latest progress snapshot for a session id.
func (o *Orchestrator) SessionStatus(sessionID string) (Progress, bool) {
	o.mu.Lock()
	state, ok := o.sessions[sessionID]
	o.mu.Unlock()
	if !ok {
		return Progress{}, false
	}
	return state.snapshot(), true
}

// RunSession executes one discovery session and blocks until it reaches
// Completed or Failed. A second concurrent call is rejected with
// ErrSessionActive rather than queued.
func (o *Orchestrator) RunSession(ctx context.Context, query string, maxCandidates int) (SessionResult, error) {
	o.runMu.Lock()
	if o.running {
		o.runMu.Unlock()
		return SessionResult{}, domain.ErrSessionActive
	}
	o.running = true
	o.runMu.Unlock()
	defer func() {
		o.runMu.Lock()
		o.running = false
		o.runMu.Unlock()
	}()

	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	if o.deps.SessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deps.SessionTimeout)
		defer cancel()
	}

	sessionID := uuid.NewString()
	started := time.Now()
	state := &sessionState{progress: Progress{
		SessionID: sessionID,
		Query:     query,
		Stage:     StageSearching,
		StartedAt: started,
	}}
	o.mu.Lock()
	o.sessions[sessionID] = state
	o.mu.Unlock()

	logger := o.deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session", sessionID, "query", query)
	logger.Info("session started", "max_candidates", maxCandidates)

	summary := domain.SessionSummary{
		Query:       query,
		FilteredOut: map[domain.RejectReason]int{},
		StartedAt:   started,
	}
	var artists []domain.ArtistRecord

	fail := func(stage Stage, err error) (SessionResult, error) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("session cancelled at %s: %w", stage, ctxErr)
		}
		state.set(func(p *Progress) {
			p.Stage = StageFailed
			p.LastError = err.Error()
		})
		summary.Elapsed = time.Since(started)
		if o.deps.Ledger != nil {
			summary.QuotaUnits = o.deps.Ledger.ConsumedUnits()
		}
		logger.Error("session failed", "stage", stage, "error", err)
		return SessionResult{SessionID: sessionID, Stage: StageFailed, Summary: summary, Artists: artists}, err
	}

	// Cross-session dedup: seed from persisted fingerprint history before
	// any budget is spent.
	if o.deps.Repository != nil {
		entries, err := o.deps.Repository.KnownFingerprints(ctx)
		if err != nil {
			return fail(StageSearching, fmt.Errorf("seed fingerprints: %w", err))
		}
		o.deps.Deduper.Seed(entries)
	}

	// Searching + Filtering: page through results until enough candidates
	// survive the filter or the page ceiling bounds the cost.
	survivors, err := o.searchAndFilter(ctx, state, &summary, query, maxCandidates, logger)
	if err != nil {
		return fail(StageSearching, err)
	}

	// Deduplicating: gate before the costly enrichment stage.
	state.set(func(p *Progress) { p.Stage = StageDeduplicating })
	records := o.deduplicate(survivors, &summary, &artists, logger)
	state.set(func(p *Progress) { p.Survivors = len(records) })

	// Enriching: bounded fan-out across candidates and platforms; each
	// platform degrades independently to absent.
	state.set(func(p *Progress) { p.Stage = StageEnriching })
	if err := o.enrich(ctx, state, records, logger); err != nil {
		artists = append(artists, records...)
		return fail(StageEnriching, err)
	}
	summary.Enriched = len(records)

	// Scoring with whatever metrics settled.
	state.set(func(p *Progress) { p.Stage = StageScoring })
	for i := range records {
		breakdown := o.deps.Scoring.Score(records[i].Metrics)
		records[i].Breakdown = &breakdown
		records[i].Status = domain.StatusScored
		summary.Scored++
	}

	// Persisting: a store conflict is a late-detected duplicate.
	state.set(func(p *Progress) { p.Stage = StagePersisting })
	for i := range records {
		rec := &records[i]
		outcome, err := o.deps.Repository.Upsert(ctx, *rec)
		if err != nil {
			artists = append(artists, records...)
			return fail(StagePersisting, fmt.Errorf("upsert %s: %w", rec.Name, err))
		}
		if outcome.Stored {
			rec.Status = domain.StatusStored
			summary.Stored++
			state.set(func(p *Progress) { p.Stored++ })
		} else {
			rec.Status = domain.StatusRejected
			rec.RejectReason = domain.ReasonAlreadyKnown
			rec.Flags = append(rec.Flags, "store_conflict:"+outcome.ExistingID)
			summary.Duplicates++
			logger.Info("store conflict resolved as duplicate", "artist", rec.Name, "existing_id", outcome.ExistingID)
		}
	}
	artists = append(artists, records...)

	summary.Elapsed = time.Since(started)
	if o.deps.Ledger != nil {
		summary.QuotaUnits = o.deps.Ledger.ConsumedUnits()
	}
	state.set(func(p *Progress) { p.Stage = StageCompleted })
	logger.Info("session completed",
		"found", summary.Found,
		"duplicates", summary.Duplicates,
		"enriched", summary.Enriched,
		"stored", summary.Stored,
		"elapsed", summary.Elapsed,
		"quota_units", summary.QuotaUnits)

	if o.deps.Notifier != nil {
		if err := o.deps.Notifier.PublishSummary(ctx, summary); err != nil {
			logger.Warn("summary notification failed", "error", err)
		}
	}

	return SessionResult{SessionID: sessionID, Stage: StageCompleted, Summary: summary, Artists: artists}, nil
}

// searchAndFilter is the only all-or-nothing stage: a search error fails
// the session.
func (o *Orchestrator) searchAndFilter(ctx context.Context, state *sessionState, summary *domain.SessionSummary, query string, maxCandidates int, logger *slog.Logger) ([]domain.Candidate, error) {
	var survivors []domain.Candidate
	seen := map[string]struct{}{}

	for page := 1; page <= o.deps.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		state.set(func(p *Progress) { p.Stage = StageSearching })

		// Search pages are metered like any other provider call. An
		// exhausted budget stops paging with whatever already survived
		// instead of failing the session.
		var grant *quota.Grant
		if o.deps.Ledger != nil {
			var err error
			grant, err = o.deps.Ledger.Reserve(string(domain.PlatformVideo), searchOperation, 1)
			if errors.Is(err, domain.ErrQuotaExhausted) {
				logger.Warn("search budget exhausted", "page", page, "survivors", len(survivors))
				break
			}
			if err != nil {
				return nil, fmt.Errorf("search page %d: %w", page, err)
			}
		}

		result, err := o.deps.Search.Search(ctx, query, o.deps.Filters, page)
		if err != nil {
			o.deps.Ledger.Release(grant)
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		o.deps.Ledger.Commit(grant)

		state.set(func(p *Progress) { p.Stage = StageFiltering })
		for _, candidate := range result.Candidates {
			if _, ok := seen[candidate.VideoID]; ok {
				continue
			}
			seen[candidate.VideoID] = struct{}{}
			summary.Found++

			if reason, ok := o.deps.Filter.Check(candidate); !ok {
				summary.FilteredOut[reason]++
				continue
			}
			survivors = append(survivors, candidate)
			if len(survivors) >= maxCandidates {
				break
			}
		}
		state.set(func(p *Progress) { p.Found = summary.Found })

		if len(survivors) >= maxCandidates || !result.HasMore {
			break
		}
	}

	return survivors, nil
}

func (o *Orchestrator) deduplicate(candidates []domain.Candidate, summary *domain.SessionSummary, rejected *[]domain.ArtistRecord, logger *slog.Logger) []domain.ArtistRecord {
	var records []domain.ArtistRecord
	for _, candidate := range candidates {
		record := domain.ArtistRecord{
			ID:   uuid.NewString(),
			Name: candidate.ChannelName,
			Identity: domain.Identity{
				ChannelID: candidate.ChannelID,
				Handles:   extractHandles(candidate.Description),
				Name:      candidate.ChannelName,
			},
			Candidate:    candidate,
			Metrics:      domain.MetricSet{},
			Status:       domain.StatusDiscovered,
			DiscoveredAt: time.Now(),
		}

		match := o.deps.Deduper.IsDuplicate(record.Identity)
		if match.Duplicate {
			record.Status = domain.StatusRejected
			record.RejectReason = domain.ReasonAlreadyKnown
			summary.Duplicates++
			*rejected = append(*rejected, record)
			logger.Debug("duplicate skipped", "artist", record.Name, "matched", match.ArtistID)
			continue
		}
		if match.Soft {
			// Name similarity flags but does not reject.
			record.Flags = append(record.Flags, "name_similarity:"+match.ArtistID)
		}

		o.deps.Deduper.MarkProcessed(record.Identity, record.ID)
		record.Status = domain.StatusEnriching
		records = append(records, record)
	}
	return records
}

// enrich fans out across candidates and platforms under one concurrency
// bound. Per-platform failures degrade to absent; only cancellation
// aborts the stage.
func (o *Orchestrator) enrich(ctx context.Context, state *sessionState, records []domain.ArtistRecord, logger *slog.Logger) error {
	sem := semaphore.NewWeighted(o.deps.Concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range records {
		record := &records[i]
		hint := domain.EnrichmentHint{
			Identity:   record.Identity,
			SampleText: strings.TrimSpace(record.Candidate.Title + "\n" + record.Candidate.Description),
		}

		for _, platform := range o.deps.Platforms {
			if err := sem.Acquire(ctx, 1); err != nil {
				break
			}
			wg.Add(1)
			go func(platform domain.Platform) {
				defer wg.Done()
				defer sem.Release(1)

				metrics, err := o.deps.Gateway.Fetch(ctx, platform, hint)
				if err != nil {
					logger.Debug("platform degraded to absent",
						"artist", record.Name, "platform", platform, "error", err)
					return
				}
				mu.Lock()
				record.Metrics[platform] = metrics
				mu.Unlock()
			}(platform)
		}
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}

	state.set(func(p *Progress) { p.Enriched = len(records) })
	return nil
}

var handlePrefixes = []string{"@", "instagram.com/", "tiktok.com/@", "open.spotify.com/artist/"}

// extractHandles pulls social handles and profile slugs out of free-form
// description text; they become soft identity tokens for dedup.
func extractHandles(description string) []string {
	var handles []string
	for _, field := range strings.Fields(description) {
		field = strings.TrimRight(field, ".,;:!?)")
		for _, prefix := range handlePrefixes {
			idx := strings.Index(strings.ToLower(field), prefix)
			if idx < 0 {
				continue
			}
			handle := field[idx+len(prefix):]
			handle = strings.Trim(handle, "/@")
			if handle != "" {
				handles = append(handles, handle)
			}
			break
		}
	}
	return handles
}
