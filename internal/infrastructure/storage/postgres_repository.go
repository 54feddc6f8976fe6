package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

// PostgresRepository persists validated artists and their identity
// fingerprints. Upserts are idempotent by canonical channel identity.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArtistRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Upsert inserts the artist or, on channel conflict, refreshes the
// score snapshot of the existing row. The outcome distinguishes a new
// store from a conflict so the orchestrator can count late duplicates.
func (r *PostgresRepository) Upsert(ctx context.Context, record domain.ArtistRecord) (ports.UpsertOutcome, error) {
	if r.db == nil {
		return ports.UpsertOutcome{}, fmt.Errorf("repository has no database")
	}

	var score float64
	var breakdownJSON []byte
	if record.Breakdown != nil {
		score = record.Breakdown.Final
		raw, err := json.Marshal(record.Breakdown)
		if err != nil {
			return ports.UpsertOutcome{}, fmt.Errorf("marshal breakdown: %w", err)
		}
		breakdownJSON = raw
	}

	query := r.builder.
		Insert("artists").
		Columns("id", "name", "channel_id", "streaming_id", "handles", "score", "breakdown", "status").
		Values(
			record.ID,
			record.Name,
			record.Identity.ChannelID,
			record.Identity.StreamingID,
			pq.StringArray(record.Identity.Handles),
			score,
			breakdownJSON,
			string(domain.StatusStored),
		).
		Suffix(`ON CONFLICT (channel_id) DO UPDATE
	            SET score = EXCLUDED.score,
	                breakdown = EXCLUDED.breakdown,
	                updated_at = NOW()
	            RETURNING id, (xmax = 0) AS inserted`).
		RunWith(r.db)

	var storedID string
	var inserted bool
	if err := query.QueryRowContext(ctx).Scan(&storedID, &inserted); err != nil {
		return ports.UpsertOutcome{}, fmt.Errorf("upsert artist: %w", err)
	}

	if !inserted {
		return ports.UpsertOutcome{Stored: false, ExistingID: storedID}, nil
	}

	if err := r.saveFingerprint(ctx, record); err != nil {
		return ports.UpsertOutcome{}, err
	}
	return ports.UpsertOutcome{Stored: true, ExistingID: storedID}, nil
}

func (r *PostgresRepository) saveFingerprint(ctx context.Context, record domain.ArtistRecord) error {
	query := r.builder.
		Insert("artist_fingerprints").
		Columns("artist_id", "channel_id", "streaming_id", "handles", "name").
		Values(
			record.ID,
			record.Identity.ChannelID,
			record.Identity.StreamingID,
			pq.StringArray(record.Identity.Handles),
			record.Identity.Name,
		).
		Suffix("ON CONFLICT (artist_id) DO NOTHING").
		RunWith(r.db)

	if _, err := query.ExecContext(ctx); err != nil {
		return fmt.Errorf("save fingerprint: %w", err)
	}
	return nil
}

// KnownFingerprints loads identity tokens of every stored artist so the
// deduplicator can be seeded at session start.
func (r *PostgresRepository) KnownFingerprints(ctx context.Context) ([]domain.FingerprintEntry, error) {
	if r.db == nil {
		return nil, nil
	}

	query := r.builder.
		Select("artist_id", "channel_id", "streaming_id", "handles", "name").
		From("artist_fingerprints").
		RunWith(r.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	var entries []domain.FingerprintEntry
	for rows.Next() {
		var entry domain.FingerprintEntry
		var handles pq.StringArray
		if err := rows.Scan(
			&entry.ArtistID,
			&entry.Identity.ChannelID,
			&entry.Identity.StreamingID,
			&handles,
			&entry.Identity.Name,
		); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		entry.Identity.Handles = handles
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return entries, nil
}
