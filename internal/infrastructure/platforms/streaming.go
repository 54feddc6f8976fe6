package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

// StreamingClient fetches monthly-listener counts from the streaming
// service's artist API.
type StreamingClient struct {
	client
}

var _ ports.PlatformAdapter = (*StreamingClient)(nil)

// NewStreaming builds the streaming metrics adapter.
func NewStreaming(endpoint, apiKey string, httpClient *http.Client) *StreamingClient {
	return &StreamingClient{client: newClient(endpoint, apiKey, httpClient)}
}

// Platform identifies this adapter inside the registry.
func (s *StreamingClient) Platform() domain.Platform {
	return domain.PlatformStreaming
}

// Fetch resolves the artist and normalizes the payload. A payload
// without a monthly-listener figure is treated as not found rather than
// guessed as zero.
func (s *StreamingClient) Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
	query := url.Values{}
	if hint.Identity.StreamingID != "" {
		query.Set("id", hint.Identity.StreamingID)
	} else if hint.Identity.Name != "" {
		query.Set("name", hint.Identity.Name)
	} else {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	var payload struct {
		ID               string `json:"id"`
		MonthlyListeners *int64 `json:"monthly_listeners"`
		StreamCount      *int64 `json:"stream_count"`
	}
	if err := s.getJSON(ctx, "/artists", query, &payload); err != nil {
		return domain.PlatformMetrics{}, fmt.Errorf("streaming: %w", err)
	}
	if payload.MonthlyListeners == nil {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	metrics := domain.PlatformMetrics{
		Platform:  domain.PlatformStreaming,
		Audience:  *payload.MonthlyListeners,
		FetchedAt: time.Now(),
	}
	if payload.StreamCount != nil {
		metrics.Plays = *payload.StreamCount
	}
	return metrics, nil
}
