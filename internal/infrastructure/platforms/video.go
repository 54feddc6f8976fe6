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

// VideoClient fetches channel statistics from the video platform; the
// view signal feeds the primary score weight and the subscriber count
// anchors the inflated-views penalty.
type VideoClient struct {
	client
}

var _ ports.PlatformAdapter = (*VideoClient)(nil)

// NewVideo builds the video-platform channel stats adapter.
func NewVideo(endpoint, apiKey string, httpClient *http.Client) *VideoClient {
	return &VideoClient{client: newClient(endpoint, apiKey, httpClient)}
}

// Platform identifies this adapter inside the registry.
func (v *VideoClient) Platform() domain.Platform {
	return domain.PlatformVideo
}

// Fetch resolves channel statistics by channel id.
func (v *VideoClient) Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
	if hint.Identity.ChannelID == "" {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}
	query := url.Values{}
	query.Set("id", hint.Identity.ChannelID)

	var payload struct {
		ChannelID   string `json:"channel_id"`
		Subscribers *int64 `json:"subscribers"`
		TotalViews  *int64 `json:"total_views"`
	}
	if err := v.getJSON(ctx, "/channels", query, &payload); err != nil {
		return domain.PlatformMetrics{}, fmt.Errorf("video: %w", err)
	}
	if payload.TotalViews == nil {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	metrics := domain.PlatformMetrics{
		Platform:  domain.PlatformVideo,
		Plays:     *payload.TotalViews,
		FetchedAt: time.Now(),
	}
	if payload.Subscribers != nil {
		metrics.Audience = *payload.Subscribers
	}
	return metrics, nil
}
