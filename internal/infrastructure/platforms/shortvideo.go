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

// ShortVideoClient fetches follower counts from the short-video platform.
type ShortVideoClient struct {
	client
}

var _ ports.PlatformAdapter = (*ShortVideoClient)(nil)

// NewShortVideo builds the short-video metrics adapter.
func NewShortVideo(endpoint, apiKey string, httpClient *http.Client) *ShortVideoClient {
	return &ShortVideoClient{client: newClient(endpoint, apiKey, httpClient)}
}

// Platform identifies this adapter inside the registry.
func (s *ShortVideoClient) Platform() domain.Platform {
	return domain.PlatformShortVideo
}

// Fetch looks the creator up by handle, falling back to the artist name.
func (s *ShortVideoClient) Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
	query := url.Values{}
	if len(hint.Identity.Handles) > 0 {
		query.Set("handle", hint.Identity.Handles[0])
	} else if hint.Identity.Name != "" {
		query.Set("name", hint.Identity.Name)
	} else {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	var payload struct {
		Handle    string `json:"handle"`
		Followers *int64 `json:"followers"`
		Likes     *int64 `json:"likes"`
	}
	if err := s.getJSON(ctx, "/creators", query, &payload); err != nil {
		return domain.PlatformMetrics{}, fmt.Errorf("shortvideo: %w", err)
	}
	if payload.Followers == nil {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	metrics := domain.PlatformMetrics{
		Platform:  domain.PlatformShortVideo,
		Audience:  *payload.Followers,
		FetchedAt: time.Now(),
	}
	if payload.Likes != nil {
		metrics.Plays = *payload.Likes
	}
	return metrics, nil
}
