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

// SocialClient fetches follower counts from the image/social platform.
type SocialClient struct {
	client
}

var _ ports.PlatformAdapter = (*SocialClient)(nil)

// NewSocial builds the social metrics adapter.
func NewSocial(endpoint, apiKey string, httpClient *http.Client) *SocialClient {
	return &SocialClient{client: newClient(endpoint, apiKey, httpClient)}
}

// Platform identifies this adapter inside the registry.
func (s *SocialClient) Platform() domain.Platform {
	return domain.PlatformSocial
}

// Fetch looks the profile up by handle, falling back to the artist name.
func (s *SocialClient) Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
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
	}
	if err := s.getJSON(ctx, "/profiles", query, &payload); err != nil {
		return domain.PlatformMetrics{}, fmt.Errorf("social: %w", err)
	}
	if payload.Followers == nil {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}

	return domain.PlatformMetrics{
		Platform:  domain.PlatformSocial,
		Audience:  *payload.Followers,
		FetchedAt: time.Now(),
	}, nil
}
