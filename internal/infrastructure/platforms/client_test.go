package platforms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ArtistScout/internal/domain"
)

func TestGetJSONStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"unauthorized", http.StatusUnauthorized, domain.ErrAdapterUnavailable},
		{"forbidden", http.StatusForbidden, domain.ErrAdapterUnavailable},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			c := newClient(server.URL, "key", server.Client())
			var out struct{}
			err := c.getJSON(context.Background(), "/artists", nil, &out)
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d mapped to %v, want %v", tc.status, err, tc.want)
			}
		})
	}
}

func TestGetJSONSendsBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newClient(server.URL, "secret", server.Client())
	var out struct{}
	if err := c.getJSON(context.Background(), "/artists", nil, &out); err != nil {
		t.Fatalf("getJSON error: %v", err)
	}
}

func TestStreamingFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artists" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "artist-1" {
			t.Errorf("unexpected id: %s", r.URL.Query().Get("id"))
		}
		_, _ = w.Write([]byte(`{"id":"artist-1","monthly_listeners":42000,"stream_count":910000}`))
	}))
	defer server.Close()

	adapter := NewStreaming(server.URL, "key", server.Client())

	metrics, err := adapter.Fetch(context.Background(), domain.EnrichmentHint{
		Identity: domain.Identity{StreamingID: "artist-1"},
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if metrics.Platform != domain.PlatformStreaming {
		t.Fatalf("unexpected platform: %s", metrics.Platform)
	}
	if metrics.Audience != 42000 {
		t.Fatalf("unexpected audience: %d", metrics.Audience)
	}
	if metrics.Plays != 910000 {
		t.Fatalf("unexpected plays: %d", metrics.Plays)
	}
}

func TestStreamingFetchMissingFieldIsNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"artist-1"}`))
	}))
	defer server.Close()

	adapter := NewStreaming(server.URL, "key", server.Client())

	_, err := adapter.Fetch(context.Background(), domain.EnrichmentHint{
		Identity: domain.Identity{StreamingID: "artist-1"},
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent listener count, got %v", err)
	}
}

func TestStreamingFetchWithoutIdentity(t *testing.T) {
	t.Parallel()

	adapter := NewStreaming("http://unused.example.com", "key", nil)

	_, err := adapter.Fetch(context.Background(), domain.EnrichmentHint{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty identity, got %v", err)
	}
}
