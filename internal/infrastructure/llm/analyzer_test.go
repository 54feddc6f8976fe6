package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ArtistScout/internal/config"
	"ArtistScout/internal/domain"
)

func chatReply(content string) string {
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(reply)
	return string(raw)
}

func newTestAnalyzer(endpoint string) *Analyzer {
	return New(config.LLMConfig{
		Endpoint: endpoint,
		Model:    "gpt-test",
		APIKey:   "key",
	})
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization header: %q", got)
		}

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Model != "gpt-test" {
			t.Errorf("unexpected model: %s", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[1].Content != "sample lyrics" {
			t.Errorf("unexpected messages: %+v", payload.Messages)
		}

		_, _ = w.Write([]byte(chatReply("7")))
	}))
	defer server.Close()

	analyzer := newTestAnalyzer(server.URL)

	rating, err := analyzer.Analyze(context.Background(), "sample lyrics")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if rating != 7 {
		t.Fatalf("expected rating 7, got %v", rating)
	}
}

func TestAnalyzeVerboseReply(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("I would rate these lyrics 8.5, strong imagery.")))
	}))
	defer server.Close()

	analyzer := newTestAnalyzer(server.URL)

	rating, err := analyzer.Analyze(context.Background(), "sample lyrics")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if rating != 8.5 {
		t.Fatalf("expected rating 8.5, got %v", rating)
	}
}

func TestAnalyzeRateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	analyzer := newTestAnalyzer(server.URL)

	_, err := analyzer.Analyze(context.Background(), "sample lyrics")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestAnalyzeMissingKey(t *testing.T) {
	t.Parallel()

	analyzer := New(config.LLMConfig{Endpoint: "http://unused.example.com", Model: "gpt-test"})

	_, err := analyzer.Analyze(context.Background(), "sample lyrics")
	if !errors.Is(err, domain.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}
}

func TestFetchEmptySampleText(t *testing.T) {
	t.Parallel()

	analyzer := newTestAnalyzer("http://unused.example.com")

	_, err := analyzer.Fetch(context.Background(), domain.EnrichmentHint{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty sample text, got %v", err)
	}
}

func TestFetchProducesQualityMetric(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("6")))
	}))
	defer server.Close()

	analyzer := newTestAnalyzer(server.URL)

	metrics, err := analyzer.Fetch(context.Background(), domain.EnrichmentHint{SampleText: "verse one"})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if metrics.Platform != domain.PlatformContent {
		t.Fatalf("unexpected platform: %s", metrics.Platform)
	}
	if metrics.Quality != 6 {
		t.Fatalf("unexpected quality: %v", metrics.Quality)
	}
}

func TestParseRatingClamps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		content string
		want    float64
	}{
		{"15", 10},
		{"-2", 0},
		{"Rating: 9.", 9},
	}
	for _, tc := range cases {
		got, err := parseRating(tc.content)
		if err != nil {
			t.Fatalf("parseRating(%q) error: %v", tc.content, err)
		}
		if got != tc.want {
			t.Fatalf("parseRating(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}

	if _, err := parseRating("no numbers here"); err == nil {
		t.Fatal("expected error when reply has no number")
	}
}
