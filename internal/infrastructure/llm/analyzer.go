package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ArtistScout/internal/config"
	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

// Analyzer rates lyric/theme text through an OpenAI-compatible chat API.
// It also acts as the content-quality platform adapter, so the call is
// metered and memoized like any other enrichment.
type Analyzer struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.LyricAnalyzer = (*Analyzer)(nil)
var _ ports.PlatformAdapter = (*Analyzer)(nil)

// New builds an analyzer from configuration.
func New(cfg config.LLMConfig) *Analyzer {
	return &Analyzer{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: safePrompt(cfg.SystemPrompt),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Platform identifies this adapter inside the registry.
func (a *Analyzer) Platform() domain.Platform {
	return domain.PlatformContent
}

// Fetch adapts Analyze to the platform-adapter shape using the hint's
// sample text.
func (a *Analyzer) Fetch(ctx context.Context, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
	if strings.TrimSpace(hint.SampleText) == "" {
		return domain.PlatformMetrics{}, domain.ErrNotFound
	}
	quality, err := a.Analyze(ctx, hint.SampleText)
	if err != nil {
		return domain.PlatformMetrics{}, err
	}
	return domain.PlatformMetrics{
		Platform:  domain.PlatformContent,
		Quality:   quality,
		FetchedAt: time.Now(),
	}, nil
}

// Analyze posts the text as a user message and parses the 0..10 rating
// out of the reply.
func (a *Analyzer) Analyze(ctx context.Context, text string) (float64, error) {
	if a.apiKey == "" || a.endpoint == "" || a.model == "" {
		return 0, fmt.Errorf("lyric analyzer misconfigured: %w", domain.ErrAdapterUnavailable)
	}

	body, err := json.Marshal(map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": a.systemPrompt},
			{"role": "user", "content": text},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal analyzer payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("analyze text: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, domain.ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return 0, fmt.Errorf("status %s: %w", resp.Status, domain.ErrAdapterUnavailable)
	case resp.StatusCode >= http.StatusBadRequest:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("analyzer error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return 0, fmt.Errorf("decode analyzer response: %w", err)
	}
	if len(reply.Choices) == 0 {
		return 0, fmt.Errorf("analyzer returned no choices")
	}

	return parseRating(reply.Choices[0].Message.Content)
}

// parseRating extracts the first number in the reply and clamps it to
// the 0..10 signal range.
func parseRating(content string) (float64, error) {
	for _, field := range strings.Fields(content) {
		field = strings.Trim(field, ".,;:!")
		rating, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		if rating < 0 {
			rating = 0
		}
		if rating > 10 {
			rating = 10
		}
		return rating, nil
	}
	return 0, fmt.Errorf("no rating in analyzer reply %q", strings.TrimSpace(content))
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "Rate the originality and craft of these song lyrics from 0 to 10. Reply with the number only."
	}
	return prompt
}
