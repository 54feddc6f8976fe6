package videosearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

var digitsExpr = regexp.MustCompile(`[0-9][0-9,]*`)

// Source crawls the video platform's search result listing and extracts
// Candidates page by page.
type Source struct {
	endpoint string
	client   *http.Client
	pageSize int
}

var _ ports.SearchSource = (*Source)(nil)

// New wires an HTTP client; pageSize defaults to 20 results per page.
func New(endpoint string, client *http.Client) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Source{endpoint: endpoint, client: client, pageSize: 20}
}

// Search fetches one result page for the query.
func (s *Source) Search(ctx context.Context, query string, filters ports.SearchFilters, page int) (ports.SearchPage, error) {
	pageURL, err := s.buildPageURL(query, filters, page)
	if err != nil {
		return ports.SearchPage{}, err
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return ports.SearchPage{}, err
	}

	return extractPage(doc), nil
}

func (s *Source) buildPageURL(query string, filters ports.SearchFilters, page int) (string, error) {
	parsed, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint %s: %w", s.endpoint, err)
	}

	q := parsed.Query()
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(s.pageSize))
	if !filters.PublishedAfter.IsZero() {
		q.Set("published_after", filters.PublishedAfter.UTC().Format(time.RFC3339))
	}
	if filters.MaxDuration > 0 {
		q.Set("max_duration", strconv.Itoa(int(filters.MaxDuration.Seconds())))
	}
	if filters.HDOnly {
		q.Set("hd", "1")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ArtistScout/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

func extractPage(doc *goquery.Document) ports.SearchPage {
	var page ports.SearchPage

	doc.Find("li.video-result").Each(func(i int, li *goquery.Selection) {
		candidate, ok := parseResult(li)
		if !ok {
			return
		}
		page.Candidates = append(page.Candidates, candidate)
	})

	page.HasMore = doc.Find("a.next-page").Length() > 0
	return page
}

func parseResult(li *goquery.Selection) (domain.Candidate, bool) {
	videoID, _ := li.Attr("data-video-id")
	channelID, _ := li.Attr("data-channel-id")
	if videoID == "" || channelID == "" {
		return domain.Candidate{}, false
	}

	lang, _ := li.Attr("data-lang")
	candidate := domain.Candidate{
		VideoID:     videoID,
		ChannelID:   channelID,
		Language:    lang,
		Title:       strings.TrimSpace(li.Find(".video-title").First().Text()),
		ChannelName: strings.TrimSpace(li.Find(".channel-name").First().Text()),
		Description: strings.TrimSpace(li.Find(".video-description").First().Text()),
		ViewCount:   parseCount(li.Find(".view-count").First().Text()),
		Duration:    parseDuration(li.Find(".duration").First().Text()),
	}

	dateText := strings.TrimSpace(li.Find(".publish-date").First().Text())
	if parsed, err := time.Parse("2006-01-02", dateText); err == nil {
		candidate.PublishedAt = parsed
	}

	return candidate, true
}

// parseCount extracts the leading number from texts like "12,345 views".
func parseCount(text string) int64 {
	match := digitsExpr.FindString(text)
	if match == "" {
		return 0
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(match, ",", ""), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseDuration reads "3:45" or "1:02:03" clock-style durations.
func parseDuration(text string) time.Duration {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0
		}
		total = total*60 + time.Duration(n)*time.Second
	}
	return total
}
