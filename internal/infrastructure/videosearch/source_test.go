package videosearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArtistScout/internal/ports"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	src := New("https://video.example.com/results", nil)
	filters := ports.SearchFilters{
		PublishedAfter: time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		MaxDuration:    10 * time.Minute,
		HDOnly:         true,
	}

	u, err := src.buildPageURL("indie band", filters, 3)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	q := parsed.Query()
	if q.Get("q") != "indie band" {
		t.Fatalf("expected q=indie band, got %s", q.Get("q"))
	}
	if q.Get("page") != "3" {
		t.Fatalf("expected page=3, got %s", q.Get("page"))
	}
	if q.Get("published_after") != "2026-08-01T00:00:00Z" {
		t.Fatalf("unexpected published_after: %s", q.Get("published_after"))
	}
	if q.Get("max_duration") != "600" {
		t.Fatalf("expected max_duration=600, got %s", q.Get("max_duration"))
	}
	if q.Get("hd") != "1" {
		t.Fatalf("expected hd=1, got %s", q.Get("hd"))
	}
}

func TestParseResult(t *testing.T) {
	t.Parallel()

	html := `
	<ul>
	  <li class="video-result" data-video-id="vid-1" data-channel-id="ch-1" data-lang="en">
	    <h3 class="video-title"> Midnight Run (Official Video) </h3>
	    <span class="channel-name">Night Harbor</span>
	    <p class="video-description">Debut single. Follow us @nightharbor</p>
	    <span class="view-count">12,345 views</span>
	    <span class="duration">3:45</span>
	    <span class="publish-date">2026-08-20</span>
	  </li>
	</ul>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	candidate, ok := parseResult(doc.Find("li.video-result").First())
	if !ok {
		t.Fatal("expected result to parse")
	}

	if candidate.VideoID != "vid-1" {
		t.Fatalf("unexpected video id: %s", candidate.VideoID)
	}
	if candidate.ChannelID != "ch-1" {
		t.Fatalf("unexpected channel id: %s", candidate.ChannelID)
	}
	if candidate.Title != "Midnight Run (Official Video)" {
		t.Fatalf("unexpected title: %q", candidate.Title)
	}
	if candidate.ChannelName != "Night Harbor" {
		t.Fatalf("unexpected channel name: %q", candidate.ChannelName)
	}
	if candidate.Language != "en" {
		t.Fatalf("unexpected language: %s", candidate.Language)
	}
	if candidate.ViewCount != 12345 {
		t.Fatalf("unexpected view count: %d", candidate.ViewCount)
	}
	if candidate.Duration != 3*time.Minute+45*time.Second {
		t.Fatalf("unexpected duration: %v", candidate.Duration)
	}
	if candidate.PublishedAt.Format("2006-01-02") != "2026-08-20" {
		t.Fatalf("unexpected publish date: %v", candidate.PublishedAt)
	}
}

func TestParseResultSkipsEntriesWithoutIDs(t *testing.T) {
	t.Parallel()

	html := `<li class="video-result" data-video-id="vid-1"><h3 class="video-title">No channel</h3></li>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	if _, ok := parseResult(doc.Find("li.video-result").First()); ok {
		t.Fatal("expected entry without channel id to be skipped")
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int64
	}{
		{"12,345 views", 12345},
		{"7 views", 7},
		{"no views yet", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parseCount(tc.text); got != tc.want {
			t.Fatalf("parseCount(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want time.Duration
	}{
		{"3:45", 3*time.Minute + 45*time.Second},
		{"1:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"45", 0},
		{"bad:input", 0},
	}
	for _, tc := range cases {
		if got := parseDuration(tc.text); got != tc.want {
			t.Fatalf("parseDuration(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "new artists" {
			t.Errorf("unexpected query: %s", r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(`
		<ul>
		  <li class="video-result" data-video-id="vid-1" data-channel-id="ch-1" data-lang="en">
		    <h3 class="video-title">First</h3>
		    <span class="channel-name">One</span>
		    <span class="view-count">1,000 views</span>
		  </li>
		  <li class="video-result" data-video-id="vid-2" data-channel-id="ch-2" data-lang="en">
		    <h3 class="video-title">Second</h3>
		    <span class="channel-name">Two</span>
		    <span class="view-count">2,000 views</span>
		  </li>
		</ul>
		<a class="next-page" href="?page=2">Next</a>`))
	}))
	defer server.Close()

	src := New(server.URL, server.Client())

	page, err := src.Search(context.Background(), "new artists", ports.SearchFilters{}, 1)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}

	if len(page.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(page.Candidates))
	}
	if page.Candidates[0].VideoID != "vid-1" || page.Candidates[1].VideoID != "vid-2" {
		t.Fatalf("unexpected candidate ids: %s, %s", page.Candidates[0].VideoID, page.Candidates[1].VideoID)
	}
	if !page.HasMore {
		t.Fatal("expected HasMore when a next-page link is present")
	}
}

func TestSearchErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	src := New(server.URL, server.Client())

	if _, err := src.Search(context.Background(), "q", ports.SearchFilters{}, 1); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
