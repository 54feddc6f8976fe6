package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ArtistScout/internal/domain"
	"ArtistScout/internal/ports"
)

// Notifier sends session summaries to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// PublishSummary posts a Markdown digest of the session to Telegram.
func (n *Notifier) PublishSummary(ctx context.Context, summary domain.SessionSummary) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatSummary(summary))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatSummary(summary domain.SessionSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Discovery session* `%s`\n", summary.Query)
	fmt.Fprintf(&sb, "found %d, duplicates %d, enriched %d, stored %d\n",
		summary.Found, summary.Duplicates, summary.Enriched, summary.Stored)

	if len(summary.FilteredOut) > 0 {
		reasons := make([]string, 0, len(summary.FilteredOut))
		for reason := range summary.FilteredOut {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		sb.WriteString("filtered:")
		for _, reason := range reasons {
			fmt.Fprintf(&sb, " %s=%d", reason, summary.FilteredOut[domain.RejectReason(reason)])
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "elapsed %s, quota units %d", summary.Elapsed.Round(time.Second), summary.QuotaUnits)
	return sb.String()
}
