package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"ArtistScout/internal/cache"
	"ArtistScout/internal/domain"
	"ArtistScout/internal/quota"
)

const fetchOperation = "fetch"

// GatewayConfig tunes the gated call path.
type GatewayConfig struct {
	MaxRetries  uint64
	BaseBackoff time.Duration
	CacheTTL    time.Duration
}

// Gateway routes every enrichment call through the quota ledger and the
// response cache, retrying transient failures with exponential backoff.
// A platform whose adapter reports itself unavailable is disabled for
// the remainder of the gateway's life and logged once.
type Gateway struct {
	registry *Registry
	ledger   *quota.Ledger
	cache    *cache.Cache
	cfg      GatewayConfig
	logger   *slog.Logger

	mu       sync.Mutex
	disabled map[domain.Platform]bool
}

// NewGateway wires the registry behind the quota and cache layers.
func NewGateway(registry *Registry, ledger *quota.Ledger, respCache *cache.Cache, cfg GatewayConfig, logger *slog.Logger) *Gateway {
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Gateway{
		registry: registry,
		ledger:   ledger,
		cache:    respCache,
		cfg:      cfg,
		logger:   logger,
		disabled: map[domain.Platform]bool{},
	}
}

// Fetch runs one metered, memoized adapter call. Cache hits consume no
// quota. A denied reservation returns ErrQuotaExhausted; any call
// failure releases the reservation so budget never leaks.
func (g *Gateway) Fetch(ctx context.Context, platform domain.Platform, hint domain.EnrichmentHint) (domain.PlatformMetrics, error) {
	if g.isDisabled(platform) {
		return domain.PlatformMetrics{}, fmt.Errorf("%s: %w", platform, domain.ErrAdapterUnavailable)
	}

	adapter, err := g.registry.Resolve(platform)
	if err != nil {
		return domain.PlatformMetrics{}, err
	}

	params := cacheParams(hint)
	if value, ok := g.cache.Get(string(platform), fetchOperation, params); ok {
		if metrics, ok := value.(domain.PlatformMetrics); ok {
			return metrics, nil
		}
	}

	grant, err := g.ledger.Reserve(string(platform), fetchOperation, 1)
	if err != nil {
		return domain.PlatformMetrics{}, err
	}

	var metrics domain.PlatformMetrics
	backoff := retry.WithMaxRetries(g.cfg.MaxRetries, retry.NewExponential(g.cfg.BaseBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var fetchErr error
		metrics, fetchErr = adapter.Fetch(ctx, hint)
		if errors.Is(fetchErr, domain.ErrRateLimited) {
			return retry.RetryableError(fetchErr)
		}
		return fetchErr
	})
	if err != nil {
		g.ledger.Release(grant)
		if errors.Is(err, domain.ErrAdapterUnavailable) {
			g.disable(platform, err)
		}
		return domain.PlatformMetrics{}, fmt.Errorf("fetch %s: %w", platform, err)
	}

	g.ledger.Commit(grant)
	g.cache.Put(string(platform), fetchOperation, params, metrics, g.cfg.CacheTTL)
	return metrics, nil
}

func (g *Gateway) isDisabled(platform domain.Platform) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disabled[platform]
}

func (g *Gateway) disable(platform domain.Platform, cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disabled[platform] {
		return
	}
	g.disabled[platform] = true
	if g.logger != nil {
		g.logger.Warn("platform disabled for session", "platform", platform, "error", cause)
	}
}

// cacheParams canonicalizes the identity hint; the sample text is left
// out because it does not change which profile is fetched.
func cacheParams(hint domain.EnrichmentHint) map[string]string {
	params := map[string]string{}
	if hint.Identity.ChannelID != "" {
		params["channel"] = hint.Identity.ChannelID
	}
	if hint.Identity.StreamingID != "" {
		params["streaming"] = hint.Identity.StreamingID
	}
	if hint.Identity.Name != "" {
		params["name"] = hint.Identity.Name
	}
	for i, handle := range hint.Identity.Handles {
		params[fmt.Sprintf("handle%d", i)] = handle
	}
	return params
}
