package scoring

import (
	"fmt"
	"time"

	"ArtistScout/internal/domain"
)

// Tier maps a raw-metric threshold to awarded points. Tiers must be
// sorted ascending by threshold with non-decreasing points so each
// platform's curve is monotonic and saturates at its weight cap.
type Tier struct {
	Threshold int64   `yaml:"threshold"`
	Points    float64 `yaml:"points"`
}

// Config carries all scoring weights, breakpoints, and penalty
// thresholds. None of the numbers are derived from first principles;
// they are deliberately tunable.
type Config struct {
	VideoWeight      float64 `yaml:"videoWeight"`
	StreamingWeight  float64 `yaml:"streamingWeight"`
	SocialWeight     float64 `yaml:"socialWeight"`
	ShortVideoWeight float64 `yaml:"shortVideoWeight"`
	ContentWeight    float64 `yaml:"contentWeight"`

	VideoTiers      []Tier `yaml:"videoTiers"`
	StreamingTiers  []Tier `yaml:"streamingTiers"`
	SocialTiers     []Tier `yaml:"socialTiers"`
	ShortVideoTiers []Tier `yaml:"shortVideoTiers"`

	// A streaming-audience to social-audience ratio above this flags
	// likely artificial inflation. Zero disables the check.
	StreamingSocialRatio float64 `yaml:"streamingSocialRatio"`
	// Plays-to-audience ratio on the video platform above this flags
	// bought views. Zero disables the check.
	PlaysAudienceRatio float64 `yaml:"playsAudienceRatio"`
	PenaltyPoints      float64 `yaml:"penaltyPoints"`
	PenaltyCap         float64 `yaml:"penaltyCap"`
}

// DefaultConfig mirrors the documented 30/25/20/15/10 weight split.
func DefaultConfig() Config {
	return Config{
		VideoWeight:      30,
		StreamingWeight:  25,
		SocialWeight:     20,
		ShortVideoWeight: 15,
		ContentWeight:    10,
		VideoTiers: []Tier{
			{Threshold: 1_000, Points: 8},
			{Threshold: 10_000, Points: 15},
			{Threshold: 50_000, Points: 22},
			{Threshold: 200_000, Points: 30},
		},
		StreamingTiers: []Tier{
			{Threshold: 1_000, Points: 6},
			{Threshold: 10_000, Points: 13},
			{Threshold: 50_000, Points: 19},
			{Threshold: 250_000, Points: 25},
		},
		SocialTiers: []Tier{
			{Threshold: 1_000, Points: 5},
			{Threshold: 10_000, Points: 11},
			{Threshold: 50_000, Points: 16},
			{Threshold: 200_000, Points: 20},
		},
		ShortVideoTiers: []Tier{
			{Threshold: 1_000, Points: 4},
			{Threshold: 10_000, Points: 8},
			{Threshold: 50_000, Points: 12},
			{Threshold: 200_000, Points: 15},
		},
		StreamingSocialRatio: 50,
		PlaysAudienceRatio:   200,
		PenaltyPoints:        10,
		PenaltyCap:           20,
	}
}

// Engine computes bounded discovery scores from per-platform metrics.
type Engine struct {
	cfg Config
	now func() time.Time
}

// New validates the configuration and builds an engine. Weights must
// sum to 100 so the unpenalized score stays in [0,100].
func New(cfg Config) (*Engine, error) {
	sum := cfg.VideoWeight + cfg.StreamingWeight + cfg.SocialWeight + cfg.ShortVideoWeight + cfg.ContentWeight
	if sum != 100 {
		return nil, fmt.Errorf("scoring weights sum to %.1f, want 100", sum)
	}
	for platform, tiers := range map[domain.Platform][]Tier{
		domain.PlatformVideo:      cfg.VideoTiers,
		domain.PlatformStreaming:  cfg.StreamingTiers,
		domain.PlatformSocial:     cfg.SocialTiers,
		domain.PlatformShortVideo: cfg.ShortVideoTiers,
	} {
		if err := validateTiers(tiers); err != nil {
			return nil, fmt.Errorf("%s tiers: %w", platform, err)
		}
	}
	return &Engine{cfg: cfg, now: time.Now}, nil
}

func validateTiers(tiers []Tier) error {
	for i := 1; i < len(tiers); i++ {
		if tiers[i].Threshold <= tiers[i-1].Threshold {
			return fmt.Errorf("thresholds not ascending at index %d", i)
		}
		if tiers[i].Points < tiers[i-1].Points {
			return fmt.Errorf("points not monotonic at index %d", i)
		}
	}
	return nil
}

// Score combines whatever metrics were obtained into an immutable
// breakdown. Platforms missing from the set contribute zero weight and
// are listed as skipped; absence is not treated as zero popularity.
func (e *Engine) Score(metrics domain.MetricSet) domain.ScoreBreakdown {
	b := domain.ScoreBreakdown{ComputedAt: e.now()}

	var total float64
	award := func(platform domain.Platform, raw int64, points float64) {
		b.Queried = append(b.Queried, platform)
		b.PlatformPoints = append(b.PlatformPoints, domain.PlatformPoints{
			Platform: platform,
			Points:   points,
			Raw:      raw,
		})
		total += points
	}

	if m, ok := metrics[domain.PlatformVideo]; ok {
		award(domain.PlatformVideo, m.Plays, tierPoints(e.cfg.VideoTiers, m.Plays, e.cfg.VideoWeight))
	} else {
		b.Skipped = append(b.Skipped, domain.PlatformVideo)
	}
	if m, ok := metrics[domain.PlatformStreaming]; ok {
		award(domain.PlatformStreaming, m.Audience, tierPoints(e.cfg.StreamingTiers, m.Audience, e.cfg.StreamingWeight))
	} else {
		b.Skipped = append(b.Skipped, domain.PlatformStreaming)
	}
	if m, ok := metrics[domain.PlatformSocial]; ok {
		award(domain.PlatformSocial, m.Audience, tierPoints(e.cfg.SocialTiers, m.Audience, e.cfg.SocialWeight))
	} else {
		b.Skipped = append(b.Skipped, domain.PlatformSocial)
	}
	if m, ok := metrics[domain.PlatformShortVideo]; ok {
		award(domain.PlatformShortVideo, m.Audience, tierPoints(e.cfg.ShortVideoTiers, m.Audience, e.cfg.ShortVideoWeight))
	} else {
		b.Skipped = append(b.Skipped, domain.PlatformShortVideo)
	}
	if m, ok := metrics[domain.PlatformContent]; ok {
		quality := clamp(m.Quality, 0, 10)
		award(domain.PlatformContent, int64(quality), quality/10*e.cfg.ContentWeight)
	} else {
		b.Skipped = append(b.Skipped, domain.PlatformContent)
	}

	b.Penalties = e.penalties(metrics)
	penalty := clamp(b.PenaltyTotal(), 0, e.cfg.PenaltyCap)

	b.Final = clamp(total-penalty, 0, 100)
	return b
}

// penalties compares ratios between platforms expected to correlate.
// Both platforms must actually have been queried; an absent platform
// never triggers a penalty.
func (e *Engine) penalties(metrics domain.MetricSet) []domain.Penalty {
	var out []domain.Penalty

	streaming, hasStreaming := metrics[domain.PlatformStreaming]
	social, hasSocial := metrics[domain.PlatformSocial]
	if e.cfg.StreamingSocialRatio > 0 && hasStreaming && hasSocial && social.Audience > 0 {
		ratio := float64(streaming.Audience) / float64(social.Audience)
		if ratio > e.cfg.StreamingSocialRatio {
			out = append(out, domain.Penalty{
				Reason: fmt.Sprintf("streaming listeners %.0fx social followers", ratio),
				Points: e.cfg.PenaltyPoints,
			})
		}
	}

	video, hasVideo := metrics[domain.PlatformVideo]
	if e.cfg.PlaysAudienceRatio > 0 && hasVideo && video.Audience > 0 {
		ratio := float64(video.Plays) / float64(video.Audience)
		if ratio > e.cfg.PlaysAudienceRatio {
			out = append(out, domain.Penalty{
				Reason: fmt.Sprintf("video plays %.0fx subscriber count", ratio),
				Points: e.cfg.PenaltyPoints,
			})
		}
	}

	return out
}

// tierPoints awards the highest tier the raw value reaches, capped at
// the platform weight however large the raw value is.
func tierPoints(tiers []Tier, raw int64, weight float64) float64 {
	var points float64
	for _, t := range tiers {
		if raw < t.Threshold {
			break
		}
		points = t.Points
	}
	return clamp(points, 0, weight)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
