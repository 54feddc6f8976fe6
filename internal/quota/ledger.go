package quota

import (
	"fmt"
	"sync"
	"time"

	"ArtistScout/internal/domain"
)

// BucketConfig declares one metered (provider, operation) budget.
// UnitCost is how many budget units a single reserved unit consumes,
// so call pricing stays configuration rather than logic.
type BucketConfig struct {
	Provider   string `yaml:"provider"`
	Operation  string `yaml:"operation"`
	DailyLimit int64  `yaml:"dailyLimit"`
	UnitCost   int64  `yaml:"unitCost"`
}

type bucketKey struct {
	provider  string
	operation string
}

type bucket struct {
	limit    int64
	unitCost int64
	consumed int64
	reserved int64
	window   time.Time
}

// Grant is a successful reservation awaiting Commit or Release.
type Grant struct {
	provider  string
	operation string
	cost      int64
	settled   bool
}

// Counters exposes commit/release/denial totals for monitoring.
type Counters struct {
	Commits  uint64
	Releases uint64
	Denials  uint64
}

// Ledger admits or rejects provider calls against daily budgets.
// Reservation is the sole synchronization point preventing overrun:
// concurrent reservations never jointly exceed a bucket's limit.
type Ledger struct {
	mu       sync.Mutex
	buckets  map[bucketKey]*bucket
	counters Counters
	now      func() time.Time
}

// NewLedger builds a ledger from configured buckets. Calls against
// unconfigured (provider, operation) pairs are admitted unmetered.
func NewLedger(configs []BucketConfig) *Ledger {
	l := &Ledger{
		buckets: make(map[bucketKey]*bucket, len(configs)),
		now:     time.Now,
	}
	for _, cfg := range configs {
		cost := cfg.UnitCost
		if cost <= 0 {
			cost = 1
		}
		l.buckets[bucketKey{cfg.Provider, cfg.Operation}] = &bucket{
			limit:    cfg.DailyLimit,
			unitCost: cost,
		}
	}
	return l
}

// Reserve atomically holds units*cost budget for one call. A denied
// reservation consumes nothing.
func (l *Ledger) Reserve(provider, operation string, units int64) (*Grant, error) {
	if units <= 0 {
		units = 1
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketKey{provider, operation}]
	if !ok {
		return &Grant{provider: provider, operation: operation}, nil
	}

	l.roll(b)
	cost := units * b.unitCost
	if b.consumed+b.reserved+cost > b.limit {
		l.counters.Denials++
		return nil, fmt.Errorf("%s/%s: %w", provider, operation, domain.ErrQuotaExhausted)
	}

	b.reserved += cost
	return &Grant{provider: provider, operation: operation, cost: cost}, nil
}

// Commit converts a reservation into consumption. A reservation that
// spans the replenish boundary consumes from the bucket in effect now.
// Committing an already settled grant is a no-op.
func (l *Ledger) Commit(g *Grant) {
	if g == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if g.settled {
		return
	}
	g.settled = true
	l.counters.Commits++

	b, ok := l.buckets[bucketKey{g.provider, g.operation}]
	if !ok {
		return
	}
	l.roll(b)
	if b.reserved >= g.cost {
		b.reserved -= g.cost
	} else {
		b.reserved = 0
	}
	b.consumed += g.cost
}

// Release returns a reservation's units exactly once; required after a
// failed call so budget does not leak.
func (l *Ledger) Release(g *Grant) {
	if g == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if g.settled {
		return
	}
	g.settled = true
	l.counters.Releases++

	b, ok := l.buckets[bucketKey{g.provider, g.operation}]
	if !ok {
		return
	}
	l.roll(b)
	if b.reserved >= g.cost {
		b.reserved -= g.cost
	} else {
		b.reserved = 0
	}
}

// BucketStatus is a point-in-time view of one bucket.
type BucketStatus struct {
	Provider  string
	Operation string
	Limit     int64
	Used      int64
	ResetsAt  time.Time
}

// Status reports every bucket belonging to the provider.
func (l *Ledger) Status(provider string) []BucketStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []BucketStatus
	for key, b := range l.buckets {
		if key.provider != provider {
			continue
		}
		l.roll(b)
		out = append(out, BucketStatus{
			Provider:  key.provider,
			Operation: key.operation,
			Limit:     b.limit,
			Used:      b.consumed,
			ResetsAt:  b.window.Add(24 * time.Hour),
		})
	}
	return out
}

// ConsumedUnits totals committed consumption across all buckets.
func (l *Ledger) ConsumedUnits() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, b := range l.buckets {
		l.roll(b)
		total += b.consumed
	}
	return total
}

// Counters returns commit/release/denial totals.
func (l *Ledger) Counters() Counters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counters
}

// roll resets a bucket when the daily wall-clock boundary has passed.
// Caller holds l.mu.
func (l *Ledger) roll(b *bucket) {
	window := l.now().UTC().Truncate(24 * time.Hour)
	if !b.window.Equal(window) {
		b.window = window
		b.consumed = 0
		b.reserved = 0
	}
}
