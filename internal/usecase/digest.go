package usecase

import (
	"sync"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
)

// DefaultDigestMaxSize bounds the digest cache; oldest entries are dropped on
// overflow so a disabled consumer cannot grow the cache without limit.
const DefaultDigestMaxSize = 500

// DigestCache accumulates suppressed and low-priority signals in arrival order
// until a periodic consumer drains them into a digest notification.
type DigestCache struct {
	mu      sync.Mutex
	entries []models.TradingSignal
	maxSize int
	metrics drepo.Metrics
}

type DigestOption func(*DigestCache)

// WithDigestMaxSize overrides the cache bound.
func WithDigestMaxSize(n int) DigestOption {
	return func(d *DigestCache) {
		if n > 0 {
			d.maxSize = n
		}
	}
}

func NewDigestCache(metrics drepo.Metrics, opts ...DigestOption) *DigestCache {
	d := &DigestCache{maxSize: DefaultDigestMaxSize, metrics: metrics}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Append adds a signal, dropping the oldest entry when the bound is reached.
func (d *DigestCache) Append(sig models.TradingSignal) {
	d.mu.Lock()
	if len(d.entries) >= d.maxSize {
		d.entries = d.entries[1:]
		if d.metrics != nil {
			d.metrics.RecordError("digest_overflow")
		}
	}
	d.entries = append(d.entries, sig)
	n := len(d.entries)
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RecordDigestDepth(n)
	}
}

// Snapshot returns a stable copy of the current entries in arrival order.
func (d *DigestCache) Snapshot() []models.TradingSignal {
	d.mu.Lock()
	out := make([]models.TradingSignal, len(d.entries))
	copy(out, d.entries)
	d.mu.Unlock()
	return out
}

// Drain atomically removes and returns all entries.
func (d *DigestCache) Drain() []models.TradingSignal {
	d.mu.Lock()
	out := d.entries
	d.entries = nil
	d.mu.Unlock()
	if d.metrics != nil {
		d.metrics.RecordDigestDepth(0)
	}
	return out
}

// Len returns the number of buffered signals.
func (d *DigestCache) Len() int {
	d.mu.Lock()
	n := len(d.entries)
	d.mu.Unlock()
	return n
}

// GroupBySymbol groups a snapshot by symbol for presentation.
func (d *DigestCache) GroupBySymbol() map[string][]models.TradingSignal {
	snap := d.Snapshot()
	out := make(map[string][]models.TradingSignal)
	for _, s := range snap {
		out[s.Symbol] = append(out[s.Symbol], s)
	}
	return out
}
