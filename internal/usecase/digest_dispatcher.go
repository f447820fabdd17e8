package usecase

import (
	"context"
	"sync"
	"time"

	"NotiGate/pkg/logger"
)

const DefaultDigestInterval = 4 * time.Hour

// DigestDispatcher periodically drains the digest cache into a single
// summary notification. Drain-then-notify keeps the cache clear even when
// delivery fails; a lost digest is acceptable, a stuck cache is not.
type DigestDispatcher struct {
	digest   *DigestCache
	notifier *Notifier
	interval time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
}

func NewDigestDispatcher(digest *DigestCache, notifier *Notifier, interval time.Duration, lgr *logger.Logger) *DigestDispatcher {
	if interval <= 0 {
		interval = DefaultDigestInterval
	}
	return &DigestDispatcher{
		digest:   digest,
		notifier: notifier,
		interval: interval,
		logger:   lgr,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the flush loop.
func (d *DigestDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.stopCh:
				return
			case <-ticker.C:
				d.Flush(ctx)
			}
		}
	}()
}

// Stop halts the flush loop and sends a final digest for anything pending.
func (d *DigestDispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()
	close(d.stopCh)
	d.Flush(ctx)
}

// Flush drains the cache and notifies. No-op when the cache is empty.
func (d *DigestDispatcher) Flush(ctx context.Context) {
	sigs := d.digest.Drain()
	if len(sigs) == 0 {
		return
	}
	d.logger.Info("flushing digest", logger.Int("signals", len(sigs)))
	d.notifier.NotifyDigest(ctx, sigs)
}
