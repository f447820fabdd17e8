package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"

	drepo "NotiGate/internal/domain/repository"
	"NotiGate/pkg/logger"
)

// Category groups operational failure sources.
type Category string

const (
	CategoryAPI    Category = "API"
	CategoryDB     Category = "DB"
	CategorySystem Category = "SYS"
)

// Alert thresholds and cooldown defaults.
const (
	DefaultAPIThreshold  = 3
	DefaultDBThreshold   = 2
	DefaultAlertCooldown = 30 * time.Minute
)

// AlertSink receives an alert decided by the monitor. Implementations are
// expected to be fast (enqueue, not deliver); errors are logged and swallowed
// so failure-alerting can never cascade into the reporting caller.
type AlertSink interface {
	SendAlert(ctx context.Context, subject, message string) error
}

// Monitor tracks consecutive failures per operational key and emits at most
// one alert per key per cooldown window once the category threshold is
// crossed. Cooldown granularity is per failure key: distinct keys alert
// independently even when their rendered subjects coincide.
type Monitor struct {
	mu        sync.Mutex
	counts    map[string]int
	lastAlert map[string]time.Time

	clock   drepo.Clock
	sink    AlertSink
	logger  *logger.Logger
	metrics drepo.Metrics

	cooldown     time.Duration
	apiThreshold int
	dbThreshold  int
}

type MonitorOption func(*Monitor)

// WithAlertCooldown overrides the per-key alert cooldown window.
func WithAlertCooldown(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.cooldown = d
		}
	}
}

// WithThresholds overrides the API and DB failure thresholds.
func WithThresholds(api, db int) MonitorOption {
	return func(m *Monitor) {
		if api > 0 {
			m.apiThreshold = api
		}
		if db > 0 {
			m.dbThreshold = db
		}
	}
}

func NewMonitor(clock drepo.Clock, sink AlertSink, lgr *logger.Logger, metrics drepo.Metrics, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		counts:       make(map[string]int),
		lastAlert:    make(map[string]time.Time),
		clock:        clock,
		sink:         sink,
		logger:       lgr,
		metrics:      metrics,
		cooldown:     DefaultAlertCooldown,
		apiThreshold: DefaultAPIThreshold,
		dbThreshold:  DefaultDBThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RecordFailure increments the counter for category+key and dispatches an
// alert when the category threshold is crossed and the key is outside its
// cooldown window. Never returns an error: alerting is best-effort.
func (m *Monitor) RecordFailure(ctx context.Context, cat Category, key, message string) {
	pk := prefixedKey(cat, key)
	now := m.clock.Now()

	m.mu.Lock()
	m.counts[pk]++
	count := m.counts[pk]

	if count < m.thresholdFor(cat) {
		m.mu.Unlock()
		return
	}
	if last, ok := m.lastAlert[pk]; ok && now.Sub(last) < m.cooldown {
		m.mu.Unlock()
		return
	}
	m.lastAlert[pk] = now
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.RecordAlert(string(cat))
	}

	subject := subjectFor(cat, key)
	body := fmt.Sprintf("%s (failure #%d): %s", subject, count, message)
	if m.sink == nil {
		return
	}
	if err := m.sink.SendAlert(ctx, subject, body); err != nil {
		// Swallowed: the caller reported a failure of its own and must not
		// inherit a second one from the alerting path.
		if m.logger != nil {
			m.logger.Warn("alert dispatch failed",
				logger.String("key", pk),
				logger.Error(err))
		}
		if m.metrics != nil {
			m.metrics.RecordError("alert_dispatch")
		}
	}
}

// ResetCounter deletes the counter for category+key. The next failure counts
// from 1 again.
func (m *Monitor) ResetCounter(cat Category, key string) {
	pk := prefixedKey(cat, key)
	m.mu.Lock()
	delete(m.counts, pk)
	m.mu.Unlock()
}

// ErrorStatistics returns a copy of the current failure counters.
func (m *Monitor) ErrorStatistics() map[string]int {
	m.mu.Lock()
	out := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	m.mu.Unlock()
	return out
}

func (m *Monitor) thresholdFor(cat Category) int {
	switch cat {
	case CategoryAPI:
		return m.apiThreshold
	case CategoryDB:
		return m.dbThreshold
	default:
		// Every system exception is alert-eligible.
		return 1
	}
}

func prefixedKey(cat Category, key string) string {
	return string(cat) + "_" + key
}

func subjectFor(cat Category, key string) string {
	switch cat {
	case CategoryAPI:
		return "API failure: " + key
	case CategoryDB:
		return "Database failure: " + key
	default:
		return "System exception: " + key
	}
}
