package usecase

import (
	"sync"
	"time"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
	"NotiGate/pkg/logger"
	"NotiGate/pkg/util"
)

// Admission policy defaults. Overridable through AdmissionOption.
const (
	DefaultMaxSignalsPerDay = 20
	DefaultCooldownLevelOne = 120 * time.Minute
	DefaultCooldownLevelTwo = 60 * time.Minute
	DefaultCooldownFallback = 240 * time.Minute
)

// AdmissionController is the central stateful gate: per symbol+type cooldown
// windows keyed by level, a global daily quota, and digest routing for
// quota/level rejections. Cooldown rejections are dropped outright: the same
// condition was reported recently, so re-surfacing it in a digest is noise.
type AdmissionController struct {
	mu        sync.Mutex
	cooldowns map[string]time.Time
	sentToday int
	lastReset time.Time

	digest  *DigestCache
	clock   drepo.Clock
	metrics drepo.Metrics
	logger  *logger.Logger

	maxPerDay        int
	cooldownLevelOne time.Duration
	cooldownLevelTwo time.Duration
	cooldownFallback time.Duration
}

type AdmissionOption func(*AdmissionController)

// WithMaxSignalsPerDay overrides the daily notification quota.
func WithMaxSignalsPerDay(n int) AdmissionOption {
	return func(c *AdmissionController) {
		if n > 0 {
			c.maxPerDay = n
		}
	}
}

// WithCooldowns overrides the per-level cooldown windows.
func WithCooldowns(levelOne, levelTwo, fallback time.Duration) AdmissionOption {
	return func(c *AdmissionController) {
		if levelOne > 0 {
			c.cooldownLevelOne = levelOne
		}
		if levelTwo > 0 {
			c.cooldownLevelTwo = levelTwo
		}
		if fallback > 0 {
			c.cooldownFallback = fallback
		}
	}
}

func NewAdmissionController(digest *DigestCache, clock drepo.Clock, metrics drepo.Metrics, lgr *logger.Logger, opts ...AdmissionOption) *AdmissionController {
	c := &AdmissionController{
		cooldowns:        make(map[string]time.Time),
		digest:           digest,
		clock:            clock,
		metrics:          metrics,
		logger:           lgr,
		maxPerDay:        DefaultMaxSignalsPerDay,
		cooldownLevelOne: DefaultCooldownLevelOne,
		cooldownLevelTwo: DefaultCooldownLevelTwo,
		cooldownFallback: DefaultCooldownFallback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AdmitBatch processes signals in input order and returns those admitted for
// immediate send. Earlier signals consume quota before later ones.
func (c *AdmissionController) AdmitBatch(signals []models.TradingSignal) []models.TradingSignal {
	admitted, _, _ := c.AdmitBatchStats(signals)
	return admitted
}

// AdmitBatchStats is AdmitBatch plus digested/dropped counts for reporting.
func (c *AdmissionController) AdmitBatchStats(signals []models.TradingSignal) (admitted []models.TradingSignal, digested, dropped int) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Quota window rollover: reset exactly once per call, before any signal
	// is counted, so {sentToday, lastReset} stay consistent.
	if !util.SameCalendarDay(now, c.lastReset) {
		c.sentToday = 0
		c.lastReset = now
	}

	for _, sig := range signals {
		if c.sentToday >= c.maxPerDay {
			c.digest.Append(sig)
			digested++
			c.recordOutcome("digested", sig.Symbol)
			continue
		}
		if sig.Level != models.LevelOne && sig.Level != models.LevelTwo {
			// Coarse pre-filter: LEVEL_3 (and anything unknown) is never
			// sent immediately, regardless of risk/reward.
			c.digest.Append(sig)
			digested++
			c.recordOutcome("digested", sig.Symbol)
			continue
		}

		key := sig.CooldownKey()
		window := c.cooldownFor(sig.Level)
		if last, ok := c.cooldowns[key]; ok && now.Sub(last) < window {
			dropped++
			c.recordOutcome("dropped", sig.Symbol)
			if c.logger != nil {
				c.logger.Debug("signal in cooldown",
					logger.String("key", key),
					logger.Duration("remaining", window-now.Sub(last)))
			}
			continue
		}

		admitted = append(admitted, sig)
		c.cooldowns[key] = now
		c.sentToday++
		c.recordOutcome("admitted", sig.Symbol)
	}
	return admitted, digested, dropped
}

// SentToday returns the quota consumed so far in the current window.
func (c *AdmissionController) SentToday() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentToday
}

// SweepCooldowns removes entries older than the longest configured window.
// The key space is bounded by symbols x signal types, but a periodic sweep
// keeps long-running processes from accumulating entries for symbols that
// were removed from the watch list.
func (c *AdmissionController) SweepCooldowns() int {
	now := c.clock.Now()
	maxWindow := c.cooldownFallback
	if c.cooldownLevelOne > maxWindow {
		maxWindow = c.cooldownLevelOne
	}
	if c.cooldownLevelTwo > maxWindow {
		maxWindow = c.cooldownLevelTwo
	}

	c.mu.Lock()
	removed := 0
	for key, last := range c.cooldowns {
		if now.Sub(last) >= maxWindow {
			delete(c.cooldowns, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 && c.logger != nil {
		c.logger.Debug("cooldown sweep", logger.Int("removed", removed))
	}
	return removed
}

func (c *AdmissionController) cooldownFor(level models.SignalLevel) time.Duration {
	switch level {
	case models.LevelOne:
		return c.cooldownLevelOne
	case models.LevelTwo:
		return c.cooldownLevelTwo
	default:
		return c.cooldownFallback
	}
}

func (c *AdmissionController) recordOutcome(outcome, symbol string) {
	if c.metrics != nil {
		c.metrics.RecordAdmission(outcome, symbol)
	}
}
