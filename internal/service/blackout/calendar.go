package blackout

import (
	"sort"
	"strings"
	"sync"
	"time"

	"NotiGate/internal/domain/models"
)

const (
	// Blocking window around a HIGH-impact event.
	safetyWindow = 30 * time.Minute
	// Advisory lookaround for upcoming-event display.
	advisoryWindow = 60 * time.Minute
)

// Calendar maps base assets to scheduled economic events and answers whether
// notification is currently safe for a symbol. It holds events in memory only;
// feed ingestion and pruning of past events belong to the caller.
type Calendar struct {
	mu     sync.RWMutex
	events map[string][]models.EconomicEvent
}

func NewCalendar() *Calendar {
	return &Calendar{events: make(map[string][]models.EconomicEvent)}
}

// BaseAsset strips a trailing USDT or USD quote suffix. Symbols without either
// suffix are used as-is.
func BaseAsset(symbol string) string {
	if s, ok := strings.CutSuffix(symbol, "USDT"); ok && s != "" {
		return s
	}
	if s, ok := strings.CutSuffix(symbol, "USD"); ok && s != "" {
		return s
	}
	return symbol
}

// IsSafeToTrade returns false only when a HIGH-impact event for the symbol's
// base asset lies strictly inside the +/-30 minute window around now. Missing
// event data means safe.
func (c *Calendar) IsSafeToTrade(symbol string, now time.Time) bool {
	asset := BaseAsset(symbol)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, ev := range c.events[asset] {
		if ev.Impact != models.ImpactHigh {
			continue
		}
		if ev.Time.After(now.Add(-safetyWindow)) && ev.Time.Before(now.Add(safetyWindow)) {
			return false
		}
	}
	return true
}

// UpcomingEvents returns all events of any impact within +/-60 minutes of now,
// ordered by scheduled time. Advisory only; never blocks.
func (c *Calendar) UpcomingEvents(symbol string, now time.Time) []models.EconomicEvent {
	asset := BaseAsset(symbol)

	c.mu.RLock()
	var out []models.EconomicEvent
	for _, ev := range c.events[asset] {
		if ev.Time.After(now.Add(-advisoryWindow)) && ev.Time.Before(now.Add(advisoryWindow)) {
			out = append(out, ev)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// AddEvent appends an event for the asset. Duplicates are allowed and
// accumulate; the feed is trusted to supply sane data.
func (c *Calendar) AddEvent(asset string, ev models.EconomicEvent) {
	c.mu.Lock()
	c.events[asset] = append(c.events[asset], ev)
	c.mu.Unlock()
}

// ClearEvents removes every event for the asset.
func (c *Calendar) ClearEvents(asset string) {
	c.mu.Lock()
	delete(c.events, asset)
	c.mu.Unlock()
}

// Assets returns the list of assets with scheduled events.
func (c *Calendar) Assets() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.events))
	for a := range c.events {
		out = append(out, a)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}
