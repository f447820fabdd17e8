package blackout

import (
	"testing"
	"time"

	"NotiGate/internal/domain/models"
)

func TestBaseAsset(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT": "BTC",
		"ETHUSD":  "ETH",
		"EURJPY":  "EURJPY",
		"USDT":    "USDT", // stripping must not produce an empty asset
	}
	for in, want := range cases {
		if got := BaseAsset(in); got != want {
			t.Fatalf("BaseAsset(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestIsSafeToTradeWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCalendar()

	// HIGH-impact event 29 minutes ahead blocks.
	c.AddEvent("BTC", models.EconomicEvent{
		Time: now.Add(29 * time.Minute), Name: "FOMC", Impact: models.ImpactHigh,
	})
	if c.IsSafeToTrade("BTCUSDT", now) {
		t.Fatalf("event 29m ahead must block")
	}

	// 31 minutes ahead does not.
	c.ClearEvents("BTC")
	c.AddEvent("BTC", models.EconomicEvent{
		Time: now.Add(31 * time.Minute), Name: "FOMC", Impact: models.ImpactHigh,
	})
	if !c.IsSafeToTrade("BTCUSDT", now) {
		t.Fatalf("event 31m ahead must not block")
	}
}

func TestIsSafeToTradeImpactTiers(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCalendar()
	c.AddEvent("ETH", models.EconomicEvent{
		Time: now.Add(5 * time.Minute), Name: "CPI", Impact: models.ImpactMedium,
	})
	if !c.IsSafeToTrade("ETHUSDT", now) {
		t.Fatalf("non-HIGH impact must never block")
	}
}

func TestIsSafeToTradeNoData(t *testing.T) {
	c := NewCalendar()
	if !c.IsSafeToTrade("XRPUSDT", time.Now()) {
		t.Fatalf("missing event data means safe")
	}
}

func TestUpcomingEventsAdvisoryWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCalendar()
	c.AddEvent("BTC", models.EconomicEvent{Time: now.Add(45 * time.Minute), Name: "later", Impact: models.ImpactLow})
	c.AddEvent("BTC", models.EconomicEvent{Time: now.Add(-50 * time.Minute), Name: "earlier", Impact: models.ImpactHigh})
	c.AddEvent("BTC", models.EconomicEvent{Time: now.Add(90 * time.Minute), Name: "outside", Impact: models.ImpactHigh})

	got := c.UpcomingEvents("BTCUSDT", now)
	if len(got) != 2 {
		t.Fatalf("expected 2 events inside the 60m window, got %d", len(got))
	}
	if got[0].Name != "earlier" || got[1].Name != "later" {
		t.Fatalf("events must be time-ordered, got %v", got)
	}
}

func TestClearEvents(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	c := NewCalendar()
	c.AddEvent("BTC", models.EconomicEvent{Time: now, Name: "x", Impact: models.ImpactHigh})
	c.ClearEvents("BTC")
	if !c.IsSafeToTrade("BTCUSDT", now) {
		t.Fatalf("cleared asset must be safe")
	}
	if len(c.Assets()) != 0 {
		t.Fatalf("assets must be empty after clear")
	}
}
