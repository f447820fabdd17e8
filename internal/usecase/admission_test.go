package usecase

import (
	"fmt"
	"testing"
	"time"

	"NotiGate/internal/domain/models"
)

// fakeClock lets tests control time.
type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }
func newFakeClock(t time.Time) *fakeClock    { return &fakeClock{t: t} }

func eligible(symbol, typ string, level models.SignalLevel) models.TradingSignal {
	return models.TradingSignal{
		Symbol:     symbol,
		Type:       typ,
		Level:      level,
		Score:      8,
		StopLoss:   100,
		TakeProfit: 120,
	}
}

func newController(clk *fakeClock, opts ...AdmissionOption) (*AdmissionController, *DigestCache) {
	digest := NewDigestCache(nil)
	return NewAdmissionController(digest, clk, nil, nil, opts...), digest
}

func TestAdmitBatchCooldownDrop(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, digest := newController(clk)

	first := ctrl.AdmitBatch([]models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	if len(first) != 1 {
		t.Fatalf("first signal must be admitted, got %d", len(first))
	}

	// 10 minutes later: inside the 120m LEVEL_1 window, dropped outright.
	clk.Advance(10 * time.Minute)
	_, digested, dropped := ctrl.AdmitBatchStats([]models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	if dropped != 1 || digested != 0 {
		t.Fatalf("expected pure drop, got digested=%d dropped=%d", digested, dropped)
	}
	if digest.Len() != 0 {
		t.Fatalf("cooldown drop must not reach the digest")
	}
}

func TestAdmitBatchCooldownBoundary(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, _ := newController(clk)

	ctrl.AdmitBatch([]models.TradingSignal{eligible("ETHUSDT", "macd_cross", models.LevelTwo)})

	// Exactly at the 60m LEVEL_2 window: admitted again.
	clk.Advance(60 * time.Minute)
	second := ctrl.AdmitBatch([]models.TradingSignal{eligible("ETHUSDT", "macd_cross", models.LevelTwo)})
	if len(second) != 1 {
		t.Fatalf("signal at window boundary must be admitted")
	}
}

func TestAdmitBatchDailyQuota(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, digest := newController(clk)

	// MAX+1 eligible signals for distinct symbol/type pairs.
	batch := make([]models.TradingSignal, 0, DefaultMaxSignalsPerDay+1)
	for i := 0; i <= DefaultMaxSignalsPerDay; i++ {
		batch = append(batch, eligible(fmt.Sprintf("SYM%dUSDT", i), "breakout", models.LevelOne))
	}
	admitted, digested, dropped := ctrl.AdmitBatchStats(batch)
	if len(admitted) != DefaultMaxSignalsPerDay {
		t.Fatalf("expected %d admissions, got %d", DefaultMaxSignalsPerDay, len(admitted))
	}
	if digested != 1 || dropped != 0 {
		t.Fatalf("expected 1 digested signal, got digested=%d dropped=%d", digested, dropped)
	}
	if digest.Len() != 1 {
		t.Fatalf("quota overflow must reach the digest")
	}
}

func TestAdmitBatchDailyReset(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, _ := newController(clk, WithMaxSignalsPerDay(1))

	ctrl.AdmitBatch([]models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	blocked, digested, _ := ctrl.AdmitBatchStats([]models.TradingSignal{eligible("ETHUSDT", "breakout", models.LevelOne)})
	if len(blocked) != 0 || digested != 1 {
		t.Fatalf("quota must block second signal")
	}

	// Cross the calendar-day boundary: counter reads 0 again.
	clk.Advance(24 * time.Hour)
	after := ctrl.AdmitBatch([]models.TradingSignal{eligible("SOLUSDT", "breakout", models.LevelOne)})
	if len(after) != 1 {
		t.Fatalf("quota must reset at date rollover")
	}
	if ctrl.SentToday() != 1 {
		t.Fatalf("expected 1 sent after reset, got %d", ctrl.SentToday())
	}
}

func TestAdmitBatchLevelThreePrefilter(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, digest := newController(clk)

	admitted, digested, _ := ctrl.AdmitBatchStats([]models.TradingSignal{eligible("BTCUSDT", "rsi", models.LevelThree)})
	if len(admitted) != 0 || digested != 1 || digest.Len() != 1 {
		t.Fatalf("LEVEL_3 must route to digest, got admitted=%d digested=%d", len(admitted), digested)
	}
}

func TestAdmitBatchEndToEndScenario(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, digest := newController(clk)

	first := eligible("BTCUSDT", "breakout", models.LevelOne)
	first.Details = map[string]interface{}{"risk_reward_ratio": 2.5}
	admitted := ctrl.AdmitBatch([]models.TradingSignal{first})
	if len(admitted) != 1 {
		t.Fatalf("urgent signal must be admitted")
	}
	if got := PriorityOf(&first); got != models.PriorityUrgent {
		t.Fatalf("expected URGENT, got %s", got)
	}

	clk.Advance(10 * time.Minute)
	batch := []models.TradingSignal{
		eligible("BTCUSDT", "breakout", models.LevelOne), // cooldown drop
		eligible("BTCUSDT", "rsi", models.LevelThree),    // digest
	}
	admitted2, digested, dropped := ctrl.AdmitBatchStats(batch)
	if len(admitted2) != 0 || digested != 1 || dropped != 1 {
		t.Fatalf("expected 0 admitted / 1 digested / 1 dropped, got %d/%d/%d",
			len(admitted2), digested, dropped)
	}
	if digest.Len() != 1 {
		t.Fatalf("digest must hold exactly the LEVEL_3 signal")
	}
}

func TestSweepCooldowns(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctrl, _ := newController(clk)

	ctrl.AdmitBatch([]models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	if removed := ctrl.SweepCooldowns(); removed != 0 {
		t.Fatalf("fresh entries must survive sweep, removed %d", removed)
	}

	// Past the longest window (240m fallback) the entry is stale.
	clk.Advance(241 * time.Minute)
	if removed := ctrl.SweepCooldowns(); removed != 1 {
		t.Fatalf("stale entry must be swept, removed %d", removed)
	}
	// Entry gone: same key admits again without waiting.
	admitted := ctrl.AdmitBatch([]models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	if len(admitted) != 1 {
		t.Fatalf("swept key must admit again")
	}
}
