package throttle

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

type captureSink struct {
	subjects []string
	err      error
}

func (s *captureSink) SendAlert(_ context.Context, subject, _ string) error {
	s.subjects = append(s.subjects, subject)
	return s.err
}

func TestAPIThreshold(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	m := NewMonitor(clk, sink, nil, nil)
	ctx := context.Background()

	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	if len(sink.subjects) != 0 {
		t.Fatalf("two API failures must not alert yet")
	}

	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	if len(sink.subjects) != 1 {
		t.Fatalf("third API failure must alert, got %d", len(sink.subjects))
	}

	// Fourth failure inside the cooldown stays silent.
	clk.Advance(5 * time.Minute)
	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	if len(sink.subjects) != 1 {
		t.Fatalf("cooldown must suppress repeat alert, got %d", len(sink.subjects))
	}

	// Past the cooldown the still-failing key alerts again.
	clk.Advance(DefaultAlertCooldown)
	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	if len(sink.subjects) != 2 {
		t.Fatalf("expired cooldown must re-alert, got %d", len(sink.subjects))
	}
}

func TestDBThreshold(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	m := NewMonitor(clk, sink, nil, nil)
	ctx := context.Background()

	m.RecordFailure(ctx, CategoryDB, "clickhouse", "connection refused")
	if len(sink.subjects) != 0 {
		t.Fatalf("single DB failure must not alert")
	}
	m.RecordFailure(ctx, CategoryDB, "clickhouse", "connection refused")
	if len(sink.subjects) != 1 {
		t.Fatalf("second DB failure must alert")
	}
}

func TestSystemAlertsImmediately(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	m := NewMonitor(clk, sink, nil, nil)

	m.RecordFailure(context.Background(), CategorySystem, "pipeline", "panic recovered")
	if len(sink.subjects) != 1 {
		t.Fatalf("system failure must alert on first occurrence")
	}
}

func TestKeysAlertIndependently(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	m := NewMonitor(clk, sink, nil, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	}
	for i := 0; i < 3; i++ {
		m.RecordFailure(ctx, CategoryAPI, "coinbase", "timeout")
	}
	if len(sink.subjects) != 2 {
		t.Fatalf("distinct keys must not share a cooldown, got %d alerts", len(sink.subjects))
	}
}

func TestResetCounterRestartsCount(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{}
	m := NewMonitor(clk, sink, nil, nil)
	ctx := context.Background()

	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	m.ResetCounter(CategoryAPI, "binance")

	m.RecordFailure(ctx, CategoryAPI, "binance", "timeout")
	if len(sink.subjects) != 0 {
		t.Fatalf("reset must restart the count from zero")
	}
	if got := m.ErrorStatistics()["API_binance"]; got != 1 {
		t.Fatalf("expected count 1 after reset, got %d", got)
	}
}

func TestSinkErrorSwallowed(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	sink := &captureSink{err: errors.New("queue full")}
	m := NewMonitor(clk, sink, nil, nil)

	// Must not panic or propagate.
	m.RecordFailure(context.Background(), CategorySystem, "pipeline", "boom")
	if got := m.ErrorStatistics()["SYS_pipeline"]; got != 1 {
		t.Fatalf("count must survive sink failure, got %d", got)
	}
}
