package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
	"NotiGate/internal/service/blackout"
)

type stubProc struct {
	mu   sync.Mutex
	got  []*models.TradingSignal
	fail bool
}

func (s *stubProc) Process(_ context.Context, sig *models.TradingSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("downstream down")
	}
	s.got = append(s.got, sig)
	return nil
}

func (s *stubProc) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func (s *stubProc) setFail(v bool) {
	s.mu.Lock()
	s.fail = v
	s.mu.Unlock()
}

type nopMetrics struct{}

func (nopMetrics) RecordAdmission(string, string) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordDigestDepth(int)          {}
func (nopMetrics) RecordAlert(string)             {}

func testSignal(symbol string) *models.TradingSignal {
	return &models.TradingSignal{
		Symbol: symbol, Type: "breakout", Level: models.LevelOne,
		Score: 8, StopLoss: 100, TakeProfit: 120,
	}
}

func TestPipelineForwardsValidSignal(t *testing.T) {
	proc := &stubProc{}
	p := NewSignalPipeline(proc, blackout.NewCalendar(), drepo.SystemClock(), nopMetrics{})

	if err := p.Process(context.Background(), testSignal("BTCUSDT")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(proc.got) != 1 {
		t.Fatalf("signal must reach downstream, got %d", len(proc.got))
	}
}

func TestPipelineRejectsInvalidFrames(t *testing.T) {
	proc := &stubProc{}
	p := NewSignalPipeline(proc, nil, drepo.SystemClock(), nopMetrics{})

	bad := testSignal("BTCUSDT")
	bad.Level = "LEVEL_9"
	if err := p.Process(context.Background(), bad); err == nil {
		t.Fatalf("unknown level must be rejected")
	}
	if err := p.Process(context.Background(), &models.TradingSignal{}); err == nil {
		t.Fatalf("empty frame must be rejected")
	}
	if len(proc.got) != 0 {
		t.Fatalf("invalid frames must not reach downstream")
	}
}

func TestPipelineBlackoutDropsBeforeAdmission(t *testing.T) {
	cal := blackout.NewCalendar()
	cal.AddEvent("BTC", models.EconomicEvent{
		Time: time.Now().Add(10 * time.Minute), Name: "FOMC", Impact: models.ImpactHigh,
	})
	proc := &stubProc{}
	p := NewSignalPipeline(proc, cal, drepo.SystemClock(), nopMetrics{})

	if err := p.Process(context.Background(), testSignal("BTCUSDT")); err != nil {
		t.Fatalf("blackout drop must be silent, got %v", err)
	}
	if len(proc.got) != 0 {
		t.Fatalf("blacked-out signal must not reach downstream")
	}
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &stubProc{fail: true}
	p := NewSignalPipeline(proc, nil, drepo.SystemClock(), nopMetrics{}, WithBufferSize(4))

	if err := p.Process(context.Background(), testSignal("BTCUSDT")); err == nil {
		t.Fatalf("downstream failure must surface")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed signal must be buffered, depth %d", len(p.bufCh))
	}

	// Once downstream recovers, Start drains the buffer.
	proc.setFail(false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatalf("buffered signal never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPipelineThrottlesBursts(t *testing.T) {
	proc := &stubProc{}
	p := NewSignalPipeline(proc, nil, drepo.SystemClock(), nopMetrics{}, WithBurst(2), WithMaxPerSecond(0.001))

	for i := 0; i < 5; i++ {
		if err := p.Process(context.Background(), testSignal("BTCUSDT")); err != nil {
			t.Fatalf("throttled signals drop silently, got %v", err)
		}
	}
	if len(proc.got) != 2 {
		t.Fatalf("burst of 2 expected through, got %d", len(proc.got))
	}
}
