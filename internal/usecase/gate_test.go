package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"NotiGate/internal/domain/models"
	"NotiGate/internal/service/throttle"
	"NotiGate/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordAdmission(string, string) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}
func (nopMetrics) RecordDigestDepth(int)          {}
func (nopMetrics) RecordAlert(string)             {}

type captureDispatcher struct {
	sent []*models.Notification
	err  error
}

func (d *captureDispatcher) Dispatch(_ context.Context, n *models.Notification) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, n)
	return nil
}

type capturePublisher struct {
	published []models.Priority
	err       error
}

func (p *capturePublisher) Publish(_ context.Context, _ *models.TradingSignal, prio models.Priority) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, prio)
	return nil
}

func (p *capturePublisher) PublishBatch(_ context.Context, sigs []models.TradingSignal, prios []models.Priority) error {
	p.published = append(p.published, prios...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return lgr
}

func newTestGate(t *testing.T, clk *fakeClock, disp *captureDispatcher, pub *capturePublisher) (*Gate, *DigestCache) {
	lgr := testLogger(t)
	digest := NewDigestCache(nopMetrics{})
	admission := NewAdmissionController(digest, clk, nopMetrics{}, lgr)
	notifier := NewNotifier(disp, nil, nil, nil, nil, clk, nopMetrics{}, lgr)
	gate := NewGate(admission, digest, notifier, pub, nil, nopMetrics{}, lgr)
	return gate, digest
}

func TestGateRoutesClassifierRejectsToDigest(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{}
	gate, digest := newTestGate(t, clk, disp, nil)

	// Eligible level but no trade plan: classifier reject, not a drop.
	weak := eligible("BTCUSDT", "breakout", models.LevelOne)
	weak.StopLoss = 0

	res := gate.SubmitSignals(context.Background(), []models.TradingSignal{weak})
	if len(res.Admitted) != 0 || res.Digested != 1 || res.Dropped != 0 {
		t.Fatalf("classifier reject must digest, got %+v", res)
	}
	if digest.Len() != 1 {
		t.Fatalf("digest must hold the rejected signal")
	}
	if len(disp.sent) != 0 {
		t.Fatalf("rejected signal must not notify")
	}
}

func TestGateNotifiesAndPublishesAdmitted(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{}
	pub := &capturePublisher{}
	gate, _ := newTestGate(t, clk, disp, pub)

	urgent := eligible("BTCUSDT", "breakout", models.LevelOne)
	urgent.Details = map[string]interface{}{"risk_reward_ratio": 2.5}

	res := gate.SubmitSignals(context.Background(), []models.TradingSignal{urgent})
	if len(res.Admitted) != 1 {
		t.Fatalf("signal must be admitted, got %+v", res)
	}
	if len(disp.sent) != 1 {
		t.Fatalf("admitted signal must notify, got %d", len(disp.sent))
	}
	if !strings.Contains(disp.sent[0].Subject, "[URGENT] BTCUSDT") {
		t.Fatalf("subject must carry priority and symbol, got %q", disp.sent[0].Subject)
	}
	if len(pub.published) != 1 || pub.published[0] != models.PriorityUrgent {
		t.Fatalf("admitted signal must publish with URGENT priority, got %v", pub.published)
	}
}

func TestGatePublishFailureIsBestEffort(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{}
	pub := &capturePublisher{err: errors.New("broker down")}
	gate, _ := newTestGate(t, clk, disp, pub)

	res := gate.SubmitSignals(context.Background(), []models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})
	if len(res.Admitted) != 1 {
		t.Fatalf("publish failure must not affect admission, got %+v", res)
	}
	if len(disp.sent) != 1 {
		t.Fatalf("notification must still go out")
	}
}

func TestGateDispatchFailureFeedsMonitor(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{err: errors.New("webhook 500")}

	lgr := testLogger(t)
	digest := NewDigestCache(nopMetrics{})
	admission := NewAdmissionController(digest, clk, nopMetrics{}, lgr)
	monitor := throttle.NewMonitor(clk, nil, lgr, nopMetrics{})
	notifier := NewNotifier(disp, nil, nil, nil, monitor, clk, nopMetrics{}, lgr)
	gate := NewGate(admission, digest, notifier, nil, monitor, nopMetrics{}, lgr)

	gate.SubmitSignals(context.Background(), []models.TradingSignal{eligible("BTCUSDT", "breakout", models.LevelOne)})

	if got := monitor.ErrorStatistics()["API_webhook"]; got != 1 {
		t.Fatalf("dispatch failure must count against API_webhook, got %d", got)
	}
}

func TestNotifierDigestGroupsBySymbol(t *testing.T) {
	clk := newFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	disp := &captureDispatcher{}
	notifier := NewNotifier(disp, nil, nil, nil, nil, clk, nopMetrics{}, testLogger(t))

	notifier.NotifyDigest(context.Background(), []models.TradingSignal{
		eligible("BTCUSDT", "breakout", models.LevelThree),
		eligible("ETHUSDT", "rsi", models.LevelThree),
		eligible("BTCUSDT", "macd_cross", models.LevelThree),
	})

	if len(disp.sent) != 1 {
		t.Fatalf("digest must be a single notification, got %d", len(disp.sent))
	}
	n := disp.sent[0]
	if n.Kind != models.KindDigest || !strings.Contains(n.Subject, "3 deferred") {
		t.Fatalf("unexpected digest notification: %+v", n)
	}
	if !strings.Contains(n.Body, "BTCUSDT (2):") || !strings.Contains(n.Body, "ETHUSDT (1):") {
		t.Fatalf("digest body must group by symbol, got:\n%s", n.Body)
	}

	// Empty drain sends nothing.
	notifier.NotifyDigest(context.Background(), nil)
	if len(disp.sent) != 1 {
		t.Fatalf("empty digest must be a no-op")
	}
}
