package usecase

import (
	"context"
	"time"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
	"NotiGate/internal/service/throttle"
	"NotiGate/pkg/logger"
)

// GateResult reports the per-batch admission outcome.
type GateResult struct {
	Admitted []models.TradingSignal
	Digested int
	Dropped  int
}

// Gate is the admission entrypoint shared by every ingest path (HTTP,
// WebSocket stream, Kafka). It classifies, routes classifier rejects to the
// digest, runs the quota/cooldown controller, and fans admitted signals out
// to the notifier and the downstream publisher.
type Gate struct {
	admission *AdmissionController
	digest    *DigestCache
	notifier  *Notifier
	pub       drepo.Publisher
	monitor   *throttle.Monitor
	metrics   drepo.Metrics
	logger    *logger.Logger
}

func NewGate(
	admission *AdmissionController,
	digest *DigestCache,
	notifier *Notifier,
	pub drepo.Publisher,
	monitor *throttle.Monitor,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *Gate {
	return &Gate{
		admission: admission,
		digest:    digest,
		notifier:  notifier,
		pub:       pub,
		monitor:   monitor,
		metrics:   metrics,
		logger:    lgr,
	}
}

// SubmitSignals decides a batch. Classifier rejects go to the digest rather
// than being dropped: a weak signal is still worth a line in the next summary.
func (g *Gate) SubmitSignals(ctx context.Context, sigs []models.TradingSignal) GateResult {
	start := time.Now()

	eligible := make([]models.TradingSignal, 0, len(sigs))
	digested := 0
	for i := range sigs {
		if !ShouldAdmit(&sigs[i]) {
			g.digest.Append(sigs[i])
			g.metrics.RecordAdmission("classifier_digest", sigs[i].Symbol)
			digested++
			continue
		}
		eligible = append(eligible, sigs[i])
	}

	admitted, d, dropped := g.admission.AdmitBatchStats(eligible)
	digested += d

	for i := range admitted {
		sig := &admitted[i]
		prio := PriorityOf(sig)
		if g.notifier != nil {
			g.notifier.NotifySignal(ctx, sig, prio)
		}
		g.publish(ctx, sig, prio)
	}

	g.metrics.RecordLatency("gate_submit", time.Since(start).Seconds())
	return GateResult{Admitted: admitted, Digested: digested, Dropped: dropped}
}

// Process is the single-signal entrypoint used by the streaming pipeline and
// the Kafka consumer. Admission decisions are not errors; only a nil signal is.
func (g *Gate) Process(ctx context.Context, sig *models.TradingSignal) error {
	if sig == nil {
		return nil
	}
	g.SubmitSignals(ctx, []models.TradingSignal{*sig})
	return nil
}

func (g *Gate) publish(ctx context.Context, sig *models.TradingSignal, prio models.Priority) {
	if g.pub == nil {
		return
	}
	if err := g.pub.Publish(ctx, sig, prio); err != nil {
		g.metrics.RecordError("publish")
		if g.monitor != nil {
			g.monitor.RecordFailure(ctx, throttle.CategoryAPI, "kafka", err.Error())
		}
		g.logger.Warn("admitted signal publish failed",
			logger.String("symbol", sig.Symbol),
			logger.Error(err))
		return
	}
	if g.monitor != nil {
		g.monitor.ResetCounter(throttle.CategoryAPI, "kafka")
	}
}
