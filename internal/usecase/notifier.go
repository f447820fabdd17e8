package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
	"NotiGate/internal/service/throttle"
	"NotiGate/pkg/cache"
	"NotiGate/pkg/logger"
)

const recipientsCacheTTL = 5 * time.Minute

var recipientsCacheKey = cache.GenerateKey("notify", "recipients")

// Notifier renders and delivers notifications for admitted signals and
// digest flushes. Every delivery is best-effort: failures are counted
// through the failure monitor and logged, never returned to the caller.
type Notifier struct {
	dispatcher drepo.Dispatcher
	directory  drepo.RecipientDirectory
	cache      cache.Service
	log        drepo.NotificationLog
	monitor    *throttle.Monitor
	clock      drepo.Clock
	metrics    drepo.Metrics
	logger     *logger.Logger
}

func NewNotifier(
	dispatcher drepo.Dispatcher,
	directory drepo.RecipientDirectory,
	cacheSvc cache.Service,
	log drepo.NotificationLog,
	monitor *throttle.Monitor,
	clock drepo.Clock,
	metrics drepo.Metrics,
	lgr *logger.Logger,
) *Notifier {
	return &Notifier{
		dispatcher: dispatcher,
		directory:  directory,
		cache:      cacheSvc,
		log:        log,
		monitor:    monitor,
		clock:      clock,
		metrics:    metrics,
		logger:     lgr,
	}
}

// NotifySignal delivers one admitted signal at the given priority.
func (n *Notifier) NotifySignal(ctx context.Context, sig *models.TradingSignal, prio models.Priority) {
	subject := renderSignalSubject(sig, prio)
	note := &models.Notification{
		Kind:       models.KindSignal,
		Subject:    subject,
		Body:       renderSignalBody(sig),
		Recipients: n.recipients(ctx),
		Meta: map[string]interface{}{
			"symbol":   sig.Symbol,
			"priority": string(prio),
		},
	}
	outcome := "sent"
	if err := n.dispatch(ctx, note); err != nil {
		outcome = "dispatch_failed"
	}
	n.record(ctx, &models.NotificationRecord{
		Timestamp: n.clock.Now(),
		Symbol:    sig.Symbol,
		Type:      sig.Type,
		Level:     string(sig.Level),
		Priority:  string(prio),
		Outcome:   outcome,
		Subject:   subject,
	})
}

// NotifyDigest delivers a single summary covering all drained signals,
// grouped by symbol. Empty input is a no-op.
func (n *Notifier) NotifyDigest(ctx context.Context, sigs []models.TradingSignal) {
	if len(sigs) == 0 {
		return
	}
	subject := fmt.Sprintf("Signal digest: %d deferred signals", len(sigs))
	note := &models.Notification{
		Kind:       models.KindDigest,
		Subject:    subject,
		Body:       renderDigestBody(sigs),
		Recipients: n.recipients(ctx),
	}
	outcome := "sent"
	if err := n.dispatch(ctx, note); err != nil {
		outcome = "dispatch_failed"
	}
	n.record(ctx, &models.NotificationRecord{
		Timestamp: n.clock.Now(),
		Symbol:    "*",
		Type:      "digest",
		Priority:  string(models.PriorityLow),
		Outcome:   outcome,
		Subject:   subject,
	})
}

func (n *Notifier) dispatch(ctx context.Context, note *models.Notification) error {
	if n.dispatcher == nil {
		return nil
	}
	err := n.dispatcher.Dispatch(ctx, note)
	if err != nil {
		n.metrics.RecordError("dispatch")
		if n.monitor != nil {
			n.monitor.RecordFailure(ctx, throttle.CategoryAPI, "webhook", err.Error())
		}
		n.logger.Warn("notification dispatch failed",
			logger.String("subject", note.Subject),
			logger.Error(err))
		return err
	}
	if n.monitor != nil {
		n.monitor.ResetCounter(throttle.CategoryAPI, "webhook")
	}
	return nil
}

func (n *Notifier) record(ctx context.Context, rec *models.NotificationRecord) {
	if n.log == nil {
		return
	}
	if err := n.log.Record(ctx, rec); err != nil {
		n.metrics.RecordError("notification_log")
		if n.monitor != nil {
			n.monitor.RecordFailure(ctx, throttle.CategoryDB, "notification_log", err.Error())
		}
		return
	}
	if n.monitor != nil {
		n.monitor.ResetCounter(throttle.CategoryDB, "notification_log")
	}
}

// recipients resolves the current recipient list, cached briefly so the
// directory is not hit on every signal. A failed lookup yields an empty
// list; the dispatcher decides what that means for its transport.
func (n *Notifier) recipients(ctx context.Context) []string {
	if n.cache != nil {
		var cached []string
		if err := n.cache.Get(ctx, recipientsCacheKey, &cached); err == nil {
			return cached
		}
	}
	if n.directory == nil {
		return nil
	}
	list, err := n.directory.ListNotificationRecipients(ctx)
	if err != nil {
		n.metrics.RecordError("recipient_lookup")
		n.logger.Warn("recipient lookup failed", logger.Error(err))
		return nil
	}
	if n.cache != nil {
		_ = n.cache.Set(ctx, recipientsCacheKey, list, recipientsCacheTTL)
	}
	return list
}

func renderSignalSubject(sig *models.TradingSignal, prio models.Priority) string {
	return fmt.Sprintf("[%s] %s %s (%s)", prio, sig.Symbol, sig.Type, sig.Level)
}

func renderSignalBody(sig *models.TradingSignal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Symbol: %s\nIndicator: %s\nType: %s\nLevel: %s\nScore: %d\n",
		sig.Symbol, sig.Indicator, sig.Type, sig.Level, sig.Score)
	if sig.HasTradePlan() {
		fmt.Fprintf(&b, "Stop loss: %.4f\nTake profit: %.4f\n", sig.StopLoss, sig.TakeProfit)
	}
	if rr, ok := sig.RiskReward(); ok {
		fmt.Fprintf(&b, "Risk/reward: %.2f\n", rr)
	}
	return b.String()
}

func renderDigestBody(sigs []models.TradingSignal) string {
	groups := make(map[string][]models.TradingSignal)
	order := make([]string, 0)
	for _, s := range sigs {
		if _, seen := groups[s.Symbol]; !seen {
			order = append(order, s.Symbol)
		}
		groups[s.Symbol] = append(groups[s.Symbol], s)
	}

	var b strings.Builder
	for _, sym := range order {
		fmt.Fprintf(&b, "%s (%d):\n", sym, len(groups[sym]))
		for _, s := range groups[sym] {
			fmt.Fprintf(&b, "  - %s %s score=%d\n", s.Type, s.Level, s.Score)
		}
	}
	return b.String()
}
