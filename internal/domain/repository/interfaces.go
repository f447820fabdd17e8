package repository

import (
	"context"
	"time"

	"NotiGate/internal/domain/models"
)

// SignalStream is an upstream source of trading signals (WebSocket feed).
type SignalStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.TradingSignal, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher emits admission outcomes to downstream consumers (Kafka).
type Publisher interface {
	Publish(ctx context.Context, sig *models.TradingSignal, priority models.Priority) error
	PublishBatch(ctx context.Context, sigs []models.TradingSignal, priorities []models.Priority) error
	Close() error
}

// NotificationLog persists an audit trail of admission and dispatch outcomes.
type NotificationLog interface {
	Record(ctx context.Context, rec *models.NotificationRecord) error
	RecordBatch(ctx context.Context, recs []*models.NotificationRecord) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.NotificationRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// RecipientDirectory resolves the current notification recipient list.
type RecipientDirectory interface {
	ListNotificationRecipients(ctx context.Context) ([]string, error)
}

// Dispatcher delivers a rendered notification to its recipients.
// Implementations are thin transport wrappers; callers treat failures as
// best-effort and must not let them propagate into the filtering pipeline.
type Dispatcher interface {
	Dispatch(ctx context.Context, n *models.Notification) error
}

// Metrics records operational measurements.
type Metrics interface {
	RecordAdmission(outcome, symbol string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordDigestDepth(n int)
	RecordAlert(category string)
}

// Clock abstracts time so cooldowns, quotas, and blackout windows are
// deterministically testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
