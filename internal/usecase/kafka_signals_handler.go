package usecase

import (
	"context"
	"encoding/json"
	"time"

	"NotiGate/internal/domain/models"
	domrepo "NotiGate/internal/domain/repository"
	pkgkafka "NotiGate/pkg/kafka"
)

// KafkaSignalsHandler consumes signal messages from Kafka and runs them
// through the admission gate. It shares decision state with every other
// ingest path via the gate.
type KafkaSignalsHandler struct {
	topic   string
	gate    *Gate
	metrics domrepo.Metrics
}

func NewKafkaSignalsHandler(topic string, gate *Gate, metrics domrepo.Metrics) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, gate: gate, metrics: metrics}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

// incoming message schema mirrors the HTTP SignalPayload plus a ms timestamp
func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		models.SignalPayload
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	sig := m.ToSignal()
	if m.Timestamp > 0 {
		sig.Timestamp = time.UnixMilli(m.Timestamp)
		// E2E latency from signal emission to admission (approx)
		h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(sig.Timestamp).Seconds())
	}
	if !sig.Level.Valid() {
		h.metrics.RecordError("consumer_level")
		return nil // poison message, not retryable
	}

	return h.gate.Process(ctx, &sig)
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
