package repository

import (
	"context"
	"fmt"

	"NotiGate/internal/domain/models"
	"NotiGate/internal/domain/repository"
	pkgkafka "NotiGate/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka. Admitted signals are keyed
// by symbol so per-symbol ordering survives partitioning.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, sig *models.TradingSignal, priority models.Priority) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), signalMessage(sig, priority))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, sigs []models.TradingSignal, priorities []models.Priority) error {
	if len(sigs) == 0 {
		return nil
	}
	if len(priorities) != len(sigs) {
		return fmt.Errorf("priorities length %d does not match signals length %d", len(priorities), len(sigs))
	}
	msgs := make([]pkgkafka.Message, len(sigs))
	for i := range sigs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(sigs[i].Symbol),
			Value: signalMessage(&sigs[i], priorities[i]),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func signalMessage(sig *models.TradingSignal, priority models.Priority) map[string]interface{} {
	return map[string]interface{}{
		"symbol":      sig.Symbol,
		"indicator":   sig.Indicator,
		"type":        sig.Type,
		"level":       string(sig.Level),
		"score":       sig.Score,
		"stop_loss":   sig.StopLoss,
		"take_profit": sig.TakeProfit,
		"details":     sig.Details,
		"priority":    string(priority),
		"timestamp":   sig.Timestamp.UnixMilli(),
	}
}
