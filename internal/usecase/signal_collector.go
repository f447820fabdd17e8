package usecase

import (
	"context"

	"NotiGate/internal/domain/models"
	drepo "NotiGate/internal/domain/repository"
	mid "NotiGate/internal/middleware"
)

// SignalCollector consumes the upstream signal stream and feeds the pipeline.
type SignalCollector struct {
	stream  drepo.SignalStream
	pipe    *mid.SignalPipeline
	gate    *Gate
	metrics drepo.Metrics
}

// NewSignalCollector creates a new SignalCollector instance.
func NewSignalCollector(stream drepo.SignalStream, pipe *mid.SignalPipeline, gate *Gate, metrics drepo.Metrics) *SignalCollector {
	return &SignalCollector{stream: stream, pipe: pipe, gate: gate, metrics: metrics}
}

// IsConnected returns true if the signal stream is connected.
func (c *SignalCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *SignalCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	sigCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, sigCh, errCh)
	return nil
}

func (c *SignalCollector) consume(ctx context.Context, sigCh <-chan *models.TradingSignal, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case sig := <-sigCh:
			if sig == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, sig)
			} else {
				_ = c.gate.Process(ctx, sig)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *SignalCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
