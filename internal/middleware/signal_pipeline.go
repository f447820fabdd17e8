package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"NotiGate/internal/domain/models"
	domrepo "NotiGate/internal/domain/repository"
	"NotiGate/internal/service/blackout"
	"NotiGate/internal/service/ratelimit"
)

// Proc is the downstream admission stage the pipeline feeds.
type Proc interface {
	Process(ctx context.Context, sig *models.TradingSignal) error
}

// SignalPipeline sits between the signal sources and the admission gate.
// It validates frames, drops symbols inside an event blackout before they
// ever reach admission, throttles per-symbol bursts, and buffers signals
// when downstream is unavailable.
type SignalPipeline struct {
	proc     Proc
	calendar *blackout.Calendar
	limiter  *ratelimit.Limiter
	clock    domrepo.Clock
	metrics  domrepo.Metrics

	maxPerSec float64
	burst     float64
	bufSize   int
	bufCh     chan *models.TradingSignal
	stopCh    chan struct{}
	started   bool
	mu        sync.Mutex
}

type PipelineOption func(*SignalPipeline)

// WithMaxPerSecond sets the per-symbol sustained signal rate.
func WithMaxPerSecond(n float64) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.maxPerSec = n
		}
	}
}

// WithBurst sets the per-symbol burst capacity.
func WithBurst(n float64) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.burst = n
		}
	}
}

// WithBufferSize sets the retry buffer used when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewSignalPipeline creates a new pipeline.
func NewSignalPipeline(proc Proc, calendar *blackout.Calendar, clock domrepo.Clock, metrics domrepo.Metrics, opts ...PipelineOption) *SignalPipeline {
	p := &SignalPipeline{
		proc:      proc,
		calendar:  calendar,
		limiter:   ratelimit.New(),
		clock:     clock,
		metrics:   metrics,
		maxPerSec: 5,
		burst:     10,
		bufSize:   1000,
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.TradingSignal, p.bufSize)
	return p
}

// Start launches background flushing of buffered signals.
func (p *SignalPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case sig := <-p.bufCh:
				if sig == nil {
					continue
				}
				if err := p.proc.Process(ctx, sig); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- sig:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *SignalPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, blackout-checks, throttles, and forwards a signal,
// buffering on downstream errors.
func (p *SignalPipeline) Process(ctx context.Context, sig *models.TradingSignal) error {
	start := time.Now()
	if err := validateSignal(sig); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	// Event blackout is checked before admission so blocked signals never
	// consume quota or cooldown state.
	if p.calendar != nil && !p.calendar.IsSafeToTrade(sig.Symbol, p.clock.Now()) {
		p.metrics.RecordAdmission("blackout", sig.Symbol)
		return nil
	}

	if !p.limiter.Allow(sig.Symbol, p.burst, p.maxPerSec) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, sig); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- sig:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSignal(sig *models.TradingSignal) error {
	if sig == nil {
		return fmt.Errorf("signal nil")
	}
	if sig.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if sig.Type == "" {
		return fmt.Errorf("type empty")
	}
	if !sig.Level.Valid() {
		return fmt.Errorf("unknown level %q", sig.Level)
	}
	if sig.StopLoss < 0 || sig.TakeProfit < 0 {
		return fmt.Errorf("negative stop-loss/take-profit")
	}
	return nil
}
