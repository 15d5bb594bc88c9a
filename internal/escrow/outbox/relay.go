// Package outbox relays committed campaign events to the settlement rail.
//
// Events are written to the outbox in the same transaction as the state change
// that produced them. The relay drains them in sequence order and marks an
// entry published only after the sink acknowledged it and every entry before
// it, so delivery is at-least-once and ordered. Consumers dedupe disbursement
// instructions by disbursement id.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	escrowmetrics "impactx/internal/escrow/metrics"
	"impactx/internal/escrow/models"
	"impactx/pkg/platform/circuit"
)

// Source is the read side of the transactional outbox.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkPublished(ctx context.Context, seqs []int64) error
}

// Sink delivers entries downstream. It returns how many entries from the
// front of the batch were acknowledged before the first failure.
type Sink interface {
	Publish(ctx context.Context, entries []models.OutboxEntry) (int, error)
}

const (
	defaultBatchSize     = 100
	defaultPollInterval  = time.Second
	degradedIntervalMult = 10
)

// Relay polls the outbox and forwards entries to the sink.
type Relay struct {
	source    Source
	sink      Sink
	breaker   *circuit.Breaker
	metrics   *escrowmetrics.Metrics
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *escrowmetrics.Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) {
		if b != nil {
			r.breaker = b
		}
	}
}

func NewRelay(source Source, sink Sink, opts ...Option) (*Relay, error) {
	if source == nil {
		return nil, errors.New("outbox source is required")
	}
	if sink == nil {
		return nil, errors.New("outbox sink is required")
	}
	r := &Relay{
		source:    source,
		sink:      sink,
		batchSize: defaultBatchSize,
		interval:  defaultPollInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.breaker == nil {
		r.breaker = circuit.New("escrow-outbox")
	}
	return r, nil
}

// RunOnce relays one batch and returns how many entries were marked published.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	acked, pubErr := r.sink.Publish(ctx, entries)
	if acked > len(entries) {
		acked = len(entries)
	}
	if acked > 0 {
		seqs := make([]int64, acked)
		for i := range acked {
			seqs[i] = entries[i].Seq
		}
		if err := r.source.MarkPublished(ctx, seqs); err != nil {
			// The sink already has these; they will be sent again next round.
			return 0, fmt.Errorf("mark outbox published: %w", err)
		}
		r.metrics.AddOutboxPublished(acked)
	}

	if pubErr != nil {
		r.metrics.IncrementOutboxFailure()
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.metrics.SetOutboxBreakerOpen(true)
			r.logger.ErrorContext(ctx, "outbox relay circuit opened",
				"breaker", r.breaker.Name(),
				"error", pubErr,
			)
		}
		return acked, fmt.Errorf("publish outbox: %w", pubErr)
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.SetOutboxBreakerOpen(false)
		r.logger.InfoContext(ctx, "outbox relay circuit closed", "breaker", r.breaker.Name())
	}
	return acked, nil
}

// Run relays until ctx is cancelled. A full batch is followed immediately by
// the next one; while the breaker is open the relay polls less often.
func (r *Relay) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "outbox relay batch failed", "published", n, "error", err)
		}

		next := r.interval
		switch {
		case r.breaker.IsOpen():
			next = r.interval * degradedIntervalMult
		case err == nil && n == r.batchSize:
			next = 0
		}
		timer.Reset(next)
	}
}
