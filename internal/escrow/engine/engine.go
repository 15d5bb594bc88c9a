// Package engine is the escrow core's entry point. It validates callers
// against the oracle registry, runs each operation as one campaign
// transaction and fans committed results out to metrics, logs and the
// read-only projection.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	escrowmetrics "impactx/internal/escrow/metrics"
	"impactx/internal/escrow/models"
	oraclemodels "impactx/internal/oracle/models"
	id "impactx/pkg/domain"
)

//go:generate mockgen -source=engine.go -destination=mocks/mocks.go -package=mocks

// Store gives exclusive, transactional access to one campaign at a time.
type Store interface {
	Create(ctx context.Context, state *models.CampaignState) error
	Update(ctx context.Context, campaignID id.CampaignID, fn func(state *models.CampaignState) (bool, error)) error
	Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignState, error)
	CampaignForProof(ctx context.Context, proofID id.ProofID) (id.CampaignID, error)
	ListOpen(ctx context.Context) ([]id.CampaignID, error)
}

// OracleDirectory is the read side of the oracle registry.
type OracleDirectory interface {
	Get(ctx context.Context, oracleID id.OracleID) (*oraclemodels.Oracle, error)
}

// VoteVerifier authenticates a vote against the oracle's registered key.
type VoteVerifier interface {
	Verify(proofID id.ProofID, oracleID id.OracleID, vote bool, sig []byte) error
}

// Projector receives the committed status of a campaign. It feeds a read
// model only; the engine never reads it back.
type Projector interface {
	Project(ctx context.Context, status models.StatusSnapshot) error
}

const defaultTxTimeout = 5 * time.Second

// Engine runs escrow operations.
type Engine struct {
	store     Store
	oracles   OracleDirectory
	verifier  VoteVerifier
	projector Projector
	metrics   *escrowmetrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
	txTimeout time.Duration
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *escrowmetrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithProjector(p Projector) Option {
	return func(e *Engine) {
		e.projector = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithTxTimeout bounds each campaign transaction when the caller's context
// has no deadline of its own.
func WithTxTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.txTimeout = d
		}
	}
}

func New(store Store, oracles OracleDirectory, verifier VoteVerifier, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errors.New("campaign store is required")
	}
	if oracles == nil {
		return nil, errors.New("oracle directory is required")
	}
	if verifier == nil {
		return nil, errors.New("vote verifier is required")
	}
	e := &Engine{
		store:     store,
		oracles:   oracles,
		verifier:  verifier,
		txTimeout: defaultTxTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer("impactx/escrow")
	}
	return e, nil
}

func (e *Engine) txContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.txTimeout)
}
