package engine

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"impactx/internal/escrow/models"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/platform/sentinel"
	"impactx/pkg/requestcontext"
)

// begin opens the span for one public operation. The returned finish records
// the outcome on the span and in the operation metrics.
func (e *Engine) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "escrow."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()
		e.metrics.ObserveOperation(op, outcome, start)
	}
}

// afterCommit runs once the campaign transaction is durable.
func (e *Engine) afterCommit(ctx context.Context, res models.Result, status models.StatusSnapshot) {
	campaignID := status.CampaignID.String()

	if res.Halted {
		e.metrics.IncrementIntegrityFault()
		e.logger.ErrorContext(ctx, "CRITICAL: escrow integrity fault, campaign halted",
			"campaign_id", campaignID,
			"op", string(res.Op),
			"escrow_balance", status.EscrowBalance,
			"total_donated", status.TotalDonated,
		)
	}
	if res.Forced {
		e.metrics.IncrementForcedDeadline()
		e.logAudit(ctx, "deadline_elapsed", "campaign_id", campaignID, "op", string(res.Op))
	}
	for _, t := range res.Transitions {
		e.logger.InfoContext(ctx, "campaign phase transition",
			"campaign_id", campaignID,
			"op", string(res.Op),
			"from", string(t.From),
			"to", string(t.To),
			"campaign_status", string(status.CampaignStatus),
			"escrow_status", string(status.EscrowStatus),
		)
	}
	if d := res.Disbursement; d != nil {
		e.metrics.RecordDisbursement(string(d.Kind), d.Reason, d.Total)
		e.logAudit(ctx, "disbursement_issued",
			"campaign_id", campaignID,
			"disbursement_id", d.ID.String(),
			"kind", string(d.Kind),
			"reason", d.Reason,
			"total", d.Total,
			"transfers", len(d.Transfers),
		)
	}
	e.project(ctx, status)
}

// project pushes the committed view to the read model. Failures only cost
// freshness: the projection is version-guarded and rebuilt on the next commit.
func (e *Engine) project(ctx context.Context, status models.StatusSnapshot) {
	if e.projector == nil {
		return
	}
	if err := e.projector.Project(ctx, status); err != nil {
		e.logger.WarnContext(ctx, "status projection failed",
			"campaign_id", status.CampaignID.String(),
			"version", status.Version,
			"error", err,
		)
	}
}

func (e *Engine) logAudit(ctx context.Context, event string, args ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if actor := requestcontext.Actor(ctx); actor != "" {
		args = append(args, "actor", actor.String())
	}
	args = append(args, "event", event, "log_type", "audit")
	e.logger.InfoContext(ctx, event, args...)
}

// translateStoreErr maps infrastructure failures onto domain codes. Coded
// errors from the campaign dispatch pass through untouched.
func translateStoreErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, what+" transaction timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, what+" store failure")
	}
}
