package outbox

import (
	"context"
	"log/slog"

	"impactx/internal/escrow/models"
)

// LogSink writes entries to the structured log. It stands in for Kafka in
// single-process deployments and local development.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, entries []models.OutboxEntry) (int, error) {
	for _, entry := range entries {
		e := entry.Event
		args := []any{
			"outbox_seq", entry.Seq,
			"event", string(e.Type),
			"campaign_id", e.CampaignID.String(),
			"version", e.Version,
			"campaign_status", string(e.CampaignStatus),
			"escrow_status", string(e.EscrowStatus),
			"escrow_balance", e.EscrowBalance,
		}
		if d := e.Disbursement; d != nil {
			args = append(args,
				"disbursement_id", d.ID.String(),
				"kind", string(d.Kind),
				"total", d.Total,
				"transfers", len(d.Transfers),
			)
		}
		s.logger.InfoContext(ctx, "escrow event", args...)
	}
	return len(entries), nil
}
