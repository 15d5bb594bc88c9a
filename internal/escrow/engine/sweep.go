package engine

import (
	"context"
	"time"

	"impactx/internal/escrow/models"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/requestcontext"
)

// SweepDeadlines evaluates every open campaign so elapsed deadlines are
// refunded without waiting for the next read or write. It returns how many
// campaigns were refunded.
func (e *Engine) SweepDeadlines(ctx context.Context) (int, error) {
	ids, err := e.store.ListOpen(ctx)
	if err != nil {
		return 0, translateStoreErr(err, "campaign")
	}
	now := requestcontext.Now(ctx)
	refunded := 0
	for _, campaignID := range ids {
		if err := ctx.Err(); err != nil {
			return refunded, dErrors.Wrap(err, dErrors.CodeTimeout, "deadline sweep interrupted")
		}
		res, _, err := e.apply(ctx, campaignID, models.Evaluate{At: now})
		if err != nil {
			e.logger.WarnContext(ctx, "deadline sweep failed for campaign",
				"campaign_id", campaignID.String(),
				"error", err,
			)
			continue
		}
		if res.Forced {
			refunded++
		}
	}
	return refunded, nil
}

// RunSweeper calls SweepDeadlines every interval until ctx is cancelled.
func (e *Engine) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := e.SweepDeadlines(ctx)
			if err != nil {
				e.logger.WarnContext(ctx, "deadline sweep aborted", "error", err)
				continue
			}
			if n > 0 {
				e.logger.InfoContext(ctx, "deadline sweep refunded campaigns", "count", n)
			}
		}
	}
}
