package store

import (
	"context"

	"impactx/internal/escrow/models"
	id "impactx/pkg/domain"
)

// Store is the campaign persistence contract.
//
// Update runs fn with exclusive access to a working copy of the campaign
// state. When fn reports commit, the working copy and the events it produced
// are persisted atomically; otherwise nothing is written. fn's error is
// returned either way, so a committed forced-deadline refund can still
// surface its DeadlineExceeded error to the caller.
type Store interface {
	Create(ctx context.Context, state *models.CampaignState) error
	Update(ctx context.Context, campaignID id.CampaignID, fn func(state *models.CampaignState) (bool, error)) error
	Get(ctx context.Context, campaignID id.CampaignID) (*models.CampaignState, error)
	CampaignForProof(ctx context.Context, proofID id.ProofID) (id.CampaignID, error)
	ListOpen(ctx context.Context) ([]id.CampaignID, error)
	Ping(ctx context.Context) error
}

// Outbox is the relay side of the transactional outbox.
type Outbox interface {
	FetchUnpublished(ctx context.Context, limit int) ([]models.OutboxEntry, error)
	MarkPublished(ctx context.Context, seqs []int64) error
}
