package models

import (
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// CampaignStatus is the lifecycle status shown to donors and NGOs.
type CampaignStatus string

const (
	CampaignStatusActive      CampaignStatus = "Active"
	CampaignStatusGoalReached CampaignStatus = "GoalReached"
	CampaignStatusCompleted   CampaignStatus = "Completed"
	CampaignStatusFailed      CampaignStatus = "Failed"
)

// IsOpen reports whether the campaign still accepts deposits, proofs and votes.
func (s CampaignStatus) IsOpen() bool {
	return s == CampaignStatusActive || s == CampaignStatusGoalReached
}

// Campaign is the ledger record for one fundraising campaign.
//
// Invariants:
//   - Goal > 0
//   - NGOAddress is non-empty
//   - Deadline is after CreatedAt
//   - Status moves Active -> GoalReached on deposits, and
//     {Active, GoalReached} -> {Completed, Failed} only through the decision engine
type Campaign struct {
	ID         id.CampaignID  `json:"id"`
	Goal       int64          `json:"goal"`
	Deadline   time.Time      `json:"deadline"`
	NGOAddress id.PartyID     `json:"ngoAddress"`
	Status     CampaignStatus `json:"status"`
	Policy     Policy         `json:"policy"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewCampaign validates a registration and returns an Active campaign.
func NewCampaign(
	campaignID id.CampaignID,
	goal int64,
	deadline time.Time,
	ngoAddress id.PartyID,
	policy Policy,
	now time.Time,
) (*Campaign, error) {
	if campaignID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "campaign id is required")
	}
	if goal <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "goal must be positive")
	}
	if ngoAddress == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "ngo payout address is required")
	}
	if !deadline.After(now) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "deadline must be in the future")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Campaign{
		ID:         campaignID,
		Goal:       goal,
		Deadline:   deadline.UTC(),
		NGOAddress: ngoAddress,
		Status:     CampaignStatusActive,
		Policy:     policy,
		CreatedAt:  now.UTC(),
	}, nil
}

// DeadlineElapsed reports whether now is at or past the funding deadline.
func (c *Campaign) DeadlineElapsed(now time.Time) bool {
	return !now.Before(c.Deadline)
}

// GoalMet reports whether balance covers the goal.
func (c *Campaign) GoalMet(balance int64) bool {
	return balance >= c.Goal
}
