package models

import (
	"time"

	id "impactx/pkg/domain"
)

// EventType names a committed state transition.
type EventType string

const (
	EventCampaignRegistered EventType = "campaign_registered"
	EventDonationReceived   EventType = "donation_received"
	EventGoalReached        EventType = "goal_reached"
	EventProofSubmitted     EventType = "proof_submitted"
	EventVoteCast           EventType = "vote_cast"
	EventProofVerified      EventType = "proof_verified"
	EventProofRejected      EventType = "proof_rejected"
	EventDeadlineElapsed    EventType = "deadline_elapsed"
	EventEscrowReleased     EventType = "escrow_released"
	EventEscrowRefunded     EventType = "escrow_refunded"
	EventIntegrityFault     EventType = "integrity_fault"
)

// IsDisbursement reports whether the event carries a settlement instruction.
func (t EventType) IsDisbursement() bool {
	return t == EventEscrowReleased || t == EventEscrowRefunded
}

// Event is emitted by the campaign dispatch and persisted atomically with the
// state change that produced it (transactional outbox).
type Event struct {
	Type           EventType      `json:"type"`
	CampaignID     id.CampaignID  `json:"campaignId"`
	Version        int64          `json:"version"`
	At             time.Time      `json:"at"`
	CampaignStatus CampaignStatus `json:"campaignStatus"`
	EscrowStatus   EscrowStatus   `json:"escrowStatus"`
	EscrowBalance  int64          `json:"escrowBalance"`
	ProofID        *id.ProofID    `json:"proofId,omitempty"`
	Tally          *TallySnapshot `json:"tally,omitempty"`
	Donation       *Donation      `json:"donation,omitempty"`
	Disbursement   *Disbursement  `json:"disbursement,omitempty"`
	Detail         string         `json:"detail,omitempty"`
}

// OutboxEntry is an event waiting to be relayed to downstream consumers.
type OutboxEntry struct {
	Seq       int64     `json:"seq"`
	Event     Event     `json:"event"`
	CreatedAt time.Time `json:"createdAt"`
}
