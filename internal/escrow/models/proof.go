package models

import (
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// ProofStatus is the verification status of a delivery proof.
type ProofStatus string

const (
	ProofStatusPending  ProofStatus = "Pending"
	ProofStatusVerified ProofStatus = "Verified"
	ProofStatusRejected ProofStatus = "Rejected"
)

// Proof is an NGO's claim that aid was delivered. The core only sees the
// artifact's content hash; inspecting the artifact is the oracles' job.
type Proof struct {
	ID          id.ProofID     `json:"id"`
	CampaignID  id.CampaignID  `json:"campaignId"`
	ContentHash id.ContentHash `json:"contentHash"`
	UploaderID  id.PartyID     `json:"uploaderId"`
	Status      ProofStatus    `json:"status"`
	SubmittedAt time.Time      `json:"submittedAt"`
	DecidedAt   *time.Time     `json:"decidedAt,omitempty"`
}

// ProofRegistry keeps a campaign's proofs in submission order.
type ProofRegistry struct {
	Items []*Proof `json:"items"`
}

// Get returns the proof with the given id, or nil.
func (r *ProofRegistry) Get(proofID id.ProofID) *Proof {
	for _, p := range r.Items {
		if p.ID == proofID {
			return p
		}
	}
	return nil
}

// Latest returns the most recently submitted proof, or nil.
func (r *ProofRegistry) Latest() *Proof {
	if len(r.Items) == 0 {
		return nil
	}
	return r.Items[len(r.Items)-1]
}

func (r *ProofRegistry) submit(proofID id.ProofID, campaignID id.CampaignID, hash id.ContentHash, uploader id.PartyID, now time.Time) (*Proof, error) {
	if proofID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "proof id is required")
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "content hash is required")
	}
	if uploader == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "uploader id is required")
	}
	for _, p := range r.Items {
		if p.ContentHash == hash {
			return nil, dErrors.New(dErrors.CodeConflict, "proof with this content hash already submitted")
		}
		if p.ID == proofID {
			return nil, dErrors.New(dErrors.CodeConflict, "proof id already used")
		}
	}
	p := &Proof{
		ID:          proofID,
		CampaignID:  campaignID,
		ContentHash: hash,
		UploaderID:  uploader,
		Status:      ProofStatusPending,
		SubmittedAt: now.UTC(),
	}
	r.Items = append(r.Items, p)
	return p, nil
}

func (r *ProofRegistry) markVerified(proofID id.ProofID, now time.Time) error {
	return r.decide(proofID, ProofStatusVerified, now)
}

func (r *ProofRegistry) markRejected(proofID id.ProofID, now time.Time) error {
	return r.decide(proofID, ProofStatusRejected, now)
}

func (r *ProofRegistry) decide(proofID id.ProofID, status ProofStatus, now time.Time) error {
	p := r.Get(proofID)
	if p == nil {
		return dErrors.New(dErrors.CodeNotFound, "proof not found")
	}
	if p.Status != ProofStatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "proof already decided")
	}
	at := now.UTC()
	p.Status = status
	p.DecidedAt = &at
	return nil
}
