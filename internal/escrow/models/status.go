package models

import (
	"time"

	id "impactx/pkg/domain"
)

// StatusSnapshot is the consistent read view returned by status queries.
// Tally is the approved proof's tally when there is one, otherwise the latest
// proof's tally; Tallies lists every proof in submission order.
type StatusSnapshot struct {
	CampaignID     id.CampaignID   `json:"campaignId"`
	CampaignStatus CampaignStatus  `json:"campaignStatus"`
	EscrowStatus   EscrowStatus    `json:"escrowStatus"`
	EscrowBalance  int64           `json:"escrowBalance"`
	TotalDonated   int64           `json:"totalDonated"`
	Goal           int64           `json:"goal"`
	Deadline       time.Time       `json:"deadline"`
	Phase          Phase           `json:"phase"`
	Tally          *TallySnapshot  `json:"tally,omitempty"`
	Tallies        []TallySnapshot `json:"tallies"`
	Disbursement   *Disbursement   `json:"disbursement,omitempty"`
	Halted         bool            `json:"halted,omitempty"`
	Version        int64           `json:"version"`
}

// Status captures the current view of the campaign.
func (s *CampaignState) Status() StatusSnapshot {
	snap := StatusSnapshot{
		CampaignID:     s.Campaign.ID,
		CampaignStatus: s.Campaign.Status,
		EscrowStatus:   s.Escrow.Status,
		EscrowBalance:  s.Escrow.Balance,
		TotalDonated:   s.Escrow.TotalDonated(),
		Goal:           s.Campaign.Goal,
		Deadline:       s.Campaign.Deadline,
		Phase:          s.Phase,
		Tallies:        make([]TallySnapshot, 0, len(s.Proofs.Items)),
		Disbursement:   cloneDisbursement(s.Disbursement),
		Halted:         s.Halted,
		Version:        s.Version,
	}
	for _, p := range s.Proofs.Items {
		if t, ok := s.Tallies[p.ID]; ok {
			snap.Tallies = append(snap.Tallies, t.Snapshot())
		}
	}

	var primary *Proof
	if s.ApprovedProof != nil {
		primary = s.Proofs.Get(*s.ApprovedProof)
	}
	if primary == nil {
		primary = s.Proofs.Latest()
	}
	if primary != nil {
		if t, ok := s.Tallies[primary.ID]; ok {
			ts := t.Snapshot()
			snap.Tally = &ts
		}
	}
	return snap
}

// TallyFor returns the tally snapshot for one proof.
func (s *CampaignState) TallyFor(proofID id.ProofID) (TallySnapshot, bool) {
	t, ok := s.Tallies[proofID]
	if !ok {
		return TallySnapshot{}, false
	}
	return t.Snapshot(), true
}

// Clone returns a deep copy. Stores clone on read and before mutation so a
// failed operation never leaks partial changes.
func (s *CampaignState) Clone() *CampaignState {
	if s == nil {
		return nil
	}
	out := *s
	out.Escrow.Donations = append([]Donation(nil), s.Escrow.Donations...)

	out.Proofs.Items = make([]*Proof, len(s.Proofs.Items))
	for i, p := range s.Proofs.Items {
		cp := *p
		if p.DecidedAt != nil {
			at := *p.DecidedAt
			cp.DecidedAt = &at
		}
		out.Proofs.Items[i] = &cp
	}

	out.Tallies = make(map[id.ProofID]*Tally, len(s.Tallies))
	for k, t := range s.Tallies {
		ct := *t
		ct.Votes = make([]OracleVote, len(t.Votes))
		for i, v := range t.Votes {
			v.Signature = append([]byte(nil), v.Signature...)
			ct.Votes[i] = v
		}
		out.Tallies[k] = &ct
	}

	if s.ApprovedProof != nil {
		pid := *s.ApprovedProof
		out.ApprovedProof = &pid
	}
	out.Disbursement = cloneDisbursement(s.Disbursement)
	out.events = append([]Event(nil), s.events...)
	return &out
}

func cloneDisbursement(d *Disbursement) *Disbursement {
	if d == nil {
		return nil
	}
	out := *d
	out.Transfers = make([]Transfer, len(d.Transfers))
	copy(out.Transfers, d.Transfers)
	if d.ProofID != nil {
		pid := *d.ProofID
		out.ProofID = &pid
	}
	return &out
}
