package models

import (
	"math/big"
	"time"

	id "impactx/pkg/domain"
)

// DisbursementKind distinguishes a release to the NGO from a refund to donors.
type DisbursementKind string

const (
	DisbursementRelease DisbursementKind = "release"
	DisbursementRefund  DisbursementKind = "refund"
)

// Refund reasons recorded on the disbursement instruction.
const (
	ReasonProofApproved = "proof_approved"
	ReasonProofRejected = "proof_rejected"
	ReasonDeadline      = "deadline_elapsed"
)

// Transfer is one line of a disbursement instruction.
type Transfer struct {
	Destination id.PartyID `json:"destination"`
	Amount      int64      `json:"amount"`
}

// Disbursement is the authoritative instruction handed to the settlement rail.
// The core decides that and how much funds move; it never moves them itself.
type Disbursement struct {
	ID         id.DisbursementID `json:"disbursementId"`
	CampaignID id.CampaignID     `json:"campaignId"`
	Kind       DisbursementKind  `json:"kind"`
	Reason     string            `json:"reason"`
	ProofID    *id.ProofID       `json:"proofId,omitempty"`
	Transfers  []Transfer        `json:"transfers"`
	Total      int64             `json:"total"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// releasePlan sends the whole balance to the NGO payout identity.
func releasePlan(ngo id.PartyID, balance int64) []Transfer {
	if balance == 0 {
		return []Transfer{}
	}
	return []Transfer{{Destination: ngo, Amount: balance}}
}

// refundPlan splits balance pro-rata over each donor's recorded contributions.
//
// Donors are listed in ledger order of their first donation. Each share is
// floor(balance * donated / totalDonated); the rounding remainder goes to the
// last donor in that order, so the plan always sums to exactly balance.
func refundPlan(donations []Donation, balance int64) []Transfer {
	if balance == 0 || len(donations) == 0 {
		return []Transfer{}
	}

	order := make([]id.PartyID, 0, len(donations))
	perDonor := make(map[id.PartyID]int64, len(donations))
	var total int64
	for _, d := range donations {
		if _, seen := perDonor[d.DonorID]; !seen {
			order = append(order, d.DonorID)
		}
		perDonor[d.DonorID] += d.Amount
		total += d.Amount
	}
	if total == 0 {
		return []Transfer{}
	}

	bigBalance := big.NewInt(balance)
	bigTotal := big.NewInt(total)
	transfers := make([]Transfer, 0, len(order))
	var allocated int64
	for _, donor := range order {
		share := new(big.Int).Mul(bigBalance, big.NewInt(perDonor[donor]))
		share.Quo(share, bigTotal)
		amount := share.Int64()
		allocated += amount
		transfers = append(transfers, Transfer{Destination: donor, Amount: amount})
	}
	transfers[len(transfers)-1].Amount += balance - allocated
	return transfers
}
