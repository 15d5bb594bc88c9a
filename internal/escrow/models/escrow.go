package models

import (
	"math"
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// EscrowStatus is the custody status of a campaign's funds.
type EscrowStatus string

const (
	EscrowStatusActive   EscrowStatus = "Active"
	EscrowStatusReleased EscrowStatus = "Released"
	EscrowStatusRefunded EscrowStatus = "Refunded"
)

// Donation is one append-only ledger line.
type Donation struct {
	Seq        int64         `json:"seq"`
	DonorID    id.PartyID    `json:"donorId"`
	CampaignID id.CampaignID `json:"campaignId"`
	Amount     int64         `json:"amount"`
	ReceivedAt time.Time     `json:"receivedAt"`
}

// Escrow holds custody of one campaign's funds.
//
// Invariants:
//   - Balance >= 0; it grows only through deposit and shrinks only through disburse
//   - sum(Donations.Amount) == Balance + Disbursed
//   - Status moves Active -> {Released, Refunded} exactly once; Balance is zero afterwards
//
// Mutation is unexported: only the campaign state dispatch (the decision
// engine) reaches deposit and disburse.
type Escrow struct {
	CampaignID id.CampaignID `json:"campaignId"`
	Balance    int64         `json:"balance"`
	Status     EscrowStatus  `json:"status"`
	Donations  []Donation    `json:"donations"`
	Disbursed  int64         `json:"disbursed"`
}

func newEscrow(campaignID id.CampaignID) Escrow {
	return Escrow{CampaignID: campaignID, Status: EscrowStatusActive}
}

// IsActive reports whether funds are still held.
func (e *Escrow) IsActive() bool {
	return e.Status == EscrowStatusActive
}

// TotalDonated sums the donation ledger.
func (e *Escrow) TotalDonated() int64 {
	var total int64
	for _, d := range e.Donations {
		total += d.Amount
	}
	return total
}

func (e *Escrow) deposit(donorID id.PartyID, amount int64, now time.Time) (Donation, error) {
	if !e.IsActive() {
		return Donation{}, dErrors.New(dErrors.CodeCampaignNotActive, "escrow no longer accepts deposits")
	}
	if donorID == "" {
		return Donation{}, dErrors.New(dErrors.CodeInvalidInput, "donor id is required")
	}
	if amount <= 0 {
		return Donation{}, dErrors.New(dErrors.CodeInvalidInput, "donation amount must be positive")
	}
	if e.Balance > math.MaxInt64-amount {
		return Donation{}, dErrors.New(dErrors.CodeInvalidInput, "donation amount overflows escrow balance")
	}
	d := Donation{
		Seq:        int64(len(e.Donations)) + 1,
		DonorID:    donorID,
		CampaignID: e.CampaignID,
		Amount:     amount,
		ReceivedAt: now.UTC(),
	}
	e.Donations = append(e.Donations, d)
	e.Balance += amount
	return d, nil
}

// checkIntegrity asserts the ledger equation ahead of a disbursement.
func (e *Escrow) checkIntegrity() error {
	if e.Balance < 0 {
		return dErrors.New(dErrors.CodeInsufficientBalance, "escrow balance is negative")
	}
	if e.TotalDonated() != e.Balance+e.Disbursed {
		return dErrors.New(dErrors.CodeInsufficientBalance, "donation ledger does not match escrow balance")
	}
	return nil
}

// disburse zeroes the balance against the given transfers and moves the
// escrow to its terminal status. A second call observes AlreadyDisbursed.
func (e *Escrow) disburse(kind DisbursementKind, transfers []Transfer) (int64, error) {
	if !e.IsActive() {
		return 0, dErrors.New(dErrors.CodeAlreadyDisbursed, "escrow already disbursed")
	}
	if err := e.checkIntegrity(); err != nil {
		return 0, err
	}
	var total int64
	for _, t := range transfers {
		if t.Amount < 0 {
			return 0, dErrors.New(dErrors.CodeInsufficientBalance, "negative transfer amount")
		}
		total += t.Amount
	}
	if total > e.Balance {
		return 0, dErrors.New(dErrors.CodeInsufficientBalance, "transfers exceed escrow balance")
	}
	if total != e.Balance {
		return 0, dErrors.New(dErrors.CodeInsufficientBalance, "transfers do not cover escrow balance")
	}

	switch kind {
	case DisbursementRelease:
		e.Status = EscrowStatusReleased
	case DisbursementRefund:
		e.Status = EscrowStatusRefunded
	default:
		return 0, dErrors.New(dErrors.CodeInternal, "unknown disbursement kind")
	}
	e.Disbursed += total
	e.Balance = 0
	return total, nil
}
