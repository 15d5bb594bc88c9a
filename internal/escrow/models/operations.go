package models

import (
	"time"

	id "impactx/pkg/domain"
)

// OpKind enumerates the operations the campaign state accepts.
type OpKind string

const (
	OpDeposit     OpKind = "deposit"
	OpSubmitProof OpKind = "submit_proof"
	OpCastVote    OpKind = "cast_vote"
	OpEvaluate    OpKind = "evaluate"
)

// Operation is the closed set of inputs to CampaignState.Apply. Each variant
// carries the operation time used for deadline evaluation.
type Operation interface {
	Kind() OpKind
	now() time.Time
}

// Deposit records a donation into escrow.
type Deposit struct {
	DonorID id.PartyID
	Amount  int64
	At      time.Time
}

// SubmitProof opens a voting round on a delivery proof.
type SubmitProof struct {
	ProofID     id.ProofID
	ContentHash id.ContentHash
	UploaderID  id.PartyID
	At          time.Time
}

// CastVote adds one oracle's weighted vote. Weight is read from the oracle
// registry by the caller at submission time; the signature has already been
// verified against the oracle's registered key.
type CastVote struct {
	ProofID   id.ProofID
	OracleID  id.OracleID
	Vote      bool
	Weight    int64
	Signature []byte
	At        time.Time
}

// Evaluate re-checks deadline and pending release conditions without other input.
// Status queries run it so an elapsed deadline is observed on read.
type Evaluate struct {
	At time.Time
}

func (Deposit) Kind() OpKind     { return OpDeposit }
func (SubmitProof) Kind() OpKind { return OpSubmitProof }
func (CastVote) Kind() OpKind    { return OpCastVote }
func (Evaluate) Kind() OpKind    { return OpEvaluate }

func (o Deposit) now() time.Time     { return o.At }
func (o SubmitProof) now() time.Time { return o.At }
func (o CastVote) now() time.Time    { return o.At }
func (o Evaluate) now() time.Time    { return o.At }

// Transition records a decision phase change made while applying an operation.
type Transition struct {
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// Result describes what Apply did.
//
// Committed is true when the state changed and must be persisted. It can be
// true alongside a non-nil error: a forced deadline refund or an integrity
// halt is committed even though the requested operation was not applied.
type Result struct {
	Op           OpKind
	Committed    bool
	Forced       bool
	Halted       bool
	Donation     *Donation
	Proof        *Proof
	Tally        *TallySnapshot
	Disbursement *Disbursement
	Transitions  []Transition
}
