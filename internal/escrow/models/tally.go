package models

import (
	"math"
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// OracleVote is one oracle's attestation on one proof. Weight is the oracle's
// weight in effect when the vote was cast; later registry changes do not
// rewrite it.
type OracleVote struct {
	ProofID   id.ProofID  `json:"proofId"`
	OracleID  id.OracleID `json:"oracleId"`
	Vote      bool        `json:"vote"`
	Weight    int64       `json:"weight"`
	Signature []byte      `json:"signature"`
	CastAt    time.Time   `json:"castAt"`
}

// Tally accumulates weighted votes for a single proof.
//
// Invariants:
//   - at most one vote per oracle; a second one is rejected, never overwritten
//   - YesWeight/NoWeight equal the sums of the recorded votes' weights, so the
//     totals do not depend on arrival order
//   - Approved and Rejected are latches: once set they are never cleared
type Tally struct {
	ProofID   id.ProofID   `json:"proofId"`
	YesWeight int64        `json:"yesWeight"`
	NoWeight  int64        `json:"noWeight"`
	Votes     []OracleVote `json:"votes"`
	Approved  bool         `json:"approved"`
	Rejected  bool         `json:"rejected"`
}

// TallySnapshot is the read-only view of a tally returned to collaborators.
type TallySnapshot struct {
	ProofID   id.ProofID `json:"proofId"`
	YesWeight int64      `json:"yesWeight"`
	NoWeight  int64      `json:"noWeight"`
	Voters    int        `json:"voters"`
	Approved  bool       `json:"approved"`
	Rejected  bool       `json:"rejected"`
}

func newTally(proofID id.ProofID) *Tally {
	return &Tally{ProofID: proofID, Votes: []OracleVote{}}
}

// HasVoted reports whether oracleID already voted on this proof.
func (t *Tally) HasVoted(oracleID id.OracleID) bool {
	for _, v := range t.Votes {
		if v.OracleID == oracleID {
			return true
		}
	}
	return false
}

// Snapshot returns the current counters.
func (t *Tally) Snapshot() TallySnapshot {
	return TallySnapshot{
		ProofID:   t.ProofID,
		YesWeight: t.YesWeight,
		NoWeight:  t.NoWeight,
		Voters:    len(t.Votes),
		Approved:  t.Approved,
		Rejected:  t.Rejected,
	}
}

func (t *Tally) cast(v OracleVote) error {
	if v.Weight <= 0 {
		return dErrors.New(dErrors.CodeUnauthorizedOracle, "oracle has no voting weight")
	}
	if t.HasVoted(v.OracleID) {
		return dErrors.New(dErrors.CodeDuplicateVote, "oracle already voted on this proof")
	}
	if v.Vote {
		if t.YesWeight > math.MaxInt64-v.Weight {
			return dErrors.New(dErrors.CodeInvariantViolation, "yes weight overflow")
		}
		t.YesWeight += v.Weight
	} else {
		if t.NoWeight > math.MaxInt64-v.Weight {
			return dErrors.New(dErrors.CodeInvariantViolation, "no weight overflow")
		}
		t.NoWeight += v.Weight
	}
	t.Votes = append(t.Votes, v)
	return nil
}
