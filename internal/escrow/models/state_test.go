package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

const (
	oracleA id.OracleID = "oracle-a"
	oracleB id.OracleID = "oracle-b"
	oracleC id.OracleID = "oracle-c"
)

var weights = map[id.OracleID]int64{oracleA: 3, oracleB: 2, oracleC: 1}

type CampaignStateSuite struct {
	suite.Suite
	now time.Time
	ngo id.PartyID
}

func TestCampaignStateSuite(t *testing.T) {
	suite.Run(t, new(CampaignStateSuite))
}

func (s *CampaignStateSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ngo = id.PartyID("ngo-payout")
}

func (s *CampaignStateSuite) newState(goal int64, policy Policy) *CampaignState {
	c, err := NewCampaign(id.NewCampaignID(), goal, s.now.Add(24*time.Hour), s.ngo, policy, s.now)
	s.Require().NoError(err)
	return NewCampaignState(c)
}

func (s *CampaignStateSuite) deposit(st *CampaignState, donor string, amount int64) Result {
	res, err := st.Apply(Deposit{DonorID: id.PartyID(donor), Amount: amount, At: s.now})
	s.Require().NoError(err)
	return res
}

func (s *CampaignStateSuite) submitProof(st *CampaignState, hash string) id.ProofID {
	proofID := id.NewProofID()
	_, err := st.Apply(SubmitProof{
		ProofID:     proofID,
		ContentHash: id.ContentHash(hash),
		UploaderID:  s.ngo,
		At:          s.now,
	})
	s.Require().NoError(err)
	return proofID
}

func (s *CampaignStateSuite) vote(st *CampaignState, proofID id.ProofID, oracle id.OracleID, yes bool) (Result, error) {
	return st.Apply(CastVote{
		ProofID:   proofID,
		OracleID:  oracle,
		Vote:      yes,
		Weight:    weights[oracle],
		Signature: []byte("sig"),
		At:        s.now,
	})
}

func absolute(approve, reject int64) Policy {
	return Policy{Mode: ThresholdAbsolute, ApproveThreshold: approve, RejectThreshold: reject}
}

// =============================================================================
// Decision paths
// =============================================================================

func (s *CampaignStateSuite) TestApprovalReleasesAtomically() {
	st := s.newState(100, absolute(5, 0))
	s.deposit(st, "donor-1", 100)
	proofID := s.submitProof(st, "aa")

	s.Run("first yes vote below threshold changes nothing but the tally", func() {
		res, err := s.vote(st, proofID, oracleA, true)
		s.Require().NoError(err)
		s.Empty(res.Transitions)
		s.Equal(int64(3), res.Tally.YesWeight)
		s.Equal(PhaseActive, st.Phase)
		s.Equal(int64(100), st.Escrow.Balance)
	})

	s.Run("crossing vote approves and releases in one commit", func() {
		versionBefore := st.Version
		res, err := s.vote(st, proofID, oracleB, true)
		s.Require().NoError(err)
		s.True(res.Committed)
		s.Equal([]Transition{
			{From: PhaseActive, To: PhaseProofApproved},
			{From: PhaseProofApproved, To: PhaseReleased},
		}, res.Transitions)
		s.Equal(versionBefore+1, st.Version)

		s.Require().NotNil(res.Disbursement)
		s.Equal(DisbursementRelease, res.Disbursement.Kind)
		s.Equal([]Transfer{{Destination: s.ngo, Amount: 100}}, res.Disbursement.Transfers)
		s.Equal(int64(5), res.Tally.YesWeight)
		s.True(res.Tally.Approved)

		s.Equal(CampaignStatusCompleted, st.Campaign.Status)
		s.Equal(EscrowStatusReleased, st.Escrow.Status)
		s.Equal(int64(0), st.Escrow.Balance)
		s.Equal(ProofStatusVerified, st.Proofs.Get(proofID).Status)
	})

	s.Run("vote after release is refused", func() {
		_, err := s.vote(st, proofID, oracleC, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyFinalized))

		snap, ok := st.TallyFor(proofID)
		s.Require().True(ok)
		s.Equal(2, snap.Voters)
	})
}

func (s *CampaignStateSuite) TestRejectionRefunds() {
	st := s.newState(100, absolute(5, 3))
	s.deposit(st, "donor-1", 60)
	s.deposit(st, "donor-2", 40)
	proofID := s.submitProof(st, "bb")

	res, err := s.vote(st, proofID, oracleA, false)
	s.Require().NoError(err)
	s.Equal([]Transition{
		{From: PhaseActive, To: PhaseProofRejected},
		{From: PhaseProofRejected, To: PhaseRefunded},
	}, res.Transitions)
	s.Require().NotNil(res.Disbursement)
	s.Equal(DisbursementRefund, res.Disbursement.Kind)
	s.Equal(ReasonProofRejected, res.Disbursement.Reason)
	s.Equal([]Transfer{
		{Destination: "donor-1", Amount: 60},
		{Destination: "donor-2", Amount: 40},
	}, res.Disbursement.Transfers)
	s.Equal(CampaignStatusFailed, st.Campaign.Status)
	s.Equal(EscrowStatusRefunded, st.Escrow.Status)
	s.Equal(ProofStatusRejected, st.Proofs.Get(proofID).Status)
}

func (s *CampaignStateSuite) TestMarginMode() {
	st := s.newState(100, Policy{Mode: ThresholdMargin, ApproveThreshold: 2, RejectThreshold: 2})
	s.deposit(st, "donor-1", 100)
	proofID := s.submitProof(st, "cc")

	_, err := s.vote(st, proofID, oracleB, false)
	s.Require().NoError(err)
	s.Equal(PhaseRefunded, st.Phase, "no-yes = 2 meets the reject margin")
}

func (s *CampaignStateSuite) TestTallyIsOrderIndependent() {
	type ballot struct {
		oracle id.OracleID
		yes    bool
	}
	ballots := []ballot{{oracleA, true}, {oracleB, false}, {oracleC, true}}
	permutations := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	var first *TallySnapshot
	for _, order := range permutations {
		st := s.newState(100, absolute(50, 50))
		s.deposit(st, "donor-1", 10)
		proofID := s.submitProof(st, "dd")
		for _, i := range order {
			_, err := s.vote(st, proofID, ballots[i].oracle, ballots[i].yes)
			s.Require().NoError(err)
		}
		snap, ok := st.TallyFor(proofID)
		s.Require().True(ok)
		snap.ProofID = id.ProofID{}
		if first == nil {
			first = &snap
			continue
		}
		s.Equal(*first, snap, "order %v", order)
	}
	s.Equal(int64(4), first.YesWeight)
	s.Equal(int64(2), first.NoWeight)
}

// =============================================================================
// Vote validation
// =============================================================================

func (s *CampaignStateSuite) TestVoteValidation() {
	st := s.newState(100, absolute(50, 0))
	s.deposit(st, "donor-1", 10)
	proofID := s.submitProof(st, "ee")

	_, err := s.vote(st, proofID, oracleA, true)
	s.Require().NoError(err)

	s.Run("duplicate vote leaves tally and version unchanged", func() {
		version := st.Version
		_, err := s.vote(st, proofID, oracleA, false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateVote))
		snap, _ := st.TallyFor(proofID)
		s.Equal(int64(3), snap.YesWeight)
		s.Equal(int64(0), snap.NoWeight)
		s.Equal(version, st.Version)
	})

	s.Run("zero weight is unauthorized", func() {
		_, err := st.Apply(CastVote{ProofID: proofID, OracleID: "ghost", Vote: true, At: s.now})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorizedOracle))
	})

	s.Run("unknown proof", func() {
		_, err := s.vote(st, id.NewProofID(), oracleB, true)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Deadline
// =============================================================================

func (s *CampaignStateSuite) TestDeadlineForcesRefund() {
	s.Run("write operation after deadline fails with the refunded status", func() {
		st := s.newState(1000, absolute(5, 0))
		s.deposit(st, "donor-1", 30)
		s.deposit(st, "donor-2", 10)
		s.deposit(st, "donor-1", 20)

		late := st.Campaign.Deadline
		res, err := st.Apply(Deposit{DonorID: "donor-3", Amount: 5, At: late})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDeadlineExceeded))
		s.True(res.Committed)
		s.True(res.Forced)

		var de *DeadlineError
		s.Require().True(errors.As(err, &de))
		s.Equal(CampaignStatusFailed, de.Status.CampaignStatus)
		s.Equal(EscrowStatusRefunded, de.Status.EscrowStatus)

		s.Require().NotNil(res.Disbursement)
		s.Equal(ReasonDeadline, res.Disbursement.Reason)
		s.Equal([]Transfer{
			{Destination: "donor-1", Amount: 50},
			{Destination: "donor-2", Amount: 10},
		}, res.Disbursement.Transfers)
		s.Len(st.Escrow.Donations, 3, "late deposit is not recorded")
	})

	s.Run("evaluate after deadline refunds without error", func() {
		st := s.newState(1000, absolute(5, 0))
		s.deposit(st, "donor-1", 30)

		res, err := st.Apply(Evaluate{At: st.Campaign.Deadline.Add(time.Minute)})
		s.Require().NoError(err)
		s.True(res.Forced)
		s.Equal(PhaseRefunded, st.Phase)

		again, err := st.Apply(Evaluate{At: st.Campaign.Deadline.Add(time.Hour)})
		s.Require().NoError(err)
		s.False(again.Committed)
	})

	s.Run("approved campaign is not refunded at deadline", func() {
		st := s.newState(100, absolute(3, 0))
		s.deposit(st, "donor-1", 100)
		proofID := s.submitProof(st, "ff")
		_, err := s.vote(st, proofID, oracleA, true)
		s.Require().NoError(err)

		res, err := st.Apply(Evaluate{At: st.Campaign.Deadline.Add(time.Hour)})
		s.Require().NoError(err)
		s.False(res.Committed)
		s.Equal(PhaseReleased, st.Phase)
	})

	s.Run("evaluate before deadline is a no-op", func() {
		st := s.newState(100, absolute(3, 0))
		version := st.Version
		res, err := st.Apply(Evaluate{At: s.now})
		s.Require().NoError(err)
		s.False(res.Committed)
		s.Equal(version, st.Version)
	})
}

// =============================================================================
// Goal and release gating
// =============================================================================

func (s *CampaignStateSuite) TestGoalReached() {
	st := s.newState(100, absolute(5, 0))
	s.deposit(st, "donor-1", 40)
	s.Equal(CampaignStatusActive, st.Campaign.Status)

	s.deposit(st, "donor-2", 60)
	s.Equal(CampaignStatusGoalReached, st.Campaign.Status)

	s.deposit(st, "donor-3", 5)
	s.Equal(CampaignStatusGoalReached, st.Campaign.Status)
	s.Equal(int64(105), st.Escrow.Balance)

	var types []EventType
	for _, e := range st.DrainEvents() {
		types = append(types, e.Type)
	}
	s.Equal([]EventType{
		EventCampaignRegistered,
		EventDonationReceived,
		EventDonationReceived,
		EventGoalReached,
		EventDonationReceived,
	}, types)
	s.Empty(st.DrainEvents())
}

func (s *CampaignStateSuite) TestReleaseRequiresGoal() {
	policy := absolute(3, 0)
	policy.ReleaseRequiresGoal = true
	st := s.newState(100, policy)
	s.deposit(st, "donor-1", 50)
	proofID := s.submitProof(st, "ab")

	res, err := s.vote(st, proofID, oracleA, true)
	s.Require().NoError(err)
	s.Equal([]Transition{{From: PhaseActive, To: PhaseProofApproved}}, res.Transitions)
	s.Nil(res.Disbursement)
	s.Equal(EscrowStatusActive, st.Escrow.Status)

	s.Run("new proofs are refused once approval is latched", func() {
		_, err := st.Apply(SubmitProof{ProofID: id.NewProofID(), ContentHash: "cd", UploaderID: s.ngo, At: s.now})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("deposit reaching the goal releases", func() {
		res := s.deposit(st, "donor-2", 50)
		s.Require().NotNil(res.Disbursement)
		s.Equal(int64(100), res.Disbursement.Total)
		s.Equal(PhaseReleased, st.Phase)
		s.Equal(CampaignStatusCompleted, st.Campaign.Status)
	})
}

// =============================================================================
// Terminal and invalid operations
// =============================================================================

func (s *CampaignStateSuite) TestTerminalCampaignRefusesWrites() {
	st := s.newState(100, absolute(3, 0))
	s.deposit(st, "donor-1", 100)
	proofID := s.submitProof(st, "a1")
	_, err := s.vote(st, proofID, oracleA, true)
	s.Require().NoError(err)

	_, err = st.Apply(Deposit{DonorID: "donor-2", Amount: 1, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeCampaignNotActive))

	_, err = st.Apply(SubmitProof{ProofID: id.NewProofID(), ContentHash: "a2", UploaderID: s.ngo, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyFinalized))
}

func (s *CampaignStateSuite) TestProofValidation() {
	st := s.newState(100, absolute(3, 0))
	s.submitProof(st, "a1")

	_, err := st.Apply(SubmitProof{ProofID: id.NewProofID(), ContentHash: "a1", UploaderID: s.ngo, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = st.Apply(SubmitProof{ProofID: id.NewProofID(), ContentHash: "", UploaderID: s.ngo, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Len(st.Proofs.Items, 1)
}

func (s *CampaignStateSuite) TestInvalidDepositLeavesStateUntouched() {
	st := s.newState(100, absolute(3, 0))
	s.deposit(st, "donor-1", 10)
	before := st.Clone()

	_, err := st.Apply(Deposit{DonorID: "donor-2", Amount: 0, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Equal(before.Escrow, st.Escrow)
	s.Equal(before.Version, st.Version)
}

// =============================================================================
// Integrity halt
// =============================================================================

func (s *CampaignStateSuite) TestIntegrityFaultHaltsCampaign() {
	st := s.newState(100, absolute(3, 0))
	s.deposit(st, "donor-1", 100)
	proofID := s.submitProof(st, "a1")
	st.DrainEvents()

	// Justification: the ledger equation can only break through storage
	// corruption, so the test corrupts the balance directly.
	st.Escrow.Balance = 40

	res, err := s.vote(st, proofID, oracleA, true)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))
	s.True(res.Committed)
	s.True(res.Halted)
	s.True(st.Halted)
	s.Equal(PhaseActive, st.Phase)
	s.Equal(EscrowStatusActive, st.Escrow.Status)
	s.Equal(ProofStatusPending, st.Proofs.Get(proofID).Status)

	events := st.DrainEvents()
	s.Require().Len(events, 1)
	s.Equal(EventIntegrityFault, events[0].Type)

	_, err = st.Apply(Deposit{DonorID: "donor-2", Amount: 1, At: s.now})
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientBalance))

	_, err = st.Apply(Evaluate{At: st.Campaign.Deadline.Add(time.Hour)})
	s.Require().NoError(err)
	s.True(st.Status().Halted)
}

func (s *CampaignStateSuite) TestCloneIsDeep() {
	st := s.newState(100, absolute(50, 0))
	s.deposit(st, "donor-1", 10)
	proofID := s.submitProof(st, "a1")
	_, err := s.vote(st, proofID, oracleA, true)
	s.Require().NoError(err)

	cp := st.Clone()
	cp.Escrow.Donations[0].Amount = 999
	cp.Proofs.Items[0].Status = ProofStatusRejected
	cp.Tallies[proofID].YesWeight = 0

	s.Equal(int64(10), st.Escrow.Donations[0].Amount)
	s.Equal(ProofStatusPending, st.Proofs.Items[0].Status)
	s.Equal(int64(3), st.Tallies[proofID].YesWeight)
}

func (s *CampaignStateSuite) TestEventVersionsFollowCommits() {
	st := s.newState(100, absolute(50, 0))
	s.deposit(st, "donor-1", 10)
	s.deposit(st, "donor-2", 10)

	events := st.DrainEvents()
	s.Require().Len(events, 3)
	s.Equal(int64(1), events[0].Version)
	s.Equal(int64(2), events[1].Version)
	s.Equal(int64(3), events[2].Version)
	s.Equal(int64(20), events[2].EscrowBalance)
}
