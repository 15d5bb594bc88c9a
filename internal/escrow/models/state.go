package models

import (
	"fmt"
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// Phase is the decision engine's view of a campaign.
//
//	Active -> ProofApproved -> Released
//	Active -> ProofRejected -> Refunded
//	Active -> Refunded                   (deadline)
//
// ProofApproved is only observable at rest when the policy requires the goal
// before release; otherwise approval and release commit together.
type Phase string

const (
	PhaseActive        Phase = "Active"
	PhaseProofApproved Phase = "ProofApproved"
	PhaseProofRejected Phase = "ProofRejected"
	PhaseReleased      Phase = "Released"
	PhaseRefunded      Phase = "Refunded"
)

// IsTerminal reports whether the phase accepts no further mutation.
func (p Phase) IsTerminal() bool {
	return p == PhaseReleased || p == PhaseRefunded
}

// CampaignState is the isolation unit of the escrow core: one campaign's
// ledger record, escrow, proofs, tallies and decision phase. Stores hand out
// exclusive access to it for the duration of one operation; Apply is the only
// way its counters, balance and statuses change.
type CampaignState struct {
	Campaign      Campaign               `json:"campaign"`
	Escrow        Escrow                 `json:"escrow"`
	Proofs        ProofRegistry          `json:"proofs"`
	Tallies       map[id.ProofID]*Tally  `json:"tallies"`
	Phase         Phase                  `json:"phase"`
	ApprovedProof *id.ProofID            `json:"approvedProof,omitempty"`
	Disbursement  *Disbursement          `json:"disbursement,omitempty"`
	Halted        bool                   `json:"halted,omitempty"`
	HaltReason    string                 `json:"haltReason,omitempty"`
	Version       int64                  `json:"version"`
	UpdatedAt     time.Time              `json:"updatedAt"`

	events []Event
}

// NewCampaignState opens escrow for a freshly registered campaign.
func NewCampaignState(c *Campaign) *CampaignState {
	s := &CampaignState{
		Campaign: *c,
		Escrow:   newEscrow(c.ID),
		Proofs:   ProofRegistry{Items: []*Proof{}},
		Tallies:  make(map[id.ProofID]*Tally),
		Phase:    PhaseActive,
	}
	s.emit(Event{Type: EventCampaignRegistered}, c.CreatedAt)
	s.commit(c.CreatedAt)
	return s
}

// IsFinalized reports whether escrow has been released or refunded.
func (s *CampaignState) IsFinalized() bool {
	return s.Phase.IsTerminal()
}

// Apply runs one operation against the campaign.
//
// A deadline that has elapsed on a still-active campaign is enforced first:
// the refund is committed and every operation other than Evaluate then fails
// with CodeDeadlineExceeded carrying the terminal status. A rejected operation
// leaves the state exactly as it was. An InsufficientBalance fault restores
// the pre-operation state, halts the campaign and is committed as such.
func (s *CampaignState) Apply(op Operation) (Result, error) {
	res := Result{Op: op.Kind()}
	if s.Halted {
		if op.Kind() == OpEvaluate {
			return res, nil
		}
		return res, dErrors.New(dErrors.CodeInsufficientBalance, "campaign halted after integrity fault: "+s.HaltReason)
	}

	now := op.now()
	before := s.Clone()

	if !s.IsFinalized() && s.Campaign.DeadlineElapsed(now) {
		if err := s.refund(now, ReasonDeadline, nil, &res); err != nil {
			return s.halt(before, now, err, res.Op)
		}
		s.commit(now)
		res.Committed = true
		res.Forced = true
		if op.Kind() == OpEvaluate {
			return res, nil
		}
		return res, dErrors.Wrap(
			&DeadlineError{Status: s.Status()},
			dErrors.CodeDeadlineExceeded,
			fmt.Sprintf("deadline elapsed before %s; campaign refunded", op.Kind()),
		)
	}

	changed, err := s.dispatch(op, now, &res)
	if err != nil {
		s.restore(before)
		if dErrors.IsFatal(err) {
			return s.halt(before, now, err, res.Op)
		}
		return Result{Op: op.Kind()}, err
	}
	if changed {
		s.commit(now)
		res.Committed = true
	}
	return res, nil
}

func (s *CampaignState) dispatch(op Operation, now time.Time, res *Result) (bool, error) {
	switch o := op.(type) {
	case Deposit:
		return true, s.applyDeposit(o, now, res)
	case SubmitProof:
		return true, s.applySubmitProof(o, now, res)
	case CastVote:
		return true, s.applyCastVote(o, now, res)
	case Evaluate:
		return s.applyEvaluate(now, res)
	default:
		return false, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("unsupported operation %T", op))
	}
}

func (s *CampaignState) applyDeposit(o Deposit, now time.Time, res *Result) error {
	if s.IsFinalized() {
		return dErrors.New(dErrors.CodeCampaignNotActive, "campaign is finalized")
	}
	d, err := s.Escrow.deposit(o.DonorID, o.Amount, now)
	if err != nil {
		return err
	}
	res.Donation = &d
	s.emit(Event{Type: EventDonationReceived, Donation: &d}, now)

	if s.Campaign.Status == CampaignStatusActive && s.Campaign.GoalMet(s.Escrow.Balance) {
		s.Campaign.Status = CampaignStatusGoalReached
		s.emit(Event{Type: EventGoalReached}, now)
	}
	if s.ApprovedProof != nil && s.releaseDue() {
		return s.release(now, res)
	}
	return nil
}

func (s *CampaignState) applySubmitProof(o SubmitProof, now time.Time, res *Result) error {
	if s.IsFinalized() {
		return dErrors.New(dErrors.CodeAlreadyFinalized, "campaign is finalized")
	}
	if !s.Campaign.Status.IsOpen() {
		return dErrors.New(dErrors.CodeCampaignNotActive, "campaign does not accept proofs")
	}
	if s.ApprovedProof != nil {
		return dErrors.New(dErrors.CodeConflict, "campaign already has an approved proof")
	}
	p, err := s.Proofs.submit(o.ProofID, s.Campaign.ID, o.ContentHash, o.UploaderID, now)
	if err != nil {
		return err
	}
	s.Tallies[p.ID] = newTally(p.ID)
	cp := *p
	res.Proof = &cp
	s.emit(Event{Type: EventProofSubmitted, ProofID: &cp.ID}, now)
	return nil
}

func (s *CampaignState) applyCastVote(o CastVote, now time.Time, res *Result) error {
	if s.IsFinalized() {
		return dErrors.New(dErrors.CodeAlreadyFinalized, "campaign is finalized")
	}
	p := s.Proofs.Get(o.ProofID)
	if p == nil {
		return dErrors.New(dErrors.CodeNotFound, "proof not found")
	}
	t, ok := s.Tallies[p.ID]
	if !ok {
		t = newTally(p.ID)
		s.Tallies[p.ID] = t
	}
	err := t.cast(OracleVote{
		ProofID:   p.ID,
		OracleID:  o.OracleID,
		Vote:      o.Vote,
		Weight:    o.Weight,
		Signature: append([]byte(nil), o.Signature...),
		CastAt:    now.UTC(),
	})
	if err != nil {
		return err
	}
	voteSnap := t.Snapshot()
	proofID := p.ID
	s.emit(Event{Type: EventVoteCast, ProofID: &proofID, Tally: &voteSnap}, now)

	if err := s.evaluateTally(p, t, now, res); err != nil {
		return err
	}
	snap := t.Snapshot()
	res.Tally = &snap
	return nil
}

// evaluateTally is the tally-to-decision handoff. Approval is latched on the
// first crossing; a later vote cannot undo it.
func (s *CampaignState) evaluateTally(p *Proof, t *Tally, now time.Time, res *Result) error {
	if s.ApprovedProof != nil || p.Status != ProofStatusPending {
		return nil
	}
	policy := s.Campaign.Policy
	proofID := p.ID

	if !t.Approved && policy.Approves(t.YesWeight, t.NoWeight) {
		t.Approved = true
		if err := s.Proofs.markVerified(proofID, now); err != nil {
			return err
		}
		s.ApprovedProof = &proofID
		s.transition(PhaseProofApproved, res)
		snap := t.Snapshot()
		s.emit(Event{Type: EventProofVerified, ProofID: &proofID, Tally: &snap}, now)
		if s.releaseDue() {
			return s.release(now, res)
		}
		return nil
	}

	if !t.Rejected && policy.Rejects(t.YesWeight, t.NoWeight) {
		t.Rejected = true
		if err := s.Proofs.markRejected(proofID, now); err != nil {
			return err
		}
		s.transition(PhaseProofRejected, res)
		snap := t.Snapshot()
		s.emit(Event{Type: EventProofRejected, ProofID: &proofID, Tally: &snap}, now)
		return s.refund(now, ReasonProofRejected, &proofID, res)
	}
	return nil
}

func (s *CampaignState) applyEvaluate(now time.Time, res *Result) (bool, error) {
	if s.IsFinalized() {
		return false, nil
	}
	if s.ApprovedProof != nil && s.releaseDue() {
		return true, s.release(now, res)
	}
	return false, nil
}

func (s *CampaignState) releaseDue() bool {
	return !s.Campaign.Policy.ReleaseRequiresGoal || s.Campaign.GoalMet(s.Escrow.Balance)
}

func (s *CampaignState) release(now time.Time, res *Result) error {
	plan := releasePlan(s.Campaign.NGOAddress, s.Escrow.Balance)
	total, err := s.Escrow.disburse(DisbursementRelease, plan)
	if err != nil {
		return err
	}
	proofID := *s.ApprovedProof
	d := &Disbursement{
		ID:         id.NewDisbursementID(),
		CampaignID: s.Campaign.ID,
		Kind:       DisbursementRelease,
		Reason:     ReasonProofApproved,
		ProofID:    &proofID,
		Transfers:  plan,
		Total:      total,
		CreatedAt:  now.UTC(),
	}
	s.Disbursement = d
	s.Campaign.Status = CampaignStatusCompleted
	s.transition(PhaseReleased, res)
	res.Disbursement = cloneDisbursement(d)
	s.emit(Event{Type: EventEscrowReleased, ProofID: &proofID, Disbursement: cloneDisbursement(d)}, now)
	return nil
}

func (s *CampaignState) refund(now time.Time, reason string, proofID *id.ProofID, res *Result) error {
	plan := refundPlan(s.Escrow.Donations, s.Escrow.Balance)
	total, err := s.Escrow.disburse(DisbursementRefund, plan)
	if err != nil {
		return err
	}
	d := &Disbursement{
		ID:         id.NewDisbursementID(),
		CampaignID: s.Campaign.ID,
		Kind:       DisbursementRefund,
		Reason:     reason,
		Transfers:  plan,
		Total:      total,
		CreatedAt:  now.UTC(),
	}
	if proofID != nil {
		pid := *proofID
		d.ProofID = &pid
	}
	s.Disbursement = d
	s.Campaign.Status = CampaignStatusFailed
	if reason == ReasonDeadline {
		s.emit(Event{Type: EventDeadlineElapsed}, now)
	}
	s.transition(PhaseRefunded, res)
	res.Disbursement = cloneDisbursement(d)
	s.emit(Event{Type: EventEscrowRefunded, ProofID: d.ProofID, Disbursement: cloneDisbursement(d)}, now)
	return nil
}

func (s *CampaignState) halt(before *CampaignState, now time.Time, cause error, op OpKind) (Result, error) {
	s.restore(before)
	s.Halted = true
	s.HaltReason = cause.Error()
	s.emit(Event{Type: EventIntegrityFault, Detail: s.HaltReason}, now)
	s.commit(now)
	return Result{Op: op, Committed: true, Halted: true}, cause
}

func (s *CampaignState) transition(to Phase, res *Result) {
	res.Transitions = append(res.Transitions, Transition{From: s.Phase, To: to})
	s.Phase = to
}

func (s *CampaignState) restore(from *CampaignState) {
	*s = *from.Clone()
}

// commit bumps the version and stamps it onto events emitted since the last commit.
func (s *CampaignState) commit(now time.Time) {
	s.Version++
	s.UpdatedAt = now.UTC()
	for i := range s.events {
		if s.events[i].Version == 0 {
			s.events[i].Version = s.Version
		}
	}
}

func (s *CampaignState) emit(e Event, now time.Time) {
	e.CampaignID = s.Campaign.ID
	e.At = now.UTC()
	e.CampaignStatus = s.Campaign.Status
	e.EscrowStatus = s.Escrow.Status
	e.EscrowBalance = s.Escrow.Balance
	s.events = append(s.events, e)
}

// DrainEvents returns and clears the events produced since the last drain.
// Stores call it inside the same transaction that persists the state.
func (s *CampaignState) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// DeadlineError carries the terminal status reached by a forced deadline refund.
type DeadlineError struct {
	Status StatusSnapshot
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("campaign %s is %s after deadline", e.Status.CampaignID, e.Status.CampaignStatus)
}
