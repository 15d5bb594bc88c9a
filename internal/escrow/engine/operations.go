package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"impactx/internal/escrow/models"
	oraclemodels "impactx/internal/oracle/models"
	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
	"impactx/pkg/requestcontext"
)

// RegisterCampaignRequest is what the campaign metadata collaborator hands
// the core when a campaign opens. A nil CampaignID mints a fresh one.
type RegisterCampaignRequest struct {
	CampaignID id.CampaignID
	Goal       int64
	Deadline   time.Time
	NGOAddress id.PartyID
	Policy     models.Policy
}

// RegisterCampaign opens escrow for a new campaign.
func (e *Engine) RegisterCampaign(ctx context.Context, req RegisterCampaignRequest) (_ *models.StatusSnapshot, err error) {
	ctx, finish := e.begin(ctx, "register_campaign")
	defer func() { finish(err) }()

	ngo, err := id.ParsePartyID(req.NGOAddress.String())
	if err != nil {
		return nil, err
	}
	campaignID := req.CampaignID
	if campaignID.IsNil() {
		campaignID = id.NewCampaignID()
	}
	c, err := models.NewCampaign(campaignID, req.Goal, req.Deadline, ngo, req.Policy, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	state := models.NewCampaignState(c)
	status := state.Status()

	txCtx, cancel := e.txContext(ctx)
	defer cancel()
	if err := e.store.Create(txCtx, state); err != nil {
		return nil, translateStoreErr(err, "campaign")
	}

	e.logAudit(ctx, "campaign_registered",
		"campaign_id", campaignID.String(),
		"goal", c.Goal,
		"deadline", c.Deadline,
		"mode", string(c.Policy.Mode),
		"approve_threshold", c.Policy.ApproveThreshold,
		"reject_threshold", c.Policy.RejectThreshold,
	)
	e.project(ctx, status)
	return &status, nil
}

// SubmitDonation records a donation into the campaign's escrow.
func (e *Engine) SubmitDonation(ctx context.Context, campaignID id.CampaignID, donorID id.PartyID, amount int64) (_ *models.StatusSnapshot, err error) {
	ctx, finish := e.begin(ctx, "submit_donation", attribute.String("campaign_id", campaignID.String()))
	defer func() { finish(err) }()

	donor, err := id.ParsePartyID(donorID.String())
	if err != nil {
		return nil, err
	}
	op := models.Deposit{DonorID: donor, Amount: amount, At: requestcontext.Now(ctx)}
	res, status, err := e.apply(ctx, campaignID, op)
	if err != nil {
		return nil, err
	}
	if res.Donation != nil {
		e.metrics.AddDeposit(res.Donation.Amount)
	}
	return status, nil
}

// SubmitProof opens a voting round on a delivery proof and returns its id.
func (e *Engine) SubmitProof(ctx context.Context, campaignID id.CampaignID, contentHash id.ContentHash, uploaderID id.PartyID) (_ id.ProofID, err error) {
	ctx, finish := e.begin(ctx, "submit_proof", attribute.String("campaign_id", campaignID.String()))
	defer func() { finish(err) }()

	// Hashes are compared after lowercasing so case variants of one
	// artifact collide on the duplicate check.
	hash, err := id.ParseContentHash(contentHash.String())
	if err != nil {
		return id.ProofID{}, err
	}
	uploader, err := id.ParsePartyID(uploaderID.String())
	if err != nil {
		return id.ProofID{}, err
	}
	proofID := id.NewProofID()
	op := models.SubmitProof{
		ProofID:     proofID,
		ContentHash: hash,
		UploaderID:  uploader,
		At:          requestcontext.Now(ctx),
	}
	if _, _, err := e.apply(ctx, campaignID, op); err != nil {
		return id.ProofID{}, err
	}
	return proofID, nil
}

// SubmitVote authenticates and records one oracle vote, then lets the
// decision engine act on the new tally within the same transaction.
func (e *Engine) SubmitVote(ctx context.Context, proofID id.ProofID, oracleID id.OracleID, vote bool, sig []byte) (_ *models.TallySnapshot, err error) {
	ctx, finish := e.begin(ctx, "submit_vote",
		attribute.String("proof_id", proofID.String()),
		attribute.String("oracle_id", oracleID.String()),
	)
	defer func() { finish(err) }()

	oracle, err := e.authorizeVote(ctx, proofID, oracleID, vote, sig)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorizedOracle) {
			e.settleDeadline(ctx, proofID)
		}
		return nil, err
	}

	campaignID, err := e.store.CampaignForProof(ctx, proofID)
	if err != nil {
		return nil, translateStoreErr(err, "proof")
	}

	op := models.CastVote{
		ProofID:   proofID,
		OracleID:  oracleID,
		Vote:      vote,
		Weight:    oracle.Weight,
		Signature: sig,
		At:        requestcontext.Now(ctx),
	}
	res, _, err := e.apply(ctx, campaignID, op)
	if err != nil {
		return nil, err
	}
	e.metrics.IncrementVote(vote)
	return res.Tally, nil
}

func (e *Engine) authorizeVote(ctx context.Context, proofID id.ProofID, oracleID id.OracleID, vote bool, sig []byte) (*oraclemodels.Oracle, error) {
	oracle, err := e.oracles.Get(ctx, oracleID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorizedOracle, "oracle is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up oracle")
	}
	if !oracle.IsActive() {
		return nil, dErrors.New(dErrors.CodeUnauthorizedOracle, "oracle is not active")
	}
	if err := e.verifier.Verify(proofID, oracleID, vote, sig); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorizedOracle) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorizedOracle, "vote signature rejected")
	}
	return oracle, nil
}

// settleDeadline commits a pending deadline refund for the campaign owning
// proofID. A rejected vote still counts as processing for that campaign.
func (e *Engine) settleDeadline(ctx context.Context, proofID id.ProofID) {
	campaignID, err := e.store.CampaignForProof(ctx, proofID)
	if err != nil {
		return
	}
	if _, _, err := e.apply(ctx, campaignID, models.Evaluate{At: requestcontext.Now(ctx)}); err != nil {
		e.logger.WarnContext(ctx, "deadline settlement after rejected vote failed",
			"campaign_id", campaignID.String(),
			"proof_id", proofID.String(),
			"error", err,
		)
	}
}

// QueryStatus returns the campaign's settled view. An elapsed deadline is
// enforced before the view is taken.
func (e *Engine) QueryStatus(ctx context.Context, campaignID id.CampaignID) (_ *models.StatusSnapshot, err error) {
	ctx, finish := e.begin(ctx, "query_status", attribute.String("campaign_id", campaignID.String()))
	defer func() { finish(err) }()

	_, status, err := e.apply(ctx, campaignID, models.Evaluate{At: requestcontext.Now(ctx)})
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Disbursement returns the campaign's disbursement instruction, or
// CodeNotFound while funds are still held.
func (e *Engine) Disbursement(ctx context.Context, campaignID id.CampaignID) (*models.Disbursement, error) {
	state, err := e.store.Get(ctx, campaignID)
	if err != nil {
		return nil, translateStoreErr(err, "campaign")
	}
	if state.Disbursement == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "campaign has no disbursement yet")
	}
	return state.Disbursement, nil
}

// apply runs op as one campaign transaction. The returned status is the
// state as committed, or unchanged when the operation was rejected.
func (e *Engine) apply(ctx context.Context, campaignID id.CampaignID, op models.Operation) (models.Result, *models.StatusSnapshot, error) {
	var (
		res    models.Result
		status models.StatusSnapshot
		opErr  error
	)
	txCtx, cancel := e.txContext(ctx)
	defer cancel()

	err := e.store.Update(txCtx, campaignID, func(state *models.CampaignState) (bool, error) {
		res, opErr = state.Apply(op)
		status = state.Status()
		return res.Committed, opErr
	})
	// Stores hand fn's error back unchanged; anything else means the
	// transaction itself failed and nothing was persisted.
	persisted := res.Committed && (err == nil || err == opErr)
	if persisted {
		e.afterCommit(ctx, res, status)
	}
	if err != nil {
		if !persisted {
			res = models.Result{Op: op.Kind()}
		}
		return res, nil, translateStoreErr(err, "campaign")
	}
	return res, &status, nil
}
