package models

import (
	dErrors "impactx/pkg/domain-errors"
)

// ThresholdMode selects how a tally is compared against the campaign thresholds.
type ThresholdMode string

const (
	// ThresholdAbsolute compares each side's accumulated weight on its own:
	// approve when yes >= approve threshold, reject when no >= reject threshold.
	ThresholdAbsolute ThresholdMode = "absolute"
	// ThresholdMargin compares the lead of one side over the other:
	// approve when yes-no >= approve threshold, reject when no-yes >= reject threshold.
	ThresholdMargin ThresholdMode = "margin"
)

func (m ThresholdMode) IsValid() bool {
	return m == ThresholdAbsolute || m == ThresholdMargin
}

// Policy is the per-campaign decision configuration.
//
// Invariants:
//   - Mode is absolute or margin
//   - ApproveThreshold > 0
//   - RejectThreshold >= 0; zero means no rejection threshold is configured
//     and a proof below the approval threshold simply waits for the deadline
type Policy struct {
	Mode             ThresholdMode `json:"mode"`
	ApproveThreshold int64         `json:"approveThreshold"`
	RejectThreshold  int64         `json:"rejectThreshold,omitempty"`
	// ReleaseRequiresGoal holds an approved proof until deposits reach the goal.
	ReleaseRequiresGoal bool `json:"releaseRequiresGoal,omitempty"`
}

// Validate checks the policy invariants.
func (p Policy) Validate() error {
	if !p.Mode.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "threshold mode must be absolute or margin")
	}
	if p.ApproveThreshold <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "approve threshold must be positive")
	}
	if p.RejectThreshold < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "reject threshold cannot be negative")
	}
	return nil
}

// HasRejectThreshold reports whether a rejection threshold is configured.
func (p Policy) HasRejectThreshold() bool {
	return p.RejectThreshold > 0
}

// Approves reports whether yes/no weights satisfy the approval rule.
func (p Policy) Approves(yes, no int64) bool {
	switch p.Mode {
	case ThresholdMargin:
		return yes-no >= p.ApproveThreshold
	default:
		return yes >= p.ApproveThreshold
	}
}

// Rejects reports whether yes/no weights satisfy the rejection rule.
func (p Policy) Rejects(yes, no int64) bool {
	if !p.HasRejectThreshold() {
		return false
	}
	switch p.Mode {
	case ThresholdMargin:
		return no-yes >= p.RejectThreshold
	default:
		return no >= p.RejectThreshold
	}
}
