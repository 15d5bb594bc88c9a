// Package domainerrors carries coded errors across the escrow core.
//
// Stores return sentinel errors (see pkg/platform/sentinel); services translate
// them into coded errors so the surrounding API layer can map each code to one
// stable, coarse-grained signal for donors, NGOs and oracles.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error classification.
type Code string

const (
	// Ambient codes.
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeConflict           Code = "conflict"
	CodeInternal           Code = "internal_error"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"

	// Escrow core taxonomy.
	CodeUnauthorizedOracle  Code = "unauthorized_oracle"
	CodeDuplicateVote       Code = "duplicate_vote"
	CodeCampaignNotActive   Code = "campaign_not_active"
	CodeAlreadyFinalized    Code = "already_finalized"
	CodeAlreadyDisbursed    Code = "already_disbursed"
	CodeDeadlineExceeded    Code = "deadline_exceeded"
	CodeInsufficientBalance Code = "insufficient_balance"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the outermost code in the chain, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// IsFatal reports whether err signals a corrupted ledger that must not be retried.
func IsFatal(err error) bool {
	return HasCode(err, CodeInsufficientBalance)
}
