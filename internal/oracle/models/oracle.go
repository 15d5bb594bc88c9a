package models

import (
	"encoding/json"
	"strings"
	"time"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

// OracleStatus is the registry status of an oracle.
type OracleStatus string

const (
	OracleStatusActive   OracleStatus = "active"
	OracleStatusInactive OracleStatus = "inactive"
)

func (s OracleStatus) IsValid() bool {
	return s == OracleStatusActive || s == OracleStatusInactive
}

// CanTransitionTo reports whether a status change is allowed. Only
// active <-> inactive is.
func (s OracleStatus) CanTransitionTo(target OracleStatus) bool {
	return s.IsValid() && target.IsValid() && s != target
}

// Oracle is a trusted verifier identity with a positive voting weight.
//
// Invariants:
//   - ID is a compressed secp256k1 public key (hex); votes are verified against it
//   - Weight > 0 while registered
//   - Name is non-empty and at most 128 characters
//
// Weight changes apply to votes cast after the change. Votes already in a
// tally keep the weight they were cast with.
type Oracle struct {
	ID           id.OracleID  `json:"id"`
	Name         string       `json:"name"`
	Weight       int64        `json:"weight"`
	Status       OracleStatus `json:"-"`
	RegisteredAt time.Time    `json:"registered_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func NewOracle(oracleID id.OracleID, name string, weight int64, now time.Time) (*Oracle, error) {
	name = strings.TrimSpace(name)
	if oracleID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "oracle id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "oracle name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "oracle name must be 128 characters or less")
	}
	if weight <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "oracle weight must be positive")
	}
	return &Oracle{
		ID:           oracleID,
		Name:         name,
		Weight:       weight,
		Status:       OracleStatusActive,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

func (o *Oracle) IsActive() bool {
	return o.Status == OracleStatusActive
}

type oracleJSON struct {
	ID           id.OracleID `json:"id"`
	Name         string      `json:"name"`
	Weight       int64       `json:"weight"`
	Active       bool        `json:"active"`
	RegisteredAt time.Time   `json:"registered_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// MarshalJSON exposes the registry status as the boolean "active" field that
// collaborators read.
func (o Oracle) MarshalJSON() ([]byte, error) {
	return json.Marshal(oracleJSON{
		ID:           o.ID,
		Name:         o.Name,
		Weight:       o.Weight,
		Active:       o.IsActive(),
		RegisteredAt: o.RegisteredAt,
		UpdatedAt:    o.UpdatedAt,
	})
}

func (o *Oracle) UnmarshalJSON(raw []byte) error {
	var v oracleJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	status := OracleStatusInactive
	if v.Active {
		status = OracleStatusActive
	}
	*o = Oracle{
		ID:           v.ID,
		Name:         v.Name,
		Weight:       v.Weight,
		Status:       status,
		RegisteredAt: v.RegisteredAt,
		UpdatedAt:    v.UpdatedAt,
	}
	return nil
}

// CanDeactivate checks the active -> inactive transition.
// Use with ApplyDeactivation in Execute callbacks.
func (o *Oracle) CanDeactivate() error {
	if !o.Status.CanTransitionTo(OracleStatusInactive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "oracle is already inactive")
	}
	return nil
}

func (o *Oracle) ApplyDeactivation(now time.Time) {
	o.Status = OracleStatusInactive
	o.UpdatedAt = now
}

// CanReactivate checks the inactive -> active transition.
func (o *Oracle) CanReactivate() error {
	if !o.Status.CanTransitionTo(OracleStatusActive) {
		return dErrors.New(dErrors.CodeInvariantViolation, "oracle is already active")
	}
	return nil
}

func (o *Oracle) ApplyReactivation(now time.Time) {
	o.Status = OracleStatusActive
	o.UpdatedAt = now
}

// CanSetWeight validates a weight change.
func (o *Oracle) CanSetWeight(weight int64) error {
	if weight <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "oracle weight must be positive")
	}
	return nil
}

func (o *Oracle) ApplyWeight(weight int64, now time.Time) {
	o.Weight = weight
	o.UpdatedAt = now
}
