package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "impactx/pkg/domain-errors"
)

func TestNewOracle(t *testing.T) {
	now := time.Now()

	o, err := NewOracle("02ab", " field team ", 3, now)
	require.NoError(t, err)
	assert.Equal(t, "field team", o.Name)
	assert.True(t, o.IsActive())

	_, err = NewOracle("", "x", 1, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = NewOracle("02ab", "", 1, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = NewOracle("02ab", "x", 0, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestOracleTransitions(t *testing.T) {
	now := time.Now()
	o, err := NewOracle("02ab", "auditor", 2, now)
	require.NoError(t, err)

	require.Error(t, o.CanReactivate())
	require.NoError(t, o.CanDeactivate())
	o.ApplyDeactivation(now.Add(time.Minute))
	assert.False(t, o.IsActive())
	assert.True(t, dErrors.HasCode(o.CanDeactivate(), dErrors.CodeInvariantViolation))

	require.NoError(t, o.CanReactivate())
	o.ApplyReactivation(now.Add(2 * time.Minute))
	assert.True(t, o.IsActive())

	assert.Error(t, o.CanSetWeight(-1))
	require.NoError(t, o.CanSetWeight(7))
	o.ApplyWeight(7, now)
	assert.Equal(t, int64(7), o.Weight)
}

func TestOracleJSONExposesActiveFlag(t *testing.T) {
	o, err := NewOracle("02ab", "field team", 3, time.Now())
	require.NoError(t, err)
	o.ApplyDeactivation(time.Now())

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"active":false`)
	assert.Contains(t, string(raw), `"weight":3`)

	var back Oracle
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, OracleStatusInactive, back.Status)
	assert.False(t, back.IsActive())
}
