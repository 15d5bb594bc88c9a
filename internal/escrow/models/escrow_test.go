package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "impactx/pkg/domain"
	dErrors "impactx/pkg/domain-errors"
)

func TestEscrowDisburseOnce(t *testing.T) {
	e := newEscrow(id.NewCampaignID())
	_, err := e.deposit("donor-1", 70, time.Now())
	require.NoError(t, err)

	total, err := e.disburse(DisbursementRelease, releasePlan("ngo", e.Balance))
	require.NoError(t, err)
	assert.Equal(t, int64(70), total)
	assert.Equal(t, EscrowStatusReleased, e.Status)
	assert.Equal(t, int64(0), e.Balance)

	_, err = e.disburse(DisbursementRefund, refundPlan(e.Donations, e.Balance))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyDisbursed))
	assert.Equal(t, EscrowStatusReleased, e.Status)

	_, err = e.deposit("donor-2", 5, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeCampaignNotActive))
}

func TestEscrowDisburseRejectsMismatchedTransfers(t *testing.T) {
	tests := []struct {
		name      string
		transfers []Transfer
	}{
		{"exceeds balance", []Transfer{{Destination: "ngo", Amount: 101}}},
		{"short of balance", []Transfer{{Destination: "ngo", Amount: 99}}},
		{"negative line", []Transfer{{Destination: "ngo", Amount: 110}, {Destination: "x", Amount: -10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEscrow(id.NewCampaignID())
			_, err := e.deposit("donor-1", 100, time.Now())
			require.NoError(t, err)

			_, err = e.disburse(DisbursementRelease, tt.transfers)
			require.Error(t, err)
			assert.True(t, dErrors.IsFatal(err))
			assert.Equal(t, EscrowStatusActive, e.Status)
			assert.Equal(t, int64(100), e.Balance)
		})
	}
}

func TestEscrowDepositValidation(t *testing.T) {
	e := newEscrow(id.NewCampaignID())

	_, err := e.deposit("", 10, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = e.deposit("donor-1", -1, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = e.deposit("donor-1", math.MaxInt64-10, time.Now())
	require.NoError(t, err)
	_, err = e.deposit("donor-1", 10, time.Now())
	require.NoError(t, err)
	_, err = e.deposit("donor-1", 1, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), "overflow is rejected")
	assert.Len(t, e.Donations, 2)
}

func TestRefundPlan(t *testing.T) {
	donation := func(donor string, amount int64) Donation {
		return Donation{DonorID: id.PartyID(donor), Amount: amount}
	}

	t.Run("equal donors absorb remainder on the last one", func(t *testing.T) {
		plan := refundPlan([]Donation{donation("a", 10), donation("b", 10), donation("c", 10)}, 100)
		assert.Equal(t, []Transfer{
			{Destination: "a", Amount: 33},
			{Destination: "b", Amount: 33},
			{Destination: "c", Amount: 34},
		}, plan)
	})

	t.Run("repeat donors are aggregated in first-appearance order", func(t *testing.T) {
		plan := refundPlan([]Donation{donation("b", 5), donation("a", 10), donation("b", 5)}, 20)
		assert.Equal(t, []Transfer{
			{Destination: "b", Amount: 10},
			{Destination: "a", Amount: 10},
		}, plan)
	})

	t.Run("plan always sums to balance", func(t *testing.T) {
		donations := []Donation{donation("a", 7), donation("b", 13), donation("c", 1), donation("d", 29)}
		for _, balance := range []int64{1, 3, 49, 50, 9_999_999_999} {
			var sum int64
			for _, tr := range refundPlan(donations, balance) {
				assert.GreaterOrEqual(t, tr.Amount, int64(0))
				sum += tr.Amount
			}
			assert.Equal(t, balance, sum)
		}
	})

	t.Run("zero balance yields an empty plan", func(t *testing.T) {
		assert.Empty(t, refundPlan([]Donation{donation("a", 1)}, 0))
		assert.Empty(t, releasePlan("ngo", 0))
	})
}
