package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	notApproved := PolicyNotApproved(3, PolicyPending)
	finalized := AlreadyFinalized(4, ClaimSettled)
	wrapped := fmt.Errorf("file claim: %w", notApproved)

	assert.ErrorIs(t, notApproved, ErrPolicyNotApproved)
	assert.ErrorIs(t, notApproved, ErrInvalidTransition)
	assert.ErrorIs(t, wrapped, ErrInvalidTransition)
	assert.ErrorIs(t, finalized, ErrAlreadyFinalized)
	assert.ErrorIs(t, finalized, ErrInvalidTransition)

	assert.NotErrorIs(t, InvalidTransition(RecordClaim, 1, ClaimApproved, "edit"), ErrAlreadyFinalized)
	assert.NotErrorIs(t, NotFound(RecordClaim, 1), ErrForbidden)
	assert.NotErrorIs(t, errors.New("boom"), ErrNotFound)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, uint(3), e.RecordID)
	assert.Equal(t, "Pending", e.Status)
}

func TestNewNumber(t *testing.T) {
	at := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	seen := map[string]bool{}

	for i := 0; i < 500; i++ {
		n := NewNumber(PolicyNumberPrefix, at)
		assert.True(t, strings.HasPrefix(n, "POL-20260115-"), n)
		assert.True(t, ValidNumber(PolicyNumberPrefix, n), n)
		assert.False(t, ValidNumber(ClaimNumberPrefix, n), n)
		seen[n] = true
	}
	// collisions are possible in principle; the store rejects them and callers retry
	assert.Greater(t, len(seen), 490)
}

func TestPolicyDetailsValidate(t *testing.T) {
	valid := PolicyDetails{
		HolderName:    "Jane Doe",
		InsuranceType: "Health",
		Coverage:      10000,
		Premium:       500,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Description:   "Annual health coverage",
	}
	require.NoError(t, valid.Validate())

	sameDay := valid
	sameDay.EndDate = sameDay.StartDate
	assert.NoError(t, sameDay.Validate())

	zeroAmounts := valid
	zeroAmounts.Coverage, zeroAmounts.Premium = 0, 0
	assert.NoError(t, zeroAmounts.Validate())

	bad := valid
	bad.Coverage = -1
	bad.Premium = -1
	bad.EndDate = bad.StartDate.AddDate(0, 0, -1)
	bad.Description = "short"

	err := bad.Validate()
	require.ErrorIs(t, err, ErrValidation)
	e, _ := AsError(err)
	assert.Len(t, e.Fields, 4)
	assert.Contains(t, e.Fields, "coverage_amount")
	assert.Contains(t, e.Fields, "premium")
	assert.Contains(t, e.Fields, "end_date")
	assert.Contains(t, e.Fields, "description")
}

func TestCheckMoney(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		positive bool
		ok       bool
	}{
		{name: "zero allowed", amount: 0, ok: true},
		{name: "zero rejected when positive", amount: 0, positive: true},
		{name: "one cent", amount: 0.01, positive: true, ok: true},
		{name: "sub-cent", amount: 0.001, positive: true},
		{name: "negative", amount: -5},
		{name: "two decimals", amount: 1234.56, ok: true},
		{name: "three decimals", amount: 1234.567},
		{name: "largest storable", amount: 9999999999999.99, ok: true},
		{name: "at limit", amount: 1e13},
		{name: "far beyond limit", amount: 5e20},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Violations{}
			CheckMoney(v, "premium", tc.amount, tc.positive)
			if tc.ok {
				assert.Empty(t, v)
			} else {
				assert.Contains(t, v, "premium")
			}
		})
	}

	huge := PolicyDetails{
		HolderName:    "Jane Doe",
		InsuranceType: "Health",
		Coverage:      2e13,
		Premium:       0.005,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Description:   "Annual health coverage",
	}
	e, _ := AsError(huge.Validate())
	require.NotNil(t, e)
	assert.Contains(t, e.Fields, "coverage_amount")
	assert.Contains(t, e.Fields, "premium")
}

func TestClaimDetailsValidate(t *testing.T) {
	incident := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		details ClaimDetails
		field   string
	}{
		{name: "valid", details: ClaimDetails{Description: strings.Repeat("a", 10), Amount: 0.01, IncidentDate: incident}},
		{name: "max description", details: ClaimDetails{Description: strings.Repeat("a", 1000), Amount: 1, IncidentDate: incident}},
		{name: "description too short", details: ClaimDetails{Description: strings.Repeat("a", 9), Amount: 1, IncidentDate: incident}, field: "description"},
		{name: "description too long", details: ClaimDetails{Description: strings.Repeat("a", 1001), Amount: 1, IncidentDate: incident}, field: "description"},
		{name: "zero amount", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 0, IncidentDate: incident}, field: "claim_amount"},
		{name: "sub-cent amount", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 0.001, IncidentDate: incident}, field: "claim_amount"},
		{name: "three decimals", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 10.125, IncidentDate: incident}, field: "claim_amount"},
		{name: "largest storable amount", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 9999999999999.99, IncidentDate: incident}},
		{name: "amount beyond column", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 1e13, IncidentDate: incident}, field: "claim_amount"},
		{name: "missing incident date", details: ClaimDetails{Description: strings.Repeat("a", 20), Amount: 5}, field: "incident_date"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.details.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrValidation)
			e, _ := AsError(err)
			assert.Contains(t, e.Fields, tc.field)
		})
	}
}

func TestStatusCodesRoundTrip(t *testing.T) {
	for _, s := range []PolicyStatus{PolicyPending, PolicyApproved, PolicyDenied, PolicyCancelled} {
		parsed, ok := ParsePolicyStatus(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	for _, s := range []ClaimStatus{ClaimSubmitted, ClaimUnderReview, ClaimApproved, ClaimDenied, ClaimSettled} {
		parsed, ok := ParseClaimStatus(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, parsed)
	}
	_, ok := ParseClaimStatus("Paid")
	assert.False(t, ok)
}
