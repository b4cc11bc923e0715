package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/testdb"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin = domain.Actor{UserID: 1, Roles: domain.NewRoleSet(domain.RoleAdmin)}
	userA = domain.Actor{UserID: 10, Roles: domain.NewRoleSet(domain.RoleUser)}
	userB = domain.Actor{UserID: 11, Roles: domain.NewRoleSet(domain.RoleUser)}
)

// fixedClock returns a clock pinned to t
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// stepClock returns a clock that advances by step on every call
func stepClock(start time.Time, step time.Duration) Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

type fixture struct {
	db       *gorm.DB
	policies *PolicyService
	claims   *ClaimService
	policyDB repositories.PolicyRepository
	claimDB  repositories.ClaimRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	policyRepo := repositories.NewPolicyRepository(db)
	claimRepo := repositories.NewClaimRepository(db)
	clock := stepClock(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC), time.Minute)
	return &fixture{
		db:       db,
		policies: NewPolicyService(policyRepo).WithClock(clock),
		claims:   NewClaimService(claimRepo, policyRepo).WithClock(clock),
		policyDB: policyRepo,
		claimDB:  claimRepo,
	}
}

func validPolicyInput() *ApplyPolicyInput {
	return &ApplyPolicyInput{
		HolderName:    "Alice Example",
		InsuranceType: "Health",
		Coverage:      10000,
		Premium:       500,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Description:   "Family health coverage",
	}
}

func validClaimInput() *ClaimInput {
	return &ClaimInput{
		Description:  "Hospital stay in March",
		Amount:       2000,
		IncidentDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}
}

// policyIn applies a policy for owner and drives it to status
func (f *fixture) policyIn(t *testing.T, owner domain.Actor, status domain.PolicyStatus) *domain.Policy {
	t.Helper()
	ctx := context.Background()

	p, err := f.policies.Apply(ctx, owner, validPolicyInput())
	require.NoError(t, err)

	switch status {
	case domain.PolicyApproved:
		p, err = f.policies.Review(ctx, admin, p.ID, DecisionApprove, "")
	case domain.PolicyDenied:
		p, err = f.policies.Review(ctx, admin, p.ID, DecisionDeny, "incomplete")
	case domain.PolicyCancelled:
		p, err = f.policies.Cancel(ctx, owner, p.ID, "")
	}
	require.NoError(t, err)
	require.Equal(t, status, p.Status)
	return p
}

// claimIn files a claim for owner on an approved policy and drives it to status
func (f *fixture) claimIn(t *testing.T, owner domain.Actor, status domain.ClaimStatus) *domain.Claim {
	t.Helper()
	ctx := context.Background()

	p := f.policyIn(t, owner, domain.PolicyApproved)
	c, err := f.claims.File(ctx, owner, p.ID, validClaimInput())
	require.NoError(t, err)

	settled := 1500.0
	switch status {
	case domain.ClaimUnderReview:
		c, err = f.claims.StartReview(ctx, admin, c.ID)
	case domain.ClaimApproved:
		c, err = f.claims.Review(ctx, admin, c.ID, &ReviewClaimInput{Approved: true})
	case domain.ClaimDenied:
		c, err = f.claims.Review(ctx, admin, c.ID, &ReviewClaimInput{Approved: false, Remarks: "not covered"})
	case domain.ClaimSettled:
		c, err = f.claims.Review(ctx, admin, c.ID, &ReviewClaimInput{Approved: true, SettledAmount: &settled})
	}
	require.NoError(t, err)
	require.Equal(t, status, c.Status)
	return c
}
