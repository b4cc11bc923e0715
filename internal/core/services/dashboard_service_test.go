package services

import (
	"context"
	"testing"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dash := NewDashboardService(f.policyDB, f.claimDB,
		repositories.NewUserRepository(f.db), repositories.NewRoleRepository(f.db))

	f.claimIn(t, userA, domain.ClaimSettled) // settled 1500 of 2000
	f.claimIn(t, userB, domain.ClaimSubmitted)
	f.policyIn(t, userA, domain.PolicyPending)

	mine, err := dash.GetDashboard(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalPolicies)
	assert.Equal(t, int64(1), mine.PolicyByStatus["Pending"])
	assert.Equal(t, int64(1), mine.PolicyByStatus["Approved"])
	assert.Equal(t, int64(0), mine.PolicyByStatus["Denied"])
	assert.Equal(t, int64(1), mine.TotalClaims)
	assert.Equal(t, int64(1), mine.ClaimByStatus["Settled"])
	assert.InDelta(t, 2000, mine.TotalClaimed, 0.001)
	assert.InDelta(t, 1500, mine.TotalSettled, 0.001)
	assert.Nil(t, mine.TotalUsers)
	for _, p := range mine.RecentPolicies {
		assert.Equal(t, userA.UserID, p.OwnerID)
	}

	all, err := dash.GetDashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalPolicies)
	assert.Equal(t, int64(2), all.TotalClaims)
	assert.InDelta(t, 4000, all.TotalClaimed, 0.001)
	require.NotNil(t, all.TotalUsers)
	require.NotNil(t, all.TotalRoles)
	assert.Equal(t, int64(0), *all.TotalRoles)
}
