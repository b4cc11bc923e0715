package services

import (
	"context"
	"fmt"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
)

// recentLimit is the number of recent records shown on the dashboard
const recentLimit = 5

// DashboardService handles dashboard operations
type DashboardService struct {
	policies repositories.PolicyRepository
	claims   repositories.ClaimRepository
	users    repositories.UserRepository
	roles    repositories.RoleRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	policies repositories.PolicyRepository,
	claims repositories.ClaimRepository,
	users repositories.UserRepository,
	roles repositories.RoleRepository,
) *DashboardService {
	return &DashboardService{policies: policies, claims: claims, users: users, roles: roles}
}

// DashboardData represents dashboard statistics. Non-admin figures cover
// only the actor's own records.
type DashboardData struct {
	// Policy Statistics
	TotalPolicies  int64            `json:"total_policies"`
	PolicyByStatus map[string]int64 `json:"policies_by_status"`

	// Claim Statistics
	TotalClaims   int64            `json:"total_claims"`
	ClaimByStatus map[string]int64 `json:"claims_by_status"`
	TotalClaimed  float64          `json:"total_claimed_amount"`
	TotalSettled  float64          `json:"total_settled_amount"`

	// Recent Activity
	RecentPolicies []*domain.Policy `json:"-"`
	RecentClaims   []*domain.Claim  `json:"-"`

	// Admin only
	TotalUsers *int64 `json:"total_users,omitempty"`
	TotalRoles *int64 `json:"total_roles,omitempty"`
}

// GetDashboard returns the statistics visible to the actor
func (s *DashboardService) GetDashboard(ctx context.Context, actor domain.Actor) (*DashboardData, error) {
	var owner *uint
	if !actor.IsAdmin() {
		id := actor.UserID
		owner = &id
	}

	data := &DashboardData{
		PolicyByStatus: make(map[string]int64),
		ClaimByStatus:  make(map[string]int64),
	}

	// Policy counts by status
	policyCounts, err := s.policies.CountByStatus(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("count policies: %w", err)
	}
	for _, st := range []domain.PolicyStatus{domain.PolicyPending, domain.PolicyApproved, domain.PolicyDenied, domain.PolicyCancelled} {
		data.PolicyByStatus[st.String()] = policyCounts[st]
		data.TotalPolicies += policyCounts[st]
	}

	// Claim counts by status
	claimCounts, err := s.claims.CountByStatus(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("count claims: %w", err)
	}
	for _, st := range []domain.ClaimStatus{domain.ClaimSubmitted, domain.ClaimUnderReview, domain.ClaimApproved, domain.ClaimDenied, domain.ClaimSettled} {
		data.ClaimByStatus[st.String()] = claimCounts[st]
		data.TotalClaims += claimCounts[st]
	}

	// Amounts
	totals, err := s.claims.Totals(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("sum claims: %w", err)
	}
	data.TotalClaimed = totals.Claimed
	data.TotalSettled = totals.Settled

	// Recent activity
	policies, err := s.policies.List(ctx, repositories.PolicyQuery{OwnerID: owner})
	if err != nil {
		return nil, fmt.Errorf("recent policies: %w", err)
	}
	claims, err := s.claims.List(ctx, repositories.ClaimQuery{FilerID: owner})
	if err != nil {
		return nil, fmt.Errorf("recent claims: %w", err)
	}
	data.RecentPolicies = head(policies, recentLimit)
	data.RecentClaims = head(claims, recentLimit)

	if actor.IsAdmin() {
		users, err := s.users.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count users: %w", err)
		}
		roles, err := s.roles.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count roles: %w", err)
		}
		data.TotalUsers = &users
		data.TotalRoles = &roles
	}

	return data, nil
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
