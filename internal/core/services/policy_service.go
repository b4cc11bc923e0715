package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
)

// PolicyDecision is an admin's verdict on a pending application
type PolicyDecision int

const (
	DecisionApprove PolicyDecision = iota + 1
	DecisionDeny
)

// ParsePolicyDecision accepts approve/approved and deny/denied, case-insensitively
func ParsePolicyDecision(s string) (PolicyDecision, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return DecisionApprove, true
	case "deny", "denied":
		return DecisionDeny, true
	}
	return 0, false
}

func (d PolicyDecision) status() domain.PolicyStatus {
	if d == DecisionApprove {
		return domain.PolicyApproved
	}
	return domain.PolicyDenied
}

// PolicyService owns the policy application lifecycle
type PolicyService struct {
	policies repositories.PolicyRepository
	now      Clock
}

// NewPolicyService creates a new policy service
func NewPolicyService(policies repositories.PolicyRepository) *PolicyService {
	return &PolicyService{policies: policies, now: time.Now}
}

// WithClock replaces the service clock
func (s *PolicyService) WithClock(now Clock) *PolicyService {
	s.now = now
	return s
}

// ApplyPolicyInput represents a policy application
type ApplyPolicyInput struct {
	HolderName    string
	InsuranceType string
	Coverage      float64
	Premium       float64
	StartDate     time.Time
	EndDate       time.Time
	Description   string
}

func (in *ApplyPolicyInput) details() domain.PolicyDetails {
	return domain.PolicyDetails{
		HolderName:    strings.TrimSpace(in.HolderName),
		InsuranceType: strings.TrimSpace(in.InsuranceType),
		Coverage:      in.Coverage,
		Premium:       in.Premium,
		StartDate:     normalizeDate(in.StartDate),
		EndDate:       normalizeDate(in.EndDate),
		Description:   strings.TrimSpace(in.Description),
	}
}

// Apply validates and records a new Pending application owned by the actor
func (s *PolicyService) Apply(ctx context.Context, actor domain.Actor, input *ApplyPolicyInput) (*domain.Policy, error) {
	d := input.details()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	policy := &domain.Policy{
		OwnerID:       actor.UserID,
		HolderName:    d.HolderName,
		InsuranceType: d.InsuranceType,
		Coverage:      d.Coverage,
		Premium:       d.Premium,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		Description:   d.Description,
		Status:        domain.PolicyPending,
		AppliedAt:     now,
	}

	err := insertWithNumber(domain.PolicyNumberPrefix, now, func(number string) error {
		policy.Number = number
		return s.policies.Create(ctx, policy)
	})
	if err != nil {
		return nil, fmt.Errorf("apply policy: %w", err)
	}

	log.Printf("📄 Policy applied: %s by user %d", policy.Number, actor.UserID)
	return policy, nil
}

// Review approves or denies a Pending application
func (s *PolicyService) Review(ctx context.Context, actor domain.Actor, policyID uint, decision PolicyDecision, remarks string) (*domain.Policy, error) {
	if !domain.CanReview(actor) {
		return nil, domain.Forbidden(domain.RecordPolicy, policyID, "review")
	}
	if decision != DecisionApprove && decision != DecisionDeny {
		v := domain.Violations{}
		v.Add("decision", "must be Approve or Deny")
		return nil, v.Err()
	}
	remarks = strings.TrimSpace(remarks)
	if err := domain.ValidateRemarks(remarks); err != nil {
		return nil, err
	}

	policy, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status != domain.PolicyPending {
		return nil, domain.InvalidTransition(domain.RecordPolicy, policyID, policy.Status, "review")
	}

	expected := policy.Status
	policy.Status = decision.status()
	policy.Review = &domain.Review{ReviewerID: actor.UserID, ReviewedAt: s.now(), Remarks: remarks}

	if err := s.policies.UpdateIfStatus(ctx, policy, expected); err != nil {
		return nil, s.conflict(ctx, policyID, "review", err)
	}

	log.Printf("✅ Policy %s reviewed: %s by admin %d", policy.Number, policy.Status, actor.UserID)
	return policy, nil
}

// Cancel withdraws an application: the owner while Pending, an admin while
// Pending or Approved
func (s *PolicyService) Cancel(ctx context.Context, actor domain.Actor, policyID uint, remarks string) (*domain.Policy, error) {
	remarks = strings.TrimSpace(remarks)
	if err := domain.ValidateRemarks(remarks); err != nil {
		return nil, err
	}

	policy, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor, policy) {
		return nil, domain.Forbidden(domain.RecordPolicy, policyID, "cancel")
	}

	allowed := domain.CanMutate(actor, policy, domain.PolicyPending)
	if actor.IsAdmin() {
		allowed = policy.Status == domain.PolicyPending || policy.Status == domain.PolicyApproved
	}
	if !allowed {
		return nil, domain.InvalidTransition(domain.RecordPolicy, policyID, policy.Status, "cancel")
	}

	expected := policy.Status
	policy.Status = domain.PolicyCancelled
	policy.Review = &domain.Review{ReviewerID: actor.UserID, ReviewedAt: s.now(), Remarks: remarks}

	if err := s.policies.UpdateIfStatus(ctx, policy, expected); err != nil {
		return nil, s.conflict(ctx, policyID, "cancel", err)
	}

	log.Printf("🚫 Policy %s cancelled by user %d", policy.Number, actor.UserID)
	return policy, nil
}

// Get returns a policy the actor may view
func (s *PolicyService) Get(ctx context.Context, actor domain.Actor, policyID uint) (*domain.Policy, error) {
	policy, err := s.load(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor, policy) {
		return nil, domain.Forbidden(domain.RecordPolicy, policyID, "view")
	}
	return policy, nil
}

// ListFor returns every policy for an admin and only owned policies otherwise,
// most recent application first
func (s *PolicyService) ListFor(ctx context.Context, actor domain.Actor, status *domain.PolicyStatus) ([]*domain.Policy, error) {
	q := repositories.PolicyQuery{Status: status}
	if !actor.IsAdmin() {
		owner := actor.UserID
		q.OwnerID = &owner
	}

	policies, err := s.policies.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	if policies == nil {
		policies = []*domain.Policy{}
	}
	return policies, nil
}

// Delete removes a policy and its claims; admin only
func (s *PolicyService) Delete(ctx context.Context, actor domain.Actor, policyID uint) error {
	if !actor.IsAdmin() {
		return domain.Forbidden(domain.RecordPolicy, policyID, "delete")
	}
	if err := s.policies.Delete(ctx, policyID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return domain.NotFound(domain.RecordPolicy, policyID)
		}
		return fmt.Errorf("delete policy: %w", err)
	}

	log.Printf("🗑️ Policy %d deleted by admin %d", policyID, actor.UserID)
	return nil
}

func (s *PolicyService) load(ctx context.Context, policyID uint) (*domain.Policy, error) {
	policy, err := s.policies.GetByID(ctx, policyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domain.NotFound(domain.RecordPolicy, policyID)
	}
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	return policy, nil
}

// conflict turns a failed compare-and-set into the error for the current state
func (s *PolicyService) conflict(ctx context.Context, policyID uint, action string, err error) error {
	if !errors.Is(err, repositories.ErrStale) {
		return fmt.Errorf("%s policy: %w", action, err)
	}
	current, loadErr := s.load(ctx, policyID)
	if loadErr != nil {
		return loadErr
	}
	return domain.InvalidTransition(domain.RecordPolicy, policyID, current.Status, action)
}
