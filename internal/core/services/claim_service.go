package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/core/domain"
)

// ClaimService owns the claim lifecycle
type ClaimService struct {
	claims   repositories.ClaimRepository
	policies repositories.PolicyRepository
	now      Clock
}

// NewClaimService creates a new claim service
func NewClaimService(claims repositories.ClaimRepository, policies repositories.PolicyRepository) *ClaimService {
	return &ClaimService{claims: claims, policies: policies, now: time.Now}
}

// WithClock replaces the service clock
func (s *ClaimService) WithClock(now Clock) *ClaimService {
	s.now = now
	return s
}

// ClaimInput carries the filer-editable claim fields
type ClaimInput struct {
	Description  string
	Amount       float64
	IncidentDate time.Time
}

func (in *ClaimInput) details() domain.ClaimDetails {
	return domain.ClaimDetails{
		Description:  strings.TrimSpace(in.Description),
		Amount:       in.Amount,
		IncidentDate: normalizeDate(in.IncidentDate),
	}
}

// ReviewClaimInput is an admin decision on a claim
type ReviewClaimInput struct {
	Approved      bool
	Remarks       string
	SettledAmount *float64
}

func (in *ReviewClaimInput) validate(remarks string) error {
	v := domain.Violations{}
	if utf8.RuneCountInString(remarks) > domain.RemarksMaxLen {
		v.Add("remarks", fmt.Sprintf("must be at most %d characters", domain.RemarksMaxLen))
	}
	if in.SettledAmount != nil {
		switch {
		case !in.Approved:
			v.Add("settled_amount", "only allowed when the claim is approved")
		default:
			domain.CheckMoney(v, "settled_amount", *in.SettledAmount, true)
		}
	}
	return v.Err()
}

// File records a new Submitted claim against one of the actor's Approved policies
func (s *ClaimService) File(ctx context.Context, actor domain.Actor, policyID uint, input *ClaimInput) (*domain.Claim, error) {
	policy, err := s.policies.GetByID(ctx, policyID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domain.NotFound(domain.RecordPolicy, policyID)
	}
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	// foreign policies are reported as absent
	if policy.OwnerID != actor.UserID {
		return nil, domain.NotFound(domain.RecordPolicy, policyID)
	}
	if policy.Status != domain.PolicyApproved {
		return nil, domain.PolicyNotApproved(policyID, policy.Status)
	}

	d := input.details()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	claim := &domain.Claim{
		PolicyID:     policy.ID,
		FilerID:      actor.UserID,
		Description:  d.Description,
		Amount:       d.Amount,
		IncidentDate: d.IncidentDate,
		Status:       domain.ClaimSubmitted,
		SubmittedAt:  now,
	}

	err = insertWithNumber(domain.ClaimNumberPrefix, now, func(number string) error {
		claim.Number = number
		return s.claims.Create(ctx, claim)
	})
	if err != nil {
		return nil, fmt.Errorf("file claim: %w", err)
	}

	log.Printf("📝 Claim filed: %s on policy %s by user %d", claim.Number, policy.Number, actor.UserID)
	return s.load(ctx, claim.ID)
}

// Edit updates the description, amount and incident date of a Submitted claim
func (s *ClaimService) Edit(ctx context.Context, actor domain.Actor, claimID uint, input *ClaimInput) (*domain.Claim, error) {
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor, claim) {
		return nil, domain.Forbidden(domain.RecordClaim, claimID, "edit")
	}
	if claim.Status != domain.ClaimSubmitted {
		return nil, domain.InvalidTransition(domain.RecordClaim, claimID, claim.Status, "edit")
	}

	d := input.details()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	claim.Description = d.Description
	claim.Amount = d.Amount
	claim.IncidentDate = d.IncidentDate

	if err := s.claims.UpdateDetailsIfStatus(ctx, claim, domain.ClaimSubmitted); err != nil {
		return nil, s.conflict(ctx, claimID, "edit", err)
	}

	log.Printf("✏️ Claim %s edited by user %d", claim.Number, actor.UserID)
	return claim, nil
}

// Withdraw deletes a claim: the owner while Submitted, an admin at any status
func (s *ClaimService) Withdraw(ctx context.Context, actor domain.Actor, claimID uint) error {
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return err
	}
	if !domain.CanView(actor, claim) {
		return domain.Forbidden(domain.RecordClaim, claimID, "withdraw")
	}
	if !domain.CanMutate(actor, claim, domain.ClaimSubmitted) {
		return domain.InvalidTransition(domain.RecordClaim, claimID, claim.Status, "withdraw")
	}

	expected := claim.Status
	if err := s.claims.DeleteIfStatus(ctx, claimID, &expected); err != nil {
		return s.conflict(ctx, claimID, "withdraw", err)
	}

	log.Printf("🗑️ Claim %s withdrawn by user %d", claim.Number, actor.UserID)
	return nil
}

// StartReview moves a Submitted claim to UnderReview; admin only
func (s *ClaimService) StartReview(ctx context.Context, actor domain.Actor, claimID uint) (*domain.Claim, error) {
	if !domain.CanReview(actor) {
		return nil, domain.Forbidden(domain.RecordClaim, claimID, "start review")
	}

	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status.IsTerminal() {
		return nil, domain.AlreadyFinalized(claimID, claim.Status)
	}
	if claim.Status != domain.ClaimSubmitted {
		return nil, domain.InvalidTransition(domain.RecordClaim, claimID, claim.Status, "start review")
	}

	claim.Status = domain.ClaimUnderReview
	if err := s.claims.TransitionIfStatus(ctx, claim, domain.ClaimSubmitted); err != nil {
		return nil, s.conflict(ctx, claimID, "start review", err)
	}

	log.Printf("🔍 Claim %s under review by admin %d", claim.Number, actor.UserID)
	return s.load(ctx, claimID)
}

// Review records the admin decision on a non-terminal claim. Approval with a
// settled amount settles the claim.
func (s *ClaimService) Review(ctx context.Context, actor domain.Actor, claimID uint, input *ReviewClaimInput) (*domain.Claim, error) {
	if !domain.CanReview(actor) {
		return nil, domain.Forbidden(domain.RecordClaim, claimID, "review")
	}
	remarks := strings.TrimSpace(input.Remarks)
	if err := input.validate(remarks); err != nil {
		return nil, err
	}

	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status.IsTerminal() {
		return nil, domain.AlreadyFinalized(claimID, claim.Status)
	}

	expected := claim.Status
	switch {
	case !input.Approved:
		claim.Status = domain.ClaimDenied
		claim.SettledAmount = nil
	case input.SettledAmount != nil:
		amount := *input.SettledAmount
		claim.Status = domain.ClaimSettled
		claim.SettledAmount = &amount
	default:
		claim.Status = domain.ClaimApproved
		claim.SettledAmount = nil
	}
	claim.Review = &domain.Review{ReviewerID: actor.UserID, ReviewedAt: s.now(), Remarks: remarks}

	if err := s.claims.TransitionIfStatus(ctx, claim, expected); err != nil {
		return nil, s.conflict(ctx, claimID, "review", err)
	}

	log.Printf("✅ Claim %s reviewed: %s by admin %d", claim.Number, claim.Status, actor.UserID)
	// filer edits committed before the transition stay in place
	return s.load(ctx, claimID)
}

// Get returns a claim the actor may view
func (s *ClaimService) Get(ctx context.Context, actor domain.Actor, claimID uint) (*domain.Claim, error) {
	claim, err := s.load(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !domain.CanView(actor, claim) {
		return nil, domain.Forbidden(domain.RecordClaim, claimID, "view")
	}
	return claim, nil
}

// ClaimFilter narrows a claim listing
type ClaimFilter struct {
	Status   *domain.ClaimStatus
	PolicyID *uint
}

// ListFor returns every claim for an admin and only filed claims otherwise,
// most recent submission first
func (s *ClaimService) ListFor(ctx context.Context, actor domain.Actor, filter ClaimFilter) ([]*domain.Claim, error) {
	q := repositories.ClaimQuery{Status: filter.Status, PolicyID: filter.PolicyID}
	if !actor.IsAdmin() {
		filer := actor.UserID
		q.FilerID = &filer
	}

	claims, err := s.claims.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	if claims == nil {
		claims = []*domain.Claim{}
	}
	return claims, nil
}

func (s *ClaimService) load(ctx context.Context, claimID uint) (*domain.Claim, error) {
	claim, err := s.claims.GetByID(ctx, claimID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, domain.NotFound(domain.RecordClaim, claimID)
	}
	if err != nil {
		return nil, fmt.Errorf("load claim: %w", err)
	}
	return claim, nil
}

// conflict turns a failed compare-and-set into the error for the current state
func (s *ClaimService) conflict(ctx context.Context, claimID uint, action string, err error) error {
	if !errors.Is(err, repositories.ErrStale) {
		return fmt.Errorf("%s claim: %w", action, err)
	}
	current, loadErr := s.load(ctx, claimID)
	if loadErr != nil {
		return loadErr
	}
	if action == "review" && current.Status.IsTerminal() {
		return domain.AlreadyFinalized(claimID, current.Status)
	}
	return domain.InvalidTransition(domain.RecordClaim, claimID, current.Status, action)
}
