package handlers

import (
	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"
	"insurehub/internal/core/services"
	"insurehub/internal/pkg/pagination"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PolicyHandler handles policy endpoints
type PolicyHandler struct {
	policyService *services.PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policyService *services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

// ApplyPolicyRequest represents a policy application body
type ApplyPolicyRequest struct {
	PolicyHolderName       string  `json:"policy_holder_name"`
	InsuranceType          string  `json:"insurance_type"`
	CoverageAmount         float64 `json:"coverage_amount"`
	Premium                float64 `json:"premium"`
	StartDate              string  `json:"start_date" example:"2026-01-01"`
	EndDate                string  `json:"end_date" example:"2026-12-31"`
	ApplicationDescription string  `json:"application_description"`
}

func (r *ApplyPolicyRequest) toInput() (*services.ApplyPolicyInput, error) {
	v := domain.Violations{}
	input := &services.ApplyPolicyInput{
		HolderName:    r.PolicyHolderName,
		InsuranceType: r.InsuranceType,
		Coverage:      r.CoverageAmount,
		Premium:       r.Premium,
		StartDate:     parseDate(v, "start_date", r.StartDate),
		EndDate:       parseDate(v, "end_date", r.EndDate),
		Description:   r.ApplicationDescription,
	}
	return input, v.Err()
}

// ReviewPolicyRequest represents an admin decision body
type ReviewPolicyRequest struct {
	Decision string `json:"decision" example:"approve"`
	Remarks  string `json:"remarks"`
}

// CancelPolicyRequest represents a cancellation body
type CancelPolicyRequest struct {
	Remarks string `json:"remarks"`
}

// Apply handles a policy application
// @Summary Apply for a policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ApplyPolicyRequest true "Application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /policies [post]
func (h *PolicyHandler) Apply(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	var req ApplyPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return domainError(c, err, "Failed to apply for policy")
	}

	policy, err := h.policyService.Apply(c.Context(), actor, input)
	if err != nil {
		return domainError(c, err, "Failed to apply for policy")
	}

	return response.Created(c, "Policy application submitted", models.NewPolicyResponse(policy))
}

// List returns the caller's policies, or every policy for admins
// @Summary List policies
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (Pending, Approved, Denied, Cancelled)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /policies [get]
func (h *PolicyHandler) List(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	var status *domain.PolicyStatus
	if raw := c.Query("status"); raw != "" {
		s, ok := domain.ParsePolicyStatus(raw)
		if !ok {
			return response.BadRequest(c, "Unknown policy status: "+raw)
		}
		status = &s
	}

	policies, err := h.policyService.ListFor(c.Context(), actor, status)
	if err != nil {
		return domainError(c, err, "Failed to list policies")
	}

	params := pagination.GetParams(c)
	page := pagination.Page(policies, params)
	items := make([]*models.PolicyResponse, len(page))
	for i, p := range page {
		items[i] = models.NewPolicyResponse(p)
	}

	return response.Success(c, "Policies retrieved successfully",
		pagination.NewResponse(items, params, int64(len(policies))))
}

// Get returns one policy
// @Summary Get policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [get]
func (h *PolicyHandler) Get(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid policy ID")
	}

	policy, err := h.policyService.Get(c.Context(), actor, id)
	if err != nil {
		return domainError(c, err, "Failed to get policy")
	}

	return response.Success(c, "Policy retrieved successfully", models.NewPolicyResponse(policy))
}

// Review records an admin decision on a pending policy
// @Summary Review policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body ReviewPolicyRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /policies/{id}/review [put]
func (h *PolicyHandler) Review(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid policy ID")
	}

	var req ReviewPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	// Unparseable decisions fall through as zero so the service still checks the role first
	decision, _ := services.ParsePolicyDecision(req.Decision)

	policy, err := h.policyService.Review(c.Context(), actor, id, decision, req.Remarks)
	if err != nil {
		return domainError(c, err, "Failed to review policy")
	}

	return response.Success(c, "Policy "+policy.Status.String(), models.NewPolicyResponse(policy))
}

// Cancel cancels a policy
// @Summary Cancel policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body CancelPolicyRequest false "Remarks"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /policies/{id}/cancel [put]
func (h *PolicyHandler) Cancel(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid policy ID")
	}

	var req CancelPolicyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	policy, err := h.policyService.Cancel(c.Context(), actor, id, req.Remarks)
	if err != nil {
		return domainError(c, err, "Failed to cancel policy")
	}

	return response.Success(c, "Policy cancelled", models.NewPolicyResponse(policy))
}

// Delete removes a policy and its claims (admin only)
// @Summary Delete policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /policies/{id} [delete]
func (h *PolicyHandler) Delete(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid policy ID")
	}

	if err := h.policyService.Delete(c.Context(), actor, id); err != nil {
		return domainError(c, err, "Failed to delete policy")
	}

	return response.Success(c, "Policy deleted successfully", nil)
}
