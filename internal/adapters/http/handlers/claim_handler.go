package handlers

import (
	"strconv"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"
	"insurehub/internal/core/services"
	"insurehub/internal/pkg/pagination"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ClaimHandler handles claim endpoints
type ClaimHandler struct {
	claimService *services.ClaimService
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claimService *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

// ClaimRequest carries the filer-editable claim fields
type ClaimRequest struct {
	Description  string  `json:"description"`
	ClaimAmount  float64 `json:"claim_amount"`
	IncidentDate string  `json:"incident_date" example:"2026-03-01"`
}

func (r *ClaimRequest) toInput() (*services.ClaimInput, error) {
	v := domain.Violations{}
	input := &services.ClaimInput{
		Description:  r.Description,
		Amount:       r.ClaimAmount,
		IncidentDate: parseDate(v, "incident_date", r.IncidentDate),
	}
	return input, v.Err()
}

// FileClaimRequest represents a new claim against a policy
type FileClaimRequest struct {
	InsurancePolicyID uint `json:"insurance_policy_id"`
	ClaimRequest
}

// ReviewClaimRequest represents an admin decision on a claim
type ReviewClaimRequest struct {
	Approved      *bool    `json:"approved"`
	Remarks       string   `json:"remarks"`
	SettledAmount *float64 `json:"settled_amount"`
}

// File handles a new claim
// @Summary File a claim
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body FileClaimRequest true "Claim"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims [post]
func (h *ClaimHandler) File(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	var req FileClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.InsurancePolicyID == 0 {
		return response.ValidationFailed(c, "Validation failed", map[string]string{
			"insurance_policy_id": "is required",
		})
	}

	input, err := req.toInput()
	if err != nil {
		return domainError(c, err, "Failed to file claim")
	}

	claim, err := h.claimService.File(c.Context(), actor, req.InsurancePolicyID, input)
	if err != nil {
		return domainError(c, err, "Failed to file claim")
	}

	return response.Created(c, "Claim submitted", models.NewClaimResponse(claim))
}

// List returns the caller's claims, or every claim for admins
// @Summary List claims
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (Submitted, UnderReview, Approved, Denied, Settled)"
// @Param policy_id query int false "Filter by policy"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /claims [get]
func (h *ClaimHandler) List(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	var filter services.ClaimFilter
	if raw := c.Query("status"); raw != "" {
		s, ok := domain.ParseClaimStatus(raw)
		if !ok {
			return response.BadRequest(c, "Unknown claim status: "+raw)
		}
		filter.Status = &s
	}
	if raw := c.Query("policy_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return response.BadRequest(c, "Invalid policy_id: "+raw)
		}
		policyID := uint(id)
		filter.PolicyID = &policyID
	}

	claims, err := h.claimService.ListFor(c.Context(), actor, filter)
	if err != nil {
		return domainError(c, err, "Failed to list claims")
	}

	params := pagination.GetParams(c)
	page := pagination.Page(claims, params)
	items := make([]*models.ClaimResponse, len(page))
	for i, cl := range page {
		items[i] = models.NewClaimResponse(cl)
	}

	return response.Success(c, "Claims retrieved successfully",
		pagination.NewResponse(items, params, int64(len(claims))))
}

// Get returns one claim
// @Summary Get claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [get]
func (h *ClaimHandler) Get(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid claim ID")
	}

	claim, err := h.claimService.Get(c.Context(), actor, id)
	if err != nil {
		return domainError(c, err, "Failed to get claim")
	}

	return response.Success(c, "Claim retrieved successfully", models.NewClaimResponse(claim))
}

// Edit changes a submitted claim
// @Summary Edit claim
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body ClaimRequest true "Claim fields"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id} [put]
func (h *ClaimHandler) Edit(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid claim ID")
	}

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input, err := req.toInput()
	if err != nil {
		return domainError(c, err, "Failed to update claim")
	}

	claim, err := h.claimService.Edit(c.Context(), actor, id, input)
	if err != nil {
		return domainError(c, err, "Failed to update claim")
	}

	return response.Success(c, "Claim updated successfully", models.NewClaimResponse(claim))
}

// Withdraw removes a claim
// @Summary Withdraw claim
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /claims/{id} [delete]
func (h *ClaimHandler) Withdraw(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid claim ID")
	}

	if err := h.claimService.Withdraw(c.Context(), actor, id); err != nil {
		return domainError(c, err, "Failed to withdraw claim")
	}

	return response.Success(c, "Claim withdrawn", nil)
}

// StartReview moves a submitted claim under review
// @Summary Start claim review
// @Tags Claims
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id}/start-review [put]
func (h *ClaimHandler) StartReview(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid claim ID")
	}

	claim, err := h.claimService.StartReview(c.Context(), actor, id)
	if err != nil {
		return domainError(c, err, "Failed to start review")
	}

	return response.Success(c, "Claim under review", models.NewClaimResponse(claim))
}

// Review records an admin decision on a claim
// @Summary Review claim
// @Tags Claims
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Claim ID"
// @Param body body ReviewClaimRequest true "Decision"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /claims/{id}/review [post]
func (h *ClaimHandler) Review(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid claim ID")
	}

	var req ReviewClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Approved == nil {
		return response.ValidationFailed(c, "Validation failed", map[string]string{
			"approved": "is required",
		})
	}

	claim, err := h.claimService.Review(c.Context(), actor, id, &services.ReviewClaimInput{
		Approved:      *req.Approved,
		Remarks:       req.Remarks,
		SettledAmount: req.SettledAmount,
	})
	if err != nil {
		return domainError(c, err, "Failed to review claim")
	}

	return response.Success(c, "Claim "+claim.Status.String(), models.NewClaimResponse(claim))
}
