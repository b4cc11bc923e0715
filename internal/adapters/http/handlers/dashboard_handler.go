package handlers

import (
	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/services"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// DashboardResponse is the dashboard payload with recent records rendered
type DashboardResponse struct {
	*services.DashboardData
	RecentPolicies []*models.PolicyResponse `json:"recent_policies"`
	RecentClaims   []*models.ClaimResponse  `json:"recent_claims"`
}

// GetDashboard returns statistics scoped to the caller
// @Summary My Dashboard
// @Description Policy and claim statistics; admins see every record plus user and role counts
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	data, err := h.dashboardService.GetDashboard(c.Context(), actor)
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	resp := &DashboardResponse{
		DashboardData:  data,
		RecentPolicies: make([]*models.PolicyResponse, len(data.RecentPolicies)),
		RecentClaims:   make([]*models.ClaimResponse, len(data.RecentClaims)),
	}
	for i, p := range data.RecentPolicies {
		resp.RecentPolicies[i] = models.NewPolicyResponse(p)
	}
	for i, cl := range data.RecentClaims {
		resp.RecentClaims[i] = models.NewClaimResponse(cl)
	}

	return response.Success(c, "Dashboard retrieved successfully", resp)
}
