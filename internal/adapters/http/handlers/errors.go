package handlers

import (
	"log"
	"strconv"
	"time"

	"insurehub/internal/adapters/http/middleware"
	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// domainError renders a lifecycle error with the status code for its kind
func domainError(c *fiber.Ctx, err error, fallback string) error {
	e, ok := domain.AsError(err)
	if !ok {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, fallback)
	}

	switch e.Kind {
	case domain.KindValidation:
		return response.ValidationFailed(c, "Validation failed", e.Fields)
	case domain.KindNotFound:
		return response.NotFound(c, e.Error())
	case domain.KindForbidden:
		return response.Forbidden(c, e.Error())
	case domain.KindInvalidTransition, domain.KindPolicyNotApproved, domain.KindAlreadyFinalized:
		return response.Conflict(c, e.Error())
	}
	return response.InternalServerError(c, fallback)
}

// actorOrAbort returns the authenticated actor; ok is false when a 401 was written
func actorOrAbort(c *fiber.Ctx) (domain.Actor, bool, error) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return domain.Actor{}, false, response.Unauthorized(c, "Unauthorized")
	}
	return actor, true, nil
}

// paramID parses a positive numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseDate reads a YYYY-MM-DD field into v; empty input yields the zero time
func parseDate(v domain.Violations, field, s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		v.Add(field, "must be a date in YYYY-MM-DD format")
		return time.Time{}
	}
	return t
}
