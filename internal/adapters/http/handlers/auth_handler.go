package handlers

import (
	"errors"
	"strings"
	"time"

	"insurehub/internal/adapters/http/middleware"
	"insurehub/internal/config"
	"insurehub/internal/core/domain"
	"insurehub/internal/core/services"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Cookie names carrying the token pair
const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cfg:         cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest lets non-browser clients send the refresh token in the body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// authError maps identity errors; token and account failures also clear the cookies
func (h *AuthHandler) authError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return domainError(c, err, fallback)
	case errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, "Username or email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		return response.Unauthorized(c, "Invalid username or password")
	case errors.Is(err, services.ErrUserInactive):
		h.clearAuthCookies(c)
		return response.Forbidden(c, "User account is inactive")
	case errors.Is(err, services.ErrTokenExpired):
		h.clearAuthCookies(c)
		return response.Unauthorized(c, "Refresh token expired, please login again")
	case errors.Is(err, services.ErrTokenRevoked):
		h.clearAuthCookies(c)
		return response.Unauthorized(c, "Refresh token revoked, please login again")
	case errors.Is(err, services.ErrInvalidToken), errors.Is(err, services.ErrUserNotFound):
		h.clearAuthCookies(c)
		return response.Unauthorized(c, "Invalid refresh token")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Register handles user registration
// @Summary Register new user
// @Description Register a new user with the User role
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
	})
	if err != nil {
		return h.authError(c, err, "Failed to register user")
	}

	h.setAuthCookies(c, result)
	return response.Created(c, "User registered successfully", h.session(result))
}

// Login handles user login
// @Summary Login user
// @Description Authenticate user and return tokens
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return response.ValidationFailed(c, "Validation failed", map[string]string{
			"credentials": "username and password are required",
		})
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return h.authError(c, err, "Failed to login")
	}

	h.setAuthCookies(c, result)
	return response.Success(c, "Login successful", h.session(result))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token (cookie or body) and issue a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token when not sent as a cookie"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := h.refreshToken(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		return h.authError(c, err, "Failed to refresh token")
	}

	h.setAuthCookies(c, result)
	return response.Success(c, "Token refreshed successfully", h.session(result))
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the refresh token and clear cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := h.refreshToken(c); refreshToken != "" {
		_ = h.authService.Logout(c.Context(), refreshToken)
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke all refresh tokens for the user
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	actor, ok, err := actorOrAbort(c)
	if !ok {
		return err
	}

	if err := h.authService.LogoutAll(c.Context(), actor.UserID); err != nil {
		return response.InternalServerError(c, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)
	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.Context(), actor.UserID)
	if err != nil {
		return response.NotFound(c, "User not found")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user.ToResponse(),
	})
}

// session is the response body after a successful sign-in or rotation
func (h *AuthHandler) session(result *services.AuthResponse) fiber.Map {
	return fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    h.cfg.JWT.AccessTokenMins * 60,
		"user":          result.User,
	}
}

// refreshToken reads the refresh token from the cookie, then the JSON body
func (h *AuthHandler) refreshToken(c *fiber.Ctx) string {
	if token := c.Cookies(refreshCookie); token != "" {
		return token
	}
	var req RefreshRequest
	if len(c.Body()) > 0 && c.BodyParser(&req) == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, result *services.AuthResponse) {
	h.writeCookie(c, accessCookie, result.AccessToken, h.cfg.JWT.AccessTokenMins*60)
	h.writeCookie(c, refreshCookie, result.RefreshToken, h.cfg.JWT.RefreshTokenDays*24*60*60)
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	h.writeCookie(c, accessCookie, "", -1)
	h.writeCookie(c, refreshCookie, "", -1)
}

// writeCookie sets an HTTP-only auth cookie; a negative maxAge expires it
func (h *AuthHandler) writeCookie(c *fiber.Ctx, name, value string, maxAge int) {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	}
	if maxAge < 0 {
		cookie.Expires = time.Now().Add(-time.Hour)
	}
	c.Cookie(cookie)
}
