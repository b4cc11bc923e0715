package routes

import (
	"time"

	"insurehub/internal/adapters/http/handlers"
	"insurehub/internal/adapters/http/middleware"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/config"
	"insurehub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	policyRepo := repositories.NewPolicyRepository(db)
	claimRepo := repositories.NewClaimRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, roleRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo, roleRepo)
	policyService := services.NewPolicyService(policyRepo)
	claimService := services.NewClaimService(claimRepo, policyRepo)
	dashboardService := services.NewDashboardService(policyRepo, claimRepo, userRepo, roleRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, cfg.AppMode)
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	policyHandler := handlers.NewPolicyHandler(policyService)
	claimHandler := handlers.NewClaimHandler(claimService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", middleware.PublicCache(time.Minute), healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1", middleware.NoCacheHeaders())
	auth := middleware.AuthMiddleware(authService)

	// API Info
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	setupAuthRoutes(apiV1.Group("/auth"), authHandler, auth)

	// User management routes (Admin only)
	setupUserRoutes(apiV1.Group("/users", auth, middleware.AdminOnly()), userHandler)

	// Profile routes (Authenticated users)
	setupProfileRoutes(apiV1.Group("/profile", auth), userHandler)

	// Policy and claim lifecycle routes (Authenticated users)
	setupPolicyRoutes(apiV1.Group("/policies", auth), policyHandler)
	setupClaimRoutes(apiV1.Group("/claims", auth), claimHandler)

	// Dashboard routes
	apiV1.Get("/dashboard", auth, dashboardHandler.GetDashboard)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, auth fiber.Handler) {
	// Public routes (5 req/min/IP on credential checks)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", auth, handler.Me)
	router.Post("/logout-all", auth, handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
	router.Put("/:id/roles", handler.ReplaceRoles)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
}

// setupPolicyRoutes configures policy routes; review and delete are admin only
func setupPolicyRoutes(router fiber.Router, handler *handlers.PolicyHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.Apply)
	router.Get("/:id", handler.Get)
	router.Put("/:id/cancel", handler.Cancel)

	router.Put("/:id/review", middleware.AdminOnly(), handler.Review)
	router.Delete("/:id", middleware.AdminOnly(), handler.Delete)
}

// setupClaimRoutes configures claim routes; review actions are admin only
func setupClaimRoutes(router fiber.Router, handler *handlers.ClaimHandler) {
	router.Get("/", handler.List)
	router.Post("/", handler.File)
	router.Get("/:id", handler.Get)
	router.Put("/:id", handler.Edit)
	router.Delete("/:id", handler.Withdraw)

	router.Put("/:id/start-review", middleware.AdminOnly(), handler.StartReview)
	router.Post("/:id/review", middleware.AdminOnly(), handler.Review)
}
