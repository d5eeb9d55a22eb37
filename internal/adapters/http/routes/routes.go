package routes

import (
	"library-circulation/internal/adapters/http/handlers"
	"library-circulation/internal/adapters/http/middleware"
	"library-circulation/internal/config"
	"library-circulation/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *services.Container, cfg *config.Config) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	circulationHandler := handlers.NewCirculationHandler(svc.Circulation)
	reservationHandler := handlers.NewReservationHandler(svc.Reservations)
	copyHandler := handlers.NewCopyHandler(svc.Copies)
	bookHandler := handlers.NewBookHandler(svc.Reconcile)
	masterHandler := handlers.NewMasterHandler(svc.Master)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	auth := middleware.AuthMiddleware(cfg)
	staff := middleware.StaffOnly()

	setupReservationRoutes(apiV1, auth, staff, reservationHandler)
	setupLoanRoutes(apiV1, auth, staff, circulationHandler)
	setupCatalogRoutes(apiV1, auth, staff, copyHandler, bookHandler, circulationHandler)

	setupMasterRoutes(apiV1, auth, staff, masterHandler)
	apiV1.Get("/dashboard", auth, staff, middleware.NoCacheHeaders(), dashboardHandler.GetDashboard)

	// Admin routes
	admin := apiV1.Group("/admin", auth, middleware.AdminOnly())
	admin.Post("/reconcile", bookHandler.Reconcile)
}

// setupMasterRoutes configures section, category and settings routes
func setupMasterRoutes(router fiber.Router, auth, staff fiber.Handler, h *handlers.MasterHandler) {
	adminOnly := middleware.AdminOnly()

	master := router.Group("/master", auth, staff)
	master.Put("/sections", adminOnly, h.ConfigureSection)
	master.Get("/categories", h.ListCategories)
	master.Put("/categories", adminOnly, h.SaveCategory)
	master.Get("/settings", h.ListSettings)
	master.Put("/settings/:key", adminOnly, h.UpdateSetting)
}

// setupReservationRoutes configures reservation routes
func setupReservationRoutes(router fiber.Router, auth, staff fiber.Handler, h *handlers.ReservationHandler) {
	reservations := router.Group("/reservations", auth, middleware.NoCacheHeaders())
	reservations.Get("/", h.List)
	reservations.Post("/", h.Reserve)
	reservations.Post("/approve", staff, middleware.BatchRateLimiter(), h.Approve)
	reservations.Get("/:id", h.Get)
	reservations.Put("/:id/decline", staff, h.Decline)
	reservations.Put("/:id/cancel", h.Cancel)
}

// setupLoanRoutes configures loan routes
func setupLoanRoutes(router fiber.Router, auth, staff fiber.Handler, h *handlers.CirculationHandler) {
	loans := router.Group("/loans", auth, middleware.NoCacheHeaders())
	loans.Get("/", h.ListLoans)
	loans.Post("/", staff, h.Checkout)
	loans.Get("/:id", h.GetLoan)
	loans.Put("/:id/return", staff, h.Return)
}

// setupCatalogRoutes configures book, copy and location routes
func setupCatalogRoutes(
	router fiber.Router,
	auth, staff fiber.Handler,
	copyHandler *handlers.CopyHandler,
	bookHandler *handlers.BookHandler,
	circulationHandler *handlers.CirculationHandler,
) {
	books := router.Group("/books", auth)
	books.Get("/:id", middleware.NoCacheHeaders(), bookHandler.GetBook)
	books.Get("/:id/copies", middleware.NoCacheHeaders(), copyHandler.ListCopies)
	books.Post("/:id/copies", staff, copyHandler.AddCopies)
	books.Get("/:id/recommend-location", staff, copyHandler.RecommendLocation)

	copies := router.Group("/copies", auth, staff)
	copies.Get("/:id", copyHandler.GetCopy)
	copies.Get("/:id/history", copyHandler.History)
	copies.Put("/:id/location", copyHandler.MoveCopy)
	copies.Put("/:id/status", circulationHandler.MarkStatus)
	copies.Put("/:id/restore", circulationHandler.Restore)
	copies.Put("/:id/release", circulationHandler.Release)
	copies.Delete("/:id", circulationHandler.Deactivate)

	router.Get("/locations/check", auth, staff, copyHandler.CheckSlot)
	router.Get("/sections", auth, middleware.SectionCache(), copyHandler.ListSections)
}
