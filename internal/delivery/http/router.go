package http

import (
	"net/http"

	"github.com/frontandrew/triplog/internal/delivery/http/middleware"
	"github.com/frontandrew/triplog/internal/pkg/config"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	authHandler    *AuthHandler
	tripHandler    *TripHandler
	vehicleHandler *VehicleHandler
	adminHandler   *AdminHandler
	sessions       middleware.SessionValidator
	config         *config.Config
	logger         logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	authHandler *AuthHandler,
	tripHandler *TripHandler,
	vehicleHandler *VehicleHandler,
	adminHandler *AdminHandler,
	sessions middleware.SessionValidator,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		tripHandler:    tripHandler,
		vehicleHandler: vehicleHandler,
		adminHandler:   adminHandler,
		sessions:       sessions,
		config:         config,
		logger:         logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", rt.authHandler.Login)
			r.Post("/logout", rt.authHandler.Logout)
		})

		// Справочники (публичные - нужны форме ввода)
		r.Get("/branches", rt.vehicleHandler.ListBranches)
		r.Get("/branches/{code}/vehicles", rt.vehicleHandler.ListBranchVehicles)
		r.Get("/vehicles", rt.vehicleHandler.ListVehicles)
		r.Get("/vehicles/{id}", rt.vehicleHandler.GetVehicle)
		r.Get("/drivers", rt.vehicleHandler.ListDrivers)

		r.Route("/trips", func(r chi.Router) {
			r.Post("/", rt.tripHandler.CreateTrip)
			r.Get("/", rt.tripHandler.ListTrips)
			r.Get("/{id}", rt.tripHandler.GetTrip)

			// Удаление защищено отдельным паролем, не сессией
			r.Post("/{id}/delete", rt.tripHandler.DeleteTrip)

			r.With(middleware.SessionMiddleware(rt.sessions)).Put("/{id}", rt.tripHandler.UpdateTrip)
		})

		// Admin only
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.SessionMiddleware(rt.sessions))
			r.Get("/dashboard", rt.adminHandler.Dashboard)
			r.Get("/reports/monthly", rt.adminHandler.MonthlyReport)
			r.Post("/vehicles/{id}/recompute", rt.adminHandler.RecomputeChain)
		})
	})

	return r
}
