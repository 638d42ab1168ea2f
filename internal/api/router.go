package api

import (
	"net/http"

	"github.com/dom/hydration-tracker/internal/api/handlers"
	"github.com/dom/hydration-tracker/internal/api/middleware"
	"github.com/dom/hydration-tracker/internal/config"
	"github.com/dom/hydration-tracker/internal/service"
	"github.com/dom/hydration-tracker/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(services *service.Services, hub *websocket.Hub, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Initialize handlers
	userHandler := handlers.NewUserHandler(services, cfg.DefaultDailyGoal)
	waterHandler := handlers.NewWaterHandler(services)
	reminderHandler := handlers.NewReminderHandler(services)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Post("/", userHandler.Create)
			r.Patch("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
			r.Post("/{id}/switch", userHandler.Switch)
		})

		r.Get("/presets", waterHandler.Presets)

		// Routes acting on the current user
		r.Group(func(r chi.Router) {
			r.Use(middleware.CurrentUser(services))

			r.Get("/today", waterHandler.Today)
			r.Post("/entries", waterHandler.AddEntry)
			r.Get("/export", waterHandler.Export)

			r.Route("/history", func(r chi.Router) {
				r.Get("/recent", waterHandler.RecentDays)
				r.Get("/streak", waterHandler.Streak)
				r.Get("/stats", waterHandler.Stats)
			})

			r.Route("/reminders", func(r chi.Router) {
				r.Get("/", reminderHandler.Get)
				r.Put("/", reminderHandler.Update)
				r.Post("/permission", reminderHandler.RequestPermission)
				r.Post("/test", reminderHandler.Test)
			})
		})

		// WebSocket endpoint
		r.Get("/ws", wsHandler.Handle)
	})

	return r
}
