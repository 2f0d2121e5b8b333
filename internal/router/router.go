package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/partnerdash/api/internal/config"
	"github.com/partnerdash/api/internal/handler"
	mw "github.com/partnerdash/api/internal/middleware"
	"github.com/partnerdash/api/internal/telemetry"
	"github.com/partnerdash/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// A nil metrics handler leaves /metrics unmounted.
func New(cfg *config.Config, sessions handler.SessionLookup, hub *ws.Hub, metrics http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.WithHTTPRoute(func(r *http.Request) string {
		if rc := chi.RouteContext(r.Context()); rc != nil {
			return rc.RoutePattern()
		}
		return ""
	}))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	// Authenticated via ?token=
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(sessions)
		r.Route("/orders", orderHandler.RegisterRoutes)

		restaurantHandler := handler.NewRestaurantHandler(sessions)
		r.Route("/restaurant", restaurantHandler.RegisterRoutes)
	})

	return r
}
