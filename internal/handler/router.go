package handler

import (
	"net/http"
	"time"

	"idol-platform/internal/auth"
	"idol-platform/internal/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth   *AuthHandler
	User   *UserHandler
	Admin  *AdminHandler
	Idol   *IdolHandler
	Event  *EventHandler
	Gate   *auth.Gate
	Logger *zap.Logger
}

// NewRouter creates and configures the Chi router with all middleware and
// routes. Everything under /api passes through the request gate; login and
// register are the gate's open routes.
func NewRouter(h *Handlers) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggerMiddleware(h.Logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		util.Info("Health check requested")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"idol-platform"}`))
	})

	router.Route("/api", func(r chi.Router) {
		r.Use(h.Gate.Middleware)

		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/verify-2fa", h.Auth.VerifyTwoFactor)

		r.Get("/users", h.User.ListUsers)
		r.Post("/users", h.User.CreateUser)
		r.Patch("/users", h.User.UpdateUser)

		r.Get("/admins", h.Admin.ListAdmins)
		r.Post("/admins", h.Admin.CreateAdmin)

		r.Get("/idols", h.Idol.ListIdols)
		r.Post("/idols", h.Idol.CreateIdol)
		r.Delete("/idols", h.Idol.DeleteIdol)

		r.Get("/events", h.Event.SearchEvents)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":"endpoint not found"}`))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"success":false,"error":"method not allowed"}`))
	})

	return router
}

// LoggerMiddleware logs each HTTP request with its final status and timing.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					util.String("method", r.Method),
					util.String("path", r.URL.Path),
					util.String("remote_addr", r.RemoteAddr),
					util.Int("status", ww.Status()),
					util.Duration("duration", time.Since(start)),
					util.String("user_agent", r.UserAgent()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
