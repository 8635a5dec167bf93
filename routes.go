package main

import (
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"team-task-manager/config"
	"team-task-manager/handlers"
	"team-task-manager/models"
	"team-task-manager/utilities"
)

// newRouter builds the API routes. limiter may be nil to disable rate limiting.
func newRouter(cfg *config.Config, api *handlers.API, limiter handlers.Allower) http.Handler {
	r := mux.NewRouter()
	r.Use(handlers.LoggingMiddleware)

	s := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		s.Use(handlers.RateLimitMiddleware(limiter, cfg.RateLimit.Max, cfg.RateLimit.Window))
	}
	s.Use(handlers.BodyLimitMiddleware(handlers.MaxBodyBytes))

	authed := api.AuthMiddleware
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return authed(handlers.RequireRole(h, models.RoleAdmin))
	}

	s.HandleFunc("/health", api.HealthHandler).Methods("GET")

	// --- Auth ---
	s.HandleFunc("/auth/register", api.RegisterHandler).Methods("POST")
	s.HandleFunc("/auth/login", api.LoginHandler).Methods("POST")
	s.HandleFunc("/auth/profile", authed(api.ProfileHandler)).Methods("GET")

	// --- Tasks ---
	s.HandleFunc("/tasks", authed(api.ListTasksHandler)).Methods("GET")
	s.HandleFunc("/tasks", admin(api.CreateTaskHandler)).Methods("POST")
	s.HandleFunc("/tasks/{id}", authed(api.GetTaskHandler)).Methods("GET")
	s.HandleFunc("/tasks/{id}", authed(api.UpdateTaskHandler)).Methods("PUT")
	s.HandleFunc("/tasks/{id}", admin(api.DeleteTaskHandler)).Methods("DELETE")
	s.HandleFunc("/tasks/{id}/comments", authed(api.AddCommentHandler)).Methods("POST")

	// --- Users ---
	s.HandleFunc("/users", admin(api.ListUsersHandler)).Methods("GET")
	s.HandleFunc("/users/members", admin(api.ListMembersHandler)).Methods("GET")

	headers := gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"})
	methods := gorillahandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	allowed := cfg.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"*"}
		utilities.LogWarn("CORS_ALLOWED_ORIGINS not set, allowing all origins ('*'). Set it in production.")
	}
	origins := gorillahandlers.AllowedOrigins(allowed)
	utilities.LogInfo("CORS allowed origins: %v", allowed)

	var h http.Handler = gorillahandlers.CORS(headers, methods, origins)(r)
	h = handlers.TrustedProxyHeaders(cfg.TrustedProxies)(h)
	h = gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(utilities.Logger()),
		gorillahandlers.PrintRecoveryStack(true),
	)(h)
	return h
}
