package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/bect/levelshare/pkg/levelshare"
	"github.com/bect/levelshare/pkg/levelshare/admin"
)

// RouterConfig carries the services and policy the HTTP surface needs.
type RouterConfig struct {
	Identity    levelshare.IdentityService
	Content     levelshare.Service
	Admin       admin.Service
	UploadLimit int64

	// Environment toggles development-only behavior such as permissive CORS.
	Environment string
}

// NewRouter assembles the full HTTP surface under /api.
func NewRouter(cfg RouterConfig) http.Handler {
	authHandler := NewAuthHandler(cfg.Identity)
	levelHandler := NewLevelHandler(cfg.Content, cfg.UploadLimit)
	adminHandler := NewAdminHandler(cfg.Admin)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Environment == "development" {
		r.Use(devCORS)
	}

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/levels", levelHandler.ListLevels)
		r.Get("/levels/{id}", levelHandler.GetLevel)
		r.Get("/levels/{id}/download", levelHandler.DownloadLevel)
		r.Get("/users/{username}/levels", levelHandler.ListUserLevels)

		// Session-protected routes
		r.Group(func(r chi.Router) {
			r.Use(Authenticator(cfg.Identity))
			r.Post("/become-admin", authHandler.BecomeAdmin)
			r.Post("/publish", levelHandler.Publish)
			r.Delete("/levels/{id}", levelHandler.DeleteLevel)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Mount("/admin", adminHandler.Routes())
				// Older clients use this path for the cascade delete.
				r.Delete("/users/{username}", adminHandler.DeleteUser)
			})
		})
	})

	return r
}

// devCORS allows any origin. Development only.
func devCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{
		"status":  "ok",
		"service": "levelshare",
	})
}
