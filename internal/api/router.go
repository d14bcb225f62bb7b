package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/subtrans/backend/internal/api/handlers"
	"github.com/subtrans/backend/internal/api/middleware"
	"github.com/subtrans/backend/internal/auth"
	"github.com/subtrans/backend/internal/config"
	"github.com/subtrans/backend/internal/db"
	"github.com/subtrans/backend/internal/job"
	"github.com/subtrans/backend/internal/translate"
)

func NewRouter(database *db.Database, jwtService *auth.JWTService, cfg *config.Config, jobQueue *job.JobQueue, service *translate.Service) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(middleware.CORSHandler(cfg.CORSOrigins)))
	r.Use(middleware.MaxBodySize(1 << 20))

	// Handlers
	authHandler := handlers.NewAuthHandler(database, jwtService)
	filesHandler := handlers.NewFilesHandler(cfg.MediaPath)
	subtitleHandler := handlers.NewSubtitleHandler(cfg.MediaPath)
	translateHandler := handlers.NewTranslateHandler(cfg.MediaPath, jobQueue, service)
	jobHandler := handlers.NewJobHandler(jobQueue)
	presetsHandler := handlers.NewPresetsHandler(database)
	settingsHandler := handlers.NewSettingsHandler(database)

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// Auth (public, rate limited)
		r.With(loginLimiter.Handler).Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(jwtService))

			// Auth
			r.Get("/auth/me", authHandler.Me)

			// Files
			r.Get("/files/tree", filesHandler.GetTree)
			r.Get("/files/tree/*", filesHandler.GetTree)
			r.Get("/files/search", filesHandler.Search)

			// Subtitle sources
			r.Get("/subtitle/list/*", subtitleHandler.ListSubtitles)
			r.Get("/subtitle/content/*", subtitleHandler.ServeSubtitle)

			// Translation
			r.Get("/providers", translateHandler.ListProviders)
			r.Post("/translate/*", translateHandler.TranslateSubtitle)

			// Jobs
			r.Get("/jobs", jobHandler.ListJobs)
			r.Get("/jobs/{id}", jobHandler.GetJob)
			r.Delete("/jobs/{id}", jobHandler.CancelJob)
			r.Post("/jobs/{id}/retry", jobHandler.RetryJob)

			// Presets
			r.Get("/presets", presetsHandler.ListPresets)
			r.Post("/presets", presetsHandler.CreatePreset)
			r.Put("/presets/{id}", presetsHandler.UpdatePreset)
			r.Delete("/presets/{id}", presetsHandler.DeletePreset)

			// Settings (admin only)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))
				r.Get("/settings", settingsHandler.GetSettings)
				r.Put("/settings", settingsHandler.UpdateSettings)
			})
		})
	})

	return r
}
