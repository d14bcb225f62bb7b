package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/api"
	"github.com/subtrans/backend/internal/auth"
	"github.com/subtrans/backend/internal/config"
	"github.com/subtrans/backend/internal/db"
	"github.com/subtrans/backend/internal/job"
	"github.com/subtrans/backend/internal/translate"
	"github.com/subtrans/backend/internal/watcher"
)

func newServeCommand(loadConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the translation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Ensure data directory exists
			os.MkdirAll(cfg.DataPath, 0755)

			database, err := db.NewSQLite(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initialize database: %w", err)
			}
			defer database.Close()

			if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
				return fmt.Errorf("create admin user: %w", err)
			}
			log.Printf("Admin user ensured: %s", cfg.AdminUsername)

			jwtService := auth.NewJWTService(cfg.JWTSecret)

			service := translate.NewService(cfg.ServiceConfig(), database)

			queue := job.NewJobQueue(database.DB())
			defer queue.Stop()
			queue.RegisterHandler(job.JobTranslate, service.HandleJob)

			router := api.NewRouter(database, jwtService, cfg, queue, service)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Optional drop-directory watcher
			if cfg.WatchDir != "" {
				w, err := watcher.New(cfg.WatchDir, watchHandler(service, cfg), 2)
				if err != nil {
					return fmt.Errorf("start watcher: %w", err)
				}
				defer w.Stop()
				go func() {
					if err := w.Start(ctx); err != nil && ctx.Err() == nil {
						log.Printf("watcher exited: %v", err)
					}
				}()
			}

			addr := fmt.Sprintf(":%d", cfg.Port)
			log.Printf("Starting server on %s", addr)
			log.Printf("Media path: %s", cfg.MediaPath)

			srv := &http.Server{Addr: addr, Handler: router}
			go func() {
				<-ctx.Done()
				log.Println("Shutting down...")
				srv.Shutdown(context.Background())
			}()

			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}
}

// watchHandler translates dropped subtitle files using configured defaults
func watchHandler(service *translate.Service, cfg *config.Config) watcher.Handler {
	return func(ctx context.Context, path string) error {
		result, err := service.TranslateFile(ctx, path, jobDefaults(cfg), nil)
		if err != nil {
			return err
		}
		log.Printf("[watcher] translated %s -> %s (%d/%d segments)",
			path, result.OutputPath, result.Translated, result.Translated+result.Failed)
		return nil
	}
}
