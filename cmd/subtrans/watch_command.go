package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/config"
	"github.com/subtrans/backend/internal/translate"
	"github.com/subtrans/backend/internal/watcher"
)

// newService wires the translation service from loaded config. CLI runs have
// no settings store; everything comes from env and the config file.
func newService(cfg *config.Config) *translate.Service {
	return translate.NewService(cfg.ServiceConfig(), nil)
}

func newWatchCommand(loadConfig func() *config.Config) *cobra.Command {
	var concurrent int

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a directory and translate subtitle files as they appear",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}

			cfg := loadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			service := newService(cfg)

			w, err := watcher.New(dir, func(ctx context.Context, path string) error {
				result, err := service.TranslateFile(ctx, path, jobDefaults(cfg), nil)
				if err != nil {
					return err
				}
				log.Printf("[watcher] translated %s -> %s", path, result.OutputPath)
				return nil
			}, concurrent)
			if err != nil {
				return err
			}
			defer w.Stop()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrent, "concurrent", 2, "Maximum files translated at once")
	return cmd
}
