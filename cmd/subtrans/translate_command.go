package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/config"
	"github.com/subtrans/backend/internal/job"
	"github.com/subtrans/backend/internal/storage"
)

// jobDefaults builds translate params from configured defaults
func jobDefaults(cfg *config.Config) job.TranslateParams {
	return job.TranslateParams{
		Provider:   cfg.Translation.Provider,
		TargetLang: cfg.Translation.TargetLang,
		Layout:     cfg.Translation.Layout,
		Format:     cfg.Translation.Format,
	}
}

func newTranslateCommand(loadConfig func() *config.Config) *cobra.Command {
	var params job.TranslateParams

	cmd := &cobra.Command{
		Use:   "translate <subtitle-file>",
		Short: "Translate a subtitle file in one shot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("file does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", absPath)
			}
			if !storage.IsSubtitleFile(absPath) {
				return fmt.Errorf("unsupported file extension %q", filepath.Ext(absPath))
			}

			cfg := loadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			service := newService(cfg)

			defaults := jobDefaults(cfg)
			if params.Provider == "" {
				params.Provider = defaults.Provider
			}
			if params.TargetLang == "" {
				params.TargetLang = defaults.TargetLang
			}
			if params.Layout == "" {
				params.Layout = defaults.Layout
			}
			if params.Format == "" {
				params.Format = defaults.Format
			}

			result, err := service.TranslateFile(cmd.Context(), absPath, params, func(p float64) {
				fmt.Fprintf(cmd.OutOrStdout(), "\rprogress: %3.0f%%", p*100)
			})
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout())
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\r%s: %d translated, %d failed in %.1fs\n",
				result.Status, result.Translated, result.Failed, result.Duration)
			fmt.Fprintf(cmd.OutOrStdout(), "output: %s\n", result.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Provider, "provider", "", "Translation provider (openai, deepseek, ollama, gemini, anthropic, deepl)")
	cmd.Flags().StringVar(&params.Model, "model", "", "Provider model override")
	cmd.Flags().StringVar(&params.SourceLang, "from", "", "Source language (default: detect from filename)")
	cmd.Flags().StringVar(&params.TargetLang, "to", "", "Target language")
	cmd.Flags().StringVar(&params.Preset, "preset", "", "Prompt preset (anime, movie, documentary, custom)")
	cmd.Flags().StringVar(&params.CustomPrompt, "prompt", "", "Custom system prompt (with --preset custom)")
	cmd.Flags().StringVar(&params.Layout, "layout", "", "Output layout (bilingual, monolingual)")
	cmd.Flags().StringVar(&params.Format, "format", "", "Output format (srt, vtt, ass)")

	return cmd
}
