package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/config"
	"github.com/subtrans/backend/internal/translate"
)

func newProvidersCommand(loadConfig func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List translation providers and their configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			service := newService(cfg)

			configured := map[string]bool{}
			for _, id := range service.Providers() {
				configured[id] = true
			}

			for _, id := range translate.ProviderIDs() {
				state := "not configured"
				if configured[id] {
					state = "configured"
				}
				marker := " "
				if id == cfg.Translation.Provider {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-10s %s\n", marker, id, state)
			}
			return nil
		},
	}
}
