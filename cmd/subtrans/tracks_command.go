package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/subtrans/backend/internal/extract"
)

func newTracksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tracks <media-file>",
		Short: "List embedded text subtitle tracks in a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			tracks, err := extract.ProbeTracks(cmd.Context(), absPath)
			if err != nil {
				return err
			}
			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no text subtitle tracks found")
				return nil
			}

			for _, t := range tracks {
				label := t.Language
				if label == "" {
					label = "und"
				}
				if t.Title != "" {
					label += " / " + t.Title
				}
				fmt.Fprintf(cmd.OutOrStdout(), "embedded:%d\t%s\t%s\n", t.StreamIndex, t.Codec, label)
			}
			return nil
		},
	}
}
