package main

import (
	"github.com/spf13/cobra"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <pdf> [pdf...]",
	Short: "Rewrite converted Markdown into a transcript",
	Long: `Transcript rewrites each paper's converted Markdown into clean prose,
processing the document in line windows. Each window's prompt carries the
neighboring input windows and the previous window's output so the transcript
reads continuously. Requires the convert stage's output; papers whose
transcript already exists are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator(false, true)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, pdf := range args {
			if err := coord.TranscriptStage(cmd.Context(), pdf); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
}
