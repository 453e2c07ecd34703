package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <pdf> [pdf...]",
	Short: "Run the full pipeline on one or more PDFs",
	Long: `Run executes all three stages in order for each PDF: convert to Markdown,
rewrite into a transcript, then expand the transcript. Stages whose output
files already exist are skipped, so rerunning an interrupted pipeline resumes
at the first incomplete stage.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator(true, true)
		if err != nil {
			return err
		}
		defer cleanup()

		var failed int
		for _, pdf := range args {
			if err := coord.Run(cmd.Context(), pdf); err != nil {
				logger.Error().Err(err).Str("pdf", pdf).Msg("pipeline failed")
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d papers failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
