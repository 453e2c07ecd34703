package main

import (
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand <pdf> [pdf...]",
	Short: "Expand a transcript sentence by sentence",
	Long: `Expand elaborates each paper's transcript window by window. Every prompt
carries the full transcript for paper-wide context, repeats the current window
to discourage rewording, and includes the previous window's expansion for
consistency. Requires the transcript stage's output; papers whose expansion
already exists are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator(false, true)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, pdf := range args {
			if err := coord.ExpandStage(cmd.Context(), pdf); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(expandCmd)
}
