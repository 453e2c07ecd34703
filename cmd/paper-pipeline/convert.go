package main

import (
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert <pdf> [pdf...]",
	Short: "Convert PDFs to Markdown",
	Long: `Convert renders each PDF to Markdown through the containerized marker
backend, writing <output-dir>/<name>/<name>.md plus any extracted figures.
PDFs whose Markdown output already exists are skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		coord, cleanup, err := newCoordinator(true, false)
		if err != nil {
			return err
		}
		defer cleanup()

		for _, pdf := range args {
			if err := coord.ConvertStage(cmd.Context(), pdf); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
