package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jaden/paper-pipeline/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the run ledger",
	Long: `History inspects the ledger of recorded stage runs. The ledger is purely
observational: skip decisions are made from stage output files on disk, never
from these records.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded stage runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(viper.GetString("history.dir"))
		if err != nil {
			return err
		}
		defer store.Close()

		paper, _ := cmd.Flags().GetString("paper")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := store.List(cmd.Context(), paper, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tPAPER\tSTAGE\tSTATUS\tWINDOWS\tKEPT\tEMPTY\tDURATION")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.PaperID, r.Stage, r.Status,
				r.Windows, r.Kept, r.Empty, r.Duration)
		}
		return w.Flush()
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all recorded runs as YAML to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open(viper.GetString("history.dir"))
		if err != nil {
			return err
		}
		defer store.Close()

		return store.ExportYAML(cmd.Context(), os.Stdout)
	},
}

func init() {
	historyListCmd.Flags().String("paper", "", "only show runs for this paper")
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to show (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
