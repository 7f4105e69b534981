package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show aggregate statistics about the local cache",
	RunE:  runSummary,
}

func runSummary(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.Overview()
	if err != nil {
		return err
	}
	states, err := db.StateCounts()
	if err != nil {
		return err
	}
	report.PrintOverview(os.Stdout, ov, states)
	return nil
}
