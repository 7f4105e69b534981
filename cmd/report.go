package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/report"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

var (
	reportState      string
	reportGameID     int
	reportMonths     int
	reportCharacter  string
	reportAssumeMain bool
	reportLimit      int
	reportForce      bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compute and print the per-player metrics table",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportState, "state", startgg.DefaultState, "two-letter state code to search")
	reportCmd.Flags().IntVar(&reportGameID, "game", startgg.DefaultVideogameID, "start.gg videogame ID (Ultimate = 1386, Melee = 1)")
	reportCmd.Flags().IntVar(&reportMonths, "months", startgg.DefaultMonthsBack, "how many months of tournaments to include")
	reportCmd.Flags().StringVar(&reportCharacter, "character", "Marth", "character to emphasise in the metrics")
	reportCmd.Flags().BoolVar(&reportAssumeMain, "assume-main", false, "treat the target character as a main when set data is missing")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 25, "maximum number of rows to print (0 = all)")
	reportCmd.Flags().BoolVar(&reportForce, "force", false, "refetch even when the cache is fresh")
}

func runReport(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := newPipeline(db)
	if err != nil {
		return err
	}

	filt := startgg.TournamentFilter{
		State:       reportState,
		VideogameID: reportGameID,
		MonthsBack:  reportMonths,
	}
	opts := aggregator.Options{
		TargetCharacter:  reportCharacter,
		AssumeTargetMain: reportAssumeMain,
	}
	rows, stats, err := p.Metrics(cmd.Context(), filt, opts, reportForce)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("No player records found for %s (%d tournaments in window).\n",
			filt.StateOrDefault(), stats.Tournaments)
		return nil
	}

	fmt.Printf("\n%s players, %s focus, %d events across %d tournaments\n\n",
		filt.StateOrDefault(), reportCharacter, stats.SinglesEvents, stats.Tournaments)
	report.PrintMetricsTable(rows, reportLimit)
	return nil
}
