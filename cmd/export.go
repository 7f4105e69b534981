package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/report"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

var (
	exportState      string
	exportGameID     int
	exportMonths     int
	exportCharacter  string
	exportAssumeMain bool
	exportFormat     string
	exportOut        string
	exportForce      bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the metrics table as CSV or JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportState, "state", startgg.DefaultState, "two-letter state code to search")
	exportCmd.Flags().IntVar(&exportGameID, "game", startgg.DefaultVideogameID, "start.gg videogame ID (Ultimate = 1386, Melee = 1)")
	exportCmd.Flags().IntVar(&exportMonths, "months", startgg.DefaultMonthsBack, "how many months of tournaments to include")
	exportCmd.Flags().StringVar(&exportCharacter, "character", "Marth", "character to emphasise in the metrics")
	exportCmd.Flags().BoolVar(&exportAssumeMain, "assume-main", false, "treat the target character as a main when set data is missing")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output file (default stdout)")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "refetch even when the cache is fresh")
}

func runExport(cmd *cobra.Command, _ []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format %q: use csv or json", exportFormat)
	}

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
		State:       exportState,
		VideogameID: exportGameID,
		MonthsBack:  exportMonths,
	}
	opts := aggregator.Options{
		TargetCharacter:  exportCharacter,
		AssumeTargetMain: exportAssumeMain,
	}
	rows, _, err := p.Metrics(cmd.Context(), filt, opts, exportForce)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if exportFormat == "json" {
		err = report.WriteJSON(w, rows)
	} else {
		err = report.WriteCSV(w, rows)
	}
	if err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Printf("Wrote %d rows to %s\n", len(rows), exportOut)
	}
	return nil
}
