package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached tournaments",
	RunE:  runList,
}

func runList(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	tournaments, err := db.ListTournaments()
	if err != nil {
		return err
	}
	if len(tournaments) == 0 {
		fmt.Println("No cached tournaments. Run `smashmetrics fetch` first.")
		return nil
	}
	report.PrintTournamentTable(os.Stdout, tournaments)
	return nil
}
