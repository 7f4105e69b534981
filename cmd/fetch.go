package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/startgg"
)

var (
	fetchState  string
	fetchGameID int
	fetchMonths int
	fetchForce  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download tournament results from start.gg into the local cache",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchState, "state", startgg.DefaultState, "two-letter state code to search")
	fetchCmd.Flags().IntVar(&fetchGameID, "game", startgg.DefaultVideogameID, "start.gg videogame ID (Ultimate = 1386, Melee = 1)")
	fetchCmd.Flags().IntVar(&fetchMonths, "months", startgg.DefaultMonthsBack, "how many months of tournaments to include")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "refetch even when the cache is fresh")
}

func runFetch(cmd *cobra.Command, _ []string) error {
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
		State:       fetchState,
		VideogameID: fetchGameID,
		MonthsBack:  fetchMonths,
	}
	records, stats, err := p.Run(cmd.Context(), filt, fetchForce)
	if err != nil {
		return err
	}

	fmt.Printf("Fetched %d tournaments, %d singles events (%d from cache, %d downloaded), %d player-event records.\n",
		stats.Tournaments, stats.SinglesEvents, stats.CachedBundles, stats.FetchedBundles, len(records))
	return nil
}
