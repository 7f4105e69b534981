package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/smashcc/startgg-metrics/internal/aggregator"
	"github.com/smashcc/startgg-metrics/internal/model"
	"github.com/smashcc/startgg-metrics/internal/server"
	"github.com/smashcc/startgg-metrics/internal/startgg"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics pipeline over HTTP",
	Long:  "Expose /health and /search endpoints backed by the same fetch-cache-aggregate flow as the report command.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

func runServe(_ *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := newPipeline(db)
	if err != nil {
		return err
	}

	metrics := func(ctx context.Context, filt startgg.TournamentFilter, opts aggregator.Options) ([]model.PlayerMetrics, error) {
		rows, _, err := p.Metrics(ctx, filt, opts, false)
		return rows, err
	}
	return server.New(metrics, log).ListenAndServe(serveAddr)
}
