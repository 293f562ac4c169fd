package main

import (
	"github.com/couchcryptid/seismic-data-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/seismic-data-etl/internal/adapter/dynamo"
	"github.com/couchcryptid/seismic-data-etl/internal/config"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
	"github.com/couchcryptid/seismic-data-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

// storeDeps holds the store-backed pipeline built from the environment.
type storeDeps struct {
	cfg       *config.Config
	ingester  *pipeline.Ingester
	retriever *pipeline.Retriever
}

func loadStoreDeps(cmd *cobra.Command) (*storeDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewStderrLogger(cfg)
	metrics := observability.NewMetricsForTesting()

	client, err := dynamo.NewClient(cmd.Context(), cfg.AWSRegion, cfg.DynamoEndpoint)
	if err != nil {
		return nil, err
	}
	store := dynamo.NewStore(client, cfg.DynamoTable, metrics, logger)
	feed := arcgis.NewClient(cfg.FeedURL, cfg.FeedTimeout, metrics, logger)

	return &storeDeps{
		cfg:       cfg,
		ingester:  pipeline.NewIngester(feed, domain.NewNormalizer(nil, cfg.FeedSource), store, nil, cfg.FeedTimeout, logger, metrics),
		retriever: pipeline.NewRetriever(store, cfg.ListScanLimit, logger, metrics),
	}, nil
}

func newIngestCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "ingest",
		Short:   "Fetch the newest feed events and upsert them",
		GroupID: "store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := loadStoreDeps(cmd)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = deps.cfg.IngestMaxRecords
			}
			res, err := deps.ingester.Ingest(cmd.Context(), limit)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of feed events to request (default INGEST_MAX_RECORDS)")
	return cmd
}

func newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "Show the most recent stored events",
		GroupID: "store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := loadStoreDeps(cmd)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = deps.cfg.ListTopN
			}
			res, err := deps.retriever.List(cmd.Context(), limit)
			if err != nil {
				return describe(err)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of events to show (default LIST_TOP_N)")
	return cmd
}
