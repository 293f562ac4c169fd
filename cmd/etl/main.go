package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/seismic-data-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/seismic-data-etl/internal/adapter/dynamo"
	httpadapter "github.com/couchcryptid/seismic-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/seismic-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-data-etl/internal/config"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
	"github.com/couchcryptid/seismic-data-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := dynamo.NewClient(ctx, cfg.AWSRegion, cfg.DynamoEndpoint)
	if err != nil {
		logger.Error("failed to create dynamodb client", "error", err)
		os.Exit(1)
	}
	store := dynamo.NewStore(client, cfg.DynamoTable, metrics, logger)

	feed := arcgis.NewClient(cfg.FeedURL, cfg.FeedTimeout, metrics, logger)
	normalizer := domain.NewNormalizer(nil, cfg.FeedSource)

	// Kafka announcements are feature-flagged via PUBLISH_ENABLED.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	ingester := pipeline.NewIngester(feed, normalizer, store, publisher, cfg.FeedTimeout, logger, metrics)
	retriever := pipeline.NewRetriever(store, cfg.ListScanLimit, logger, metrics)

	limits := httpadapter.Limits{Ingest: cfg.IngestMaxRecords, List: cfg.ListTopN}
	srv := httpadapter.NewServer(cfg.HTTPAddr, ingester, retriever, limits, store, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start scheduled ingestion when INGEST_INTERVAL is set.
	if cfg.IngestInterval > 0 {
		sched := pipeline.NewScheduler(ingester, cfg.IngestInterval, cfg.IngestMaxRecords, nil, logger, metrics)
		go func() {
			if err := sched.Run(ctx); err != nil {
				logger.Error("scheduler error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
