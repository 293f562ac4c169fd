package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
)

// DefaultMaxRecords is the number of feed items requested when the caller asks for none.
const DefaultMaxRecords = 10

// DefaultFeedTimeout bounds a feed query when no timeout is configured.
const DefaultFeedTimeout = 15 * time.Second

// Ingester fetches the newest feed items, normalizes them, and upserts them.
type Ingester struct {
	feed        FeedClient
	normalizer  *domain.Normalizer
	writer      RecordWriter
	publisher   Publisher
	feedTimeout time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewIngester wires the ingest path. publisher may be nil to disable
// announcements; a non-positive feedTimeout uses DefaultFeedTimeout.
func NewIngester(feed FeedClient, normalizer *domain.Normalizer, writer RecordWriter, publisher Publisher,
	feedTimeout time.Duration, logger *slog.Logger, metrics *observability.Metrics,
) *Ingester {
	if feedTimeout <= 0 {
		feedTimeout = DefaultFeedTimeout
	}
	return &Ingester{
		feed:        feed,
		normalizer:  normalizer,
		writer:      writer,
		publisher:   publisher,
		feedTimeout: feedTimeout,
		logger:      logger,
		metrics:     metrics,
	}
}

// Ingest pulls up to maxRecords items from the feed and upserts them by code.
// It fails with *domain.FetchError when the feed query fails or times out, and
// with *domain.WriteError when the store rejects any record; in both cases no
// partial result is returned. A non-positive maxRecords uses DefaultMaxRecords.
func (i *Ingester) Ingest(ctx context.Context, maxRecords int) (IngestResult, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}

	raws, err := i.fetch(ctx, maxRecords)
	if err != nil {
		i.metrics.IngestFailures.WithLabelValues(domain.KindFetch).Inc()
		i.logger.Error("feed fetch failed", "error", err)
		return IngestResult{}, err
	}

	events := i.normalizer.NormalizeAll(raws)
	if len(events) == 0 {
		i.logger.Info("feed returned no events")
		return IngestResult{IngestedCount: 0, Items: events}, nil
	}

	if err := i.writer.PutKeyed(ctx, events); err != nil {
		werr := asWriteError(err)
		i.metrics.IngestFailures.WithLabelValues(domain.KindWrite).Inc()
		i.logger.Error("upsert failed", "error", werr, "count", len(events), "failed_keys", werr.FailedKeys)
		return IngestResult{}, werr
	}
	i.metrics.RecordsIngested.Add(float64(len(events)))
	i.logger.Info("ingest complete", "count", len(events))

	i.publish(ctx, events)

	return IngestResult{IngestedCount: len(events), Items: events}, nil
}

func (i *Ingester) fetch(ctx context.Context, limit int) ([]domain.RawAttributes, error) {
	ctx, cancel := context.WithTimeout(ctx, i.feedTimeout)
	defer cancel()

	raws, err := i.feed.Query(ctx, domain.LatestEventsQuery(limit))
	if err != nil {
		var fetchErr *domain.FetchError
		if errors.As(err, &fetchErr) {
			return nil, err
		}
		return nil, &domain.FetchError{Err: err}
	}
	return raws, nil
}

// publish announces stored records. The store has already committed, so a
// failure here is logged and counted rather than returned.
func (i *Ingester) publish(ctx context.Context, events []domain.SeismicEvent) {
	if i.publisher == nil {
		return
	}
	if err := i.publisher.Publish(ctx, events); err != nil {
		i.metrics.PublishErrors.Inc()
		i.logger.Warn("publish failed", "error", err, "count", len(events))
		return
	}
	i.metrics.RecordsPublished.Add(float64(len(events)))
}

func asWriteError(err error) *domain.WriteError {
	var writeErr *domain.WriteError
	if errors.As(err, &writeErr) {
		return writeErr
	}
	return &domain.WriteError{Err: fmt.Errorf("upsert: %w", err)}
}
