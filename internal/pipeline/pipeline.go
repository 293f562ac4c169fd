package pipeline

import (
	"context"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
)

// FeedClient queries the upstream feed.
type FeedClient interface {
	Query(ctx context.Context, q domain.FeedQuery) ([]domain.RawAttributes, error)
}

// RecordWriter upserts records keyed by code.
type RecordWriter interface {
	PutKeyed(ctx context.Context, events []domain.SeismicEvent) error
}

// RecordScanner reads one bounded, unordered page of records.
type RecordScanner interface {
	ScanBounded(ctx context.Context, limit int) ([]domain.SeismicEvent, error)
}

// Publisher announces records after they are stored.
type Publisher interface {
	Publish(ctx context.Context, events []domain.SeismicEvent) error
}

// IngestResult is the outcome of one successful ingest.
type IngestResult struct {
	IngestedCount int                   `json:"ingresados"`
	Items         []domain.SeismicEvent `json:"items"`
}

// ListResult is the outcome of one successful list.
type ListResult struct {
	Count int                   `json:"count"`
	Items []domain.SeismicEvent `json:"items"`
}
