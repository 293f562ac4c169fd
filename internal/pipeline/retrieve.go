package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
)

// DefaultScanLimit is the scan page size: five times the default list size,
// since the page arrives unordered.
const DefaultScanLimit = 5 * domain.DefaultTopN

// Retriever serves the most recent stored records.
type Retriever struct {
	scanner  RecordScanner
	pageSize int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewRetriever creates a Retriever that scans pageSize records per call.
// A non-positive pageSize uses DefaultScanLimit.
func NewRetriever(scanner RecordScanner, pageSize int, logger *slog.Logger, metrics *observability.Metrics) *Retriever {
	if pageSize <= 0 {
		pageSize = DefaultScanLimit
	}
	return &Retriever{scanner: scanner, pageSize: pageSize, logger: logger, metrics: metrics}
}

// List returns the topN most recent records of one scanned page, newest
// first. The store is not ordered by event time, so when it holds more records
// than one page the result is the top of that page, not of the whole table.
// A non-positive topN uses domain.DefaultTopN.
func (r *Retriever) List(ctx context.Context, topN int) (ListResult, error) {
	if topN <= 0 {
		topN = domain.DefaultTopN
	}

	page, err := r.scanner.ScanBounded(ctx, max(r.pageSize, topN))
	if err != nil {
		r.metrics.ListRequests.WithLabelValues("error").Inc()
		r.logger.Error("scan failed", "error", err)
		var scanErr *domain.ScanError
		if errors.As(err, &scanErr) {
			return ListResult{}, err
		}
		return ListResult{}, &domain.ScanError{Err: err}
	}

	top := domain.TopN(page, topN)
	if top == nil {
		top = []domain.SeismicEvent{}
	}
	r.metrics.ListRequests.WithLabelValues("success").Inc()
	r.logger.Debug("list served", "scanned", len(page), "count", len(top))
	return ListResult{Count: len(top), Items: top}, nil
}
