package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
)

// maxBatchWrite is the DynamoDB limit on requests per BatchWriteItem call.
const maxBatchWrite = 25

var errUnprocessed = errors.New("store left items unprocessed")

// API is the subset of the DynamoDB client used by Store.
type API interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store persists seismic events in a DynamoDB table keyed by code.
// It implements pipeline.RecordWriter and pipeline.RecordScanner.
type Store struct {
	api     API
	table   string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a DynamoDB client from the default AWS credential chain.
// A non-empty endpoint overrides the service URL (for dynamodb-local).
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var ddbOpts []func(*dynamodb.Options)
	if endpoint != "" {
		ddbOpts = append(ddbOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	return dynamodb.NewFromConfig(cfg, ddbOpts...), nil
}

// NewStore creates a Store over the named table.
func NewStore(api API, table string, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{api: api, table: table, metrics: metrics, logger: logger}
}

// PutKeyed writes every event with PutItem semantics, so an existing item with
// the same code is replaced whole. Duplicate codes within the batch collapse to
// the last occurrence. Requests are sent in chunks of 25; when a chunk fails the
// returned *domain.WriteError lists that chunk's codes plus every chunk not yet
// sent, and items DynamoDB reports as unprocessed are listed by code.
// Unprocessed items are not retried.
func (s *Store) PutKeyed(ctx context.Context, events []domain.SeismicEvent) error {
	events = dedupeByCode(events)
	if len(events) == 0 {
		return nil
	}

	chunks := chunk(events, maxBatchWrite)
	var failed []string
	for i, c := range chunks {
		unprocessed, err := s.writeChunk(ctx, c)
		if err != nil {
			for _, rest := range chunks[i:] {
				failed = append(failed, codesOf(rest)...)
			}
			s.metrics.WriteFailedKeys.Add(float64(len(failed)))
			return &domain.WriteError{FailedKeys: failed, Err: err}
		}
		failed = append(failed, unprocessed...)
	}

	if len(failed) > 0 {
		s.metrics.WriteFailedKeys.Add(float64(len(failed)))
		return &domain.WriteError{FailedKeys: failed, Err: errUnprocessed}
	}
	s.logger.Debug("records written", "table", s.table, "count", len(events))
	return nil
}

// ScanBounded reads at most limit items in a single Scan page. The page comes
// back in table order, which is unrelated to event time.
func (s *Store) ScanBounded(ctx context.Context, limit int) ([]domain.SeismicEvent, error) {
	start := time.Now()
	defer func() { s.metrics.ScanDuration.Observe(time.Since(start).Seconds()) }()

	out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Limit:     aws.Int32(clampInt32(limit)),
	})
	if err != nil {
		return nil, &domain.ScanError{Err: fmt.Errorf("scan: %w", err)}
	}

	events := make([]domain.SeismicEvent, 0, len(out.Items))
	for _, item := range out.Items {
		e, err := unmarshalItem(item)
		if err != nil {
			return nil, &domain.ScanError{Err: fmt.Errorf("decode item: %w", err)}
		}
		events = append(events, e)
	}
	return events, nil
}

// CheckReadiness reports whether the table is reachable.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if _, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)}); err != nil {
		return fmt.Errorf("describe table %s: %w", s.table, err)
	}
	return nil
}

// dedupeByCode keeps one event per code: the last one, at the position of the first.
func dedupeByCode(events []domain.SeismicEvent) []domain.SeismicEvent {
	index := make(map[string]int, len(events))
	out := make([]domain.SeismicEvent, 0, len(events))
	for _, e := range events {
		if i, ok := index[e.Code]; ok {
			out[i] = e
			continue
		}
		index[e.Code] = len(out)
		out = append(out, e)
	}
	return out
}

func chunk(events []domain.SeismicEvent, size int) [][]domain.SeismicEvent {
	var chunks [][]domain.SeismicEvent
	for size < len(events) {
		events, chunks = events[size:], append(chunks, events[:size:size])
	}
	return append(chunks, events)
}

// writeChunk sends one BatchWriteItem call and returns the codes DynamoDB
// left unprocessed.
func (s *Store) writeChunk(ctx context.Context, events []domain.SeismicEvent) ([]string, error) {
	reqs := make([]types.WriteRequest, len(events))
	for i := range events {
		av, err := marshalItem(events[i])
		if err != nil {
			return nil, err
		}
		reqs[i] = types.WriteRequest{PutRequest: &types.PutRequest{Item: av}}
	}

	out, err := s.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{s.table: reqs},
	})
	if err != nil {
		return nil, fmt.Errorf("batch write item: %w", err)
	}
	if out == nil {
		return nil, nil
	}
	return unprocessedCodes(out.UnprocessedItems[s.table]), nil
}

func codesOf(events []domain.SeismicEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Code
	}
	return out
}

func unprocessedCodes(reqs []types.WriteRequest) []string {
	var out []string
	for _, r := range reqs {
		if r.PutRequest == nil {
			continue
		}
		if code, ok := r.PutRequest.Item[attrCode].(*types.AttributeValueMemberS); ok {
			out = append(out, code.Value)
		}
	}
	return out
}

func clampInt32(n int) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < 1 {
		return 1
	}
	return int32(n)
}
