package arcgis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/observability"
)

// Client queries an ArcGIS REST feature layer. It implements pipeline.FeedClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client for the layer query endpoint at baseURL.
// The timeout bounds each request end to end.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Query runs q against the layer and returns each feature's attributes in
// response order. Every failure is returned as a *domain.FetchError.
func (c *Client) Query(ctx context.Context, q domain.FeedQuery) ([]domain.RawAttributes, error) {
	start := time.Now()
	attrs, err := c.doRequest(ctx, c.baseURL+"?"+queryParams(q).Encode())
	c.metrics.FeedDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.FeedRequests.WithLabelValues("error").Inc()
		return nil, &domain.FetchError{Err: err}
	}
	c.metrics.FeedRequests.WithLabelValues("success").Inc()
	c.logger.Debug("feed query complete", "features", len(attrs), "duration", time.Since(start))
	return attrs, nil
}

func queryParams(q domain.FeedQuery) url.Values {
	return url.Values{
		"where":             {q.Where},
		"outFields":         {strings.Join(q.OutFields, ",")},
		"orderByFields":     {q.OrderBy},
		"resultRecordCount": {strconv.Itoa(q.Limit)},
		"returnGeometry":    {strconv.FormatBool(q.ReturnGeometry)},
		"f":                 {"json"},
	}
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.RawAttributes, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("arcgis API error: status %d: %s", resp.StatusCode, body)
	}

	return DecodeResponse(resp.Body)
}

// DecodeResponse reads a layer query response body and returns each feature's
// attributes. Features with null attributes yield empty attribute sets.
func DecodeResponse(r io.Reader) ([]domain.RawAttributes, error) {
	var queryResp response
	if err := json.NewDecoder(r).Decode(&queryResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// ArcGIS reports query failures inside a 200 response.
	if queryResp.Error != nil {
		return nil, fmt.Errorf("arcgis API error: code %d: %s", queryResp.Error.Code, queryResp.Error.Message)
	}

	attrs := make([]domain.RawAttributes, 0, len(queryResp.Features))
	for _, f := range queryResp.Features {
		if f.Attributes == nil {
			attrs = append(attrs, domain.RawAttributes{})
			continue
		}
		attrs = append(attrs, f.Attributes)
	}
	return attrs, nil
}

// ArcGIS REST query response types.

type response struct {
	Features []feature `json:"features"`
	Error    *apiError `json:"error,omitempty"`
}

type feature struct {
	Attributes domain.RawAttributes `json:"attributes"`
}

type apiError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
