package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/couchcryptid/seismic-data-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxLimit caps the limit query parameter on both operations.
const maxLimit = 1000

// Ingester runs one ingest.
type Ingester interface {
	Ingest(ctx context.Context, maxRecords int) (pipeline.IngestResult, error)
}

// Lister serves the most recent records.
type Lister interface {
	List(ctx context.Context, topN int) (pipeline.ListResult, error)
}

// Limits are the record counts used when a request carries no limit
// parameter. Zero leaves the choice to the pipeline.
type Limits struct {
	Ingest int
	List   int
}

// Server exposes the ingest and list operations alongside health, readiness,
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	ingester   Ingester
	lister     Lister
	limits     Limits
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /igp/sismos routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, ingester Ingester, lister Lister, limits Limits, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ingester: ingester,
		lister:   lister,
		limits:   limits,
		logger:   logger,
	}

	mux.HandleFunc("GET /igp/sismos/ingestar", s.handleIngest)
	mux.HandleFunc("GET /igp/sismos/listar", s.handleList)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, s.limits.Ingest)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}

	res, err := s.ingester.Ingest(r.Context(), limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, s.limits.List)
	if err != nil {
		writeError(w, http.StatusBadRequest, err, "")
		return
	}

	res, err := s.lister.List(r.Context(), limit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseLimit reads the optional limit parameter, falling back to def.
func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxLimit {
		return 0, errInvalidLimit
	}
	return n, nil
}

var errInvalidLimit = errors.New("limit must be an integer between 1 and " + strconv.Itoa(maxLimit))

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.ErrorKind(err)
	status := statusFor(kind, err)
	s.logger.Error("request failed", "path", r.URL.Path, "kind", kind, "status", status, "error", err)
	writeError(w, status, err, kind)
}

func statusFor(kind string, err error) int {
	switch kind {
	case domain.KindFetch:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case domain.KindWrite:
		return http.StatusBadGateway
	case domain.KindScan:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error      string   `json:"error"`
	Kind       string   `json:"kind,omitempty"`
	FailedKeys []string `json:"failed_keys,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error, kind string) {
	writeJSON(w, status, errorBody{
		Error:      err.Error(),
		Kind:       kind,
		FailedKeys: domain.FailedKeys(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
