package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/search/request"
	"github.com/kailas-cloud/dareg/internal/domain/search/result"
	"github.com/kailas-cloud/dareg/internal/domain/value"
	healthuc "github.com/kailas-cloud/dareg/internal/usecase/health"
	schemauc "github.com/kailas-cloud/dareg/internal/usecase/schema"
)

// maxBodyBytes bounds the search request body.
const maxBodyBytes = 1 << 20

// Searcher runs cross-entity searches.
type Searcher interface {
	Search(ctx context.Context, a actor.Actor, req request.Request, base *url.URL) (result.Page, error)
}

// FieldLister lists the filterable metadata paths of a schema.
type FieldLister interface {
	MetadataFields(ctx context.Context, a actor.Actor, id string) (schemauc.Fields, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the search API.
type Server struct {
	search        Searcher
	schemas       FieldLister
	health        HealthChecker
	logger        *zap.Logger
	defaultLimit  int
	maxLimit      int
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithPageLimits sets the default and maximum page size.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return func(s *Server) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, schemas FieldLister, health HealthChecker, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:       search,
		schemas:      schemas,
		health:       health,
		logger:       logger,
		defaultLimit: request.DefaultLimit,
		maxLimit:     request.MaxLimit,
	}
	for _, o := range opts {
		o(s)
	}
	// Client errors echo the error text; filter messages are meant for the caller.
	s.errorHandlers = []errorHandler{
		verbatimHandler(domain.ErrInvalidFilter, http.StatusBadRequest),
		verbatimHandler(domain.ErrInvalidRequest, http.StatusBadRequest),
		verbatimHandler(domain.ErrUnknownModel, http.StatusBadRequest),
		verbatimHandler(domain.ErrInvalidSchema, http.StatusBadRequest),
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized),
		sentinelHandler(domain.ErrPermissionDenied, http.StatusForbidden),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
	}
	return s
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search/", s.Search)
		r.Post("/search", s.Search)
		r.Get("/schemas/{id}/metadata-fields", s.MetadataFields)
	})
}

type searchBody struct {
	Query   string      `json:"q"`
	Filters value.Value `json:"filters"`
	Schema  value.Value `json:"schema"`
	Model   string      `json:"model"`
}

// Search handles POST /api/v1/search/.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := request.NewPage(intParam(q, "limit"), intParam(q, "offset"), s.defaultLimit, s.maxLimit)

	var body searchBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	schemaID, err := schemaRef(body.Schema)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := request.New(body.Query, body.Filters, schemaID, body.Model, page)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), requestActor(r), req, absoluteURL(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if resp.Results == nil {
		resp.Results = []result.Result{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// MetadataFields handles GET /api/v1/schemas/{id}/metadata-fields.
func (s *Server) MetadataFields(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, err := s.schemas.MetadataFields(r.Context(), requestActor(r), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fields)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// schemaRef accepts a schema id given as a string or an integer.
func schemaRef(v value.Value) (string, error) {
	switch v.Kind() {
	case value.Null:
		return "", nil
	case value.String, value.Integer:
		return v.Text(), nil
	default:
		return "", fmt.Errorf("%w: schema must be a string or integer id, got %s", domain.ErrInvalidRequest, v.TypeName())
	}
}

func requestActor(r *http.Request) actor.Actor {
	a, _ := actor.FromContext(r.Context())
	return a
}

// absoluteURL rebuilds the request URL for pagination links.
func absoluteURL(r *http.Request) *url.URL {
	u := *r.URL
	u.Host = r.Host
	u.Scheme = "http"
	if r.TLS != nil {
		u.Scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		u.Scheme = proto
	}
	return &u
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// verbatimHandler maps sentinel to status and returns the full error text.
func verbatimHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, clientMessage(err))
		return true
	}
}

// sentinelHandler maps sentinel to status and returns only the sentinel text.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, sentinel.Error())
		return true
	}
}

// clientMessage drops outer wrapping, keeping the innermost error that
// still describes the problem rather than the bare sentinel.
func clientMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil || !isClientError(next) {
			return err.Error()
		}
		err = next
	}
}

func isClientError(err error) bool {
	for _, s := range []error{
		domain.ErrInvalidFilter, domain.ErrInvalidRequest, domain.ErrUnknownModel, domain.ErrInvalidSchema,
	} {
		if errors.Is(err, s) && !errors.Is(s, err) {
			return true
		}
	}
	return false
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Info("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// intParam binds an optional integer query parameter. Malformed values are
// treated as absent so pagination falls back to its defaults.
func intParam(q url.Values, name string) *int {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, q, &v); err != nil {
		return nil
	}
	return v
}
