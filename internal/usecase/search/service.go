package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/actor"
	"github.com/kailas-cloud/dareg/internal/domain/entity"
	"github.com/kailas-cloud/dareg/internal/domain/schema"
	"github.com/kailas-cloud/dareg/internal/domain/search/catalog"
	"github.com/kailas-cloud/dareg/internal/domain/search/filter"
	"github.com/kailas-cloud/dareg/internal/domain/search/highlight"
	"github.com/kailas-cloud/dareg/internal/domain/search/rank"
	"github.com/kailas-cloud/dareg/internal/domain/search/request"
	"github.com/kailas-cloud/dareg/internal/domain/search/result"
	"github.com/kailas-cloud/dareg/internal/logger"
)

// Skip reasons reported to the Recorder.
const (
	SkipNoTextFields  = "no_text_fields"
	SkipUnknownSchema = "unknown_schema"
)

// DefaultMaxParallel bounds concurrent per-type sub-searches.
const DefaultMaxParallel = 4

var tracer = otel.Tracer("github.com/kailas-cloud/dareg/internal/usecase/search")

// Service runs permission-scoped searches across entity types.
type Service struct {
	registry    Registry
	perms       PermissionOracle
	schemas     SchemaStore
	exec        Executor
	rec         Recorder
	maxParallel int
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.rec = r }
}

// WithMaxParallel bounds concurrent per-type sub-searches.
func WithMaxParallel(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxParallel = n
		}
	}
}

// New creates a search service.
func New(registry Registry, perms PermissionOracle, schemas SchemaStore, exec Executor, opts ...Option) *Service {
	s := &Service{
		registry:    registry,
		perms:       perms,
		schemas:     schemas,
		exec:        exec,
		rec:         nopRecorder{},
		maxParallel: DefaultMaxParallel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// plan is the validated work for one entity type.
type plan struct {
	typ  entity.Type
	pred filter.Predicate
}

// Search resolves candidate types, compiles filters for all of them, then
// runs the per-type sub-searches and paginates the merged results.
// base is the request URL used for next/previous links; it may be nil.
func (s *Service) Search(ctx context.Context, a actor.Actor, req request.Request, base *url.URL) (result.Page, error) {
	types, err := s.candidateTypes(req.Model())
	if err != nil {
		return result.Page{}, err
	}

	sch, err := s.loadSchema(ctx, req.SchemaID())
	if err != nil && !errors.Is(err, domain.ErrUnknownSchema) {
		return result.Page{}, err
	}

	plans, err := s.plan(ctx, types, sch, req)
	if err != nil {
		return result.Page{}, err
	}

	perType := make([][]result.Result, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, p := range plans {
		i, p := i, p
		g.Go(func() error {
			res, err := s.searchType(gctx, a, p, req)
			if err != nil {
				return fmt.Errorf("search %s: %w", p.typ.Name(), err)
			}
			perType[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.Page{}, err //nolint:wrapcheck // already wrapped per type
	}

	var merged []result.Result
	for _, res := range perType {
		merged = append(merged, res...)
	}
	return result.Paginate(merged, req.Page(), base), nil
}

func (s *Service) candidateTypes(model string) ([]entity.Type, error) {
	if model == "" {
		return s.registry.Types(), nil
	}
	t, ok := s.registry.Lookup(model)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModel, model)
	}
	return []entity.Type{t}, nil
}

// loadSchema returns nil with ErrUnknownSchema when id does not resolve.
func (s *Service) loadSchema(ctx context.Context, id string) (*schema.Schema, error) {
	if id == "" {
		return nil, nil
	}
	sch, err := s.schemas.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownSchema, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get schema %s: %w", id, err)
	}
	return &sch, nil
}

// plan applies the per-type skip rules and compiles filters. Any filter
// error aborts the whole request.
func (s *Service) plan(ctx context.Context, types []entity.Type, sch *schema.Schema, req request.Request) ([]plan, error) {
	log := logger.FromContext(ctx)
	plans := make([]plan, 0, len(types))
	for _, t := range types {
		if req.HasQuery() && len(t.TextFields()) == 0 && !req.HasFilters() {
			s.skip(log, t, SkipNoTextFields)
			continue
		}
		if req.SchemaID() != "" && sch == nil {
			s.skip(log, t, SkipUnknownSchema)
			continue
		}

		cat, err := catalog.Allowed(t, sch)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", t.Name(), err)
		}

		pred := filter.MatchAll()
		if req.HasFilters() {
			pred, err = filter.Compile(req.Filters(), cat)
			if err != nil {
				kind := filter.Kind(err)
				s.rec.FilterRejected(kind)
				log.Info("filter rejected",
					zap.String("model", t.Name()), zap.String("kind", kind), zap.Error(err))
				return nil, err //nolint:wrapcheck // message is returned to the client verbatim
			}
		}
		plans = append(plans, plan{typ: t, pred: pred})
	}
	return plans, nil
}

func (s *Service) skip(log *zap.Logger, t entity.Type, reason string) {
	s.rec.Skipped(t.Name(), reason)
	log.Debug("model skipped", zap.String("model", t.Name()), zap.String("reason", reason))
}

func (s *Service) searchType(ctx context.Context, a actor.Actor, p plan, req request.Request) (_ []result.Result, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "search.model", trace.WithAttributes(
		attribute.String("model", p.typ.Name()),
		attribute.Bool("filtered", !p.pred.IsMatchAll()),
		attribute.Bool("ranked", req.HasQuery()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sub-search failed")
		}
		span.End()
	}()

	scope, err := s.perms.ViewableScope(ctx, a, p.typ)
	if err != nil {
		return nil, fmt.Errorf("viewable scope: %w", err)
	}
	if scope.IsEmpty() {
		s.rec.ObserveModel(p.typ.Name(), time.Since(start), 0)
		return nil, nil
	}

	recs, err := s.exec.Execute(ctx, p.typ, scope, p.pred)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	recs = s.withinScope(ctx, p.typ, scope.Contains, recs)

	textFields := p.typ.TextFields()
	if req.HasQuery() && len(textFields) > 0 {
		ranked := rank.Rank(recs, textFields, req.Query())
		recs = make([]entity.Record, len(ranked))
		for i, r := range ranked {
			recs[i] = r.Record
		}
	}

	fields := p.pred.Fields()
	out := make([]result.Result, len(recs))
	for i, r := range recs {
		out[i] = result.Result{
			ID:         r.ID(),
			Text:       r.Text(),
			Highlights: highlight.Collect(r, p.typ, fields, req.Query()),
			Model:      p.typ.Name(),
		}
	}

	span.SetAttributes(attribute.Int("results", len(out)))
	s.rec.ObserveModel(p.typ.Name(), time.Since(start), len(out))
	return out, nil
}

// withinScope drops any record an executor returned outside the scope.
func (s *Service) withinScope(
	ctx context.Context, t entity.Type, contains func(string) bool, recs []entity.Record,
) []entity.Record {
	kept := recs[:0]
	for _, r := range recs {
		if contains(r.ID()) {
			kept = append(kept, r)
			continue
		}
		logger.FromContext(ctx).Warn("executor returned out-of-scope record",
			zap.String("model", t.Name()), zap.String("id", r.ID()))
	}
	return kept
}
