package request

import (
	"fmt"

	"github.com/kailas-cloud/dareg/internal/domain"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed free-text query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
)

// Page is a validated limit/offset window.
type Page struct {
	Limit  int
	Offset int
}

// NewPage normalises pagination parameters. A missing or non-positive limit
// takes defaultLimit and limits above maxLimit are clamped. A missing or
// negative offset is 0.
func NewPage(limit, offset *int, defaultLimit, maxLimit int) Page {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	p := Page{Limit: defaultLimit}
	if limit != nil && *limit > 0 {
		p.Limit = *limit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if offset != nil && *offset > 0 {
		p.Offset = *offset
	}
	return p
}

// Request is a validated cross-entity search.
type Request struct {
	query    string
	filters  value.Value
	schemaID string
	model    string
	page     Page
}

// New validates a search request. filters may be null; falsy documents
// such as {}, [], "", 0 and false are treated as absent.
func New(query string, filters value.Value, schemaID, model string, page Page) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrInvalidRequest, MaxQueryLength)
	}
	if filters.IsZero() {
		filters = value.NullValue()
	}
	if page.Limit <= 0 {
		page.Limit = DefaultLimit
	}
	return Request{query: query, filters: filters, schemaID: schemaID, model: model, page: page}, nil
}

// Query returns the free-text query, possibly empty.
func (r Request) Query() string { return r.query }

// HasQuery reports whether free-text ranking applies.
func (r Request) HasQuery() bool { return r.query != "" }

// Filters returns the raw filter document (null when absent).
func (r Request) Filters() value.Value { return r.filters }

// HasFilters reports whether a filter document was supplied.
func (r Request) HasFilters() bool { return !r.filters.IsNull() }

// SchemaID returns the metadata schema id, or "".
func (r Request) SchemaID() string { return r.schemaID }

// Model returns the requested entity type name, or "" for all types.
func (r Request) Model() string { return r.model }

// Page returns the pagination window.
func (r Request) Page() Page { return r.page }
