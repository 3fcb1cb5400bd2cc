package result

import (
	"net/url"
	"strconv"

	"github.com/kailas-cloud/dareg/internal/domain/search/request"
	"github.com/kailas-cloud/dareg/internal/domain/value"
)

// Result is one matched record in the response envelope.
type Result struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Highlights *value.Map `json:"highlights"`
	Model      string     `json:"model"`
}

// Page is the paginated response envelope.
type Page struct {
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Count    int      `json:"count"`
	Results  []Result `json:"results"`
}

// Paginate cuts the merged result list to the requested window and builds
// next/previous links from base. A nil base produces no links.
func Paginate(all []Result, p request.Page, base *url.URL) Page {
	count := len(all)
	start := min(p.Offset, count)
	end := min(start+p.Limit, count)

	page := Page{Count: count, Results: all[start:end]}
	if page.Results == nil {
		page.Results = []Result{}
	}
	if base == nil {
		return page
	}

	if p.Offset < count-p.Limit {
		page.Next = link(base, p.Limit, p.Offset+p.Limit)
	}
	if p.Offset > 0 {
		page.Previous = link(base, p.Limit, max(p.Offset-p.Limit, 0))
	}
	return page
}

// link sets limit and offset on base; a zero offset is dropped.
func link(base *url.URL, limit, offset int) *string {
	u := *base
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	} else {
		q.Del("offset")
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
