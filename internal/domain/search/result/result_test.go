package result

import (
	"math"
	"net/url"
	"testing"

	"github.com/kailas-cloud/dareg/internal/domain/search/request"
)

func results(ids ...string) []Result {
	out := make([]Result, len(ids))
	for i, id := range ids {
		out[i] = Result{ID: id, Text: "r" + id, Model: "Facility"}
	}
	return out
}

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	return u
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

func TestPaginate_SecondOfThree(t *testing.T) {
	base := mustURL(t, "http://api.test/api/v1/search/?limit=1&offset=1")

	page := Paginate(results("1", "2", "3"), request.Page{Limit: 1, Offset: 1}, base)

	if page.Count != 3 {
		t.Errorf("Count = %d", page.Count)
	}
	if len(page.Results) != 1 || page.Results[0].ID != "2" {
		t.Fatalf("Results = %+v", page.Results)
	}
	if got := deref(page.Next); got != "http://api.test/api/v1/search/?limit=1&offset=2" {
		t.Errorf("Next = %s", got)
	}
	if got := deref(page.Previous); got != "http://api.test/api/v1/search/?limit=1" {
		t.Errorf("Previous = %s", got)
	}
}

func TestPaginate_Bounds(t *testing.T) {
	all := results("1", "2", "3")

	first := Paginate(all, request.Page{Limit: 10}, mustURL(t, "http://h/s"))
	if len(first.Results) != 3 || first.Next != nil || first.Previous != nil {
		t.Errorf("first page = %+v", first)
	}

	beyond := Paginate(all, request.Page{Limit: 2, Offset: 5}, mustURL(t, "http://h/s"))
	if len(beyond.Results) != 0 || beyond.Results == nil {
		t.Errorf("beyond end must be an empty, non-nil slice: %+v", beyond.Results)
	}
	if got := deref(beyond.Previous); got != "http://h/s?limit=2&offset=3" {
		t.Errorf("Previous = %s", got)
	}

	noLinks := Paginate(all, request.Page{Limit: 1}, nil)
	if noLinks.Next != nil || len(noLinks.Results) != 1 {
		t.Errorf("nil base = %+v", noLinks)
	}
}

func TestPaginate_HugeOffset(t *testing.T) {
	page := Paginate(results("1"), request.Page{Limit: 100, Offset: math.MaxInt - 5}, mustURL(t, "http://h/api/v1/search/"))

	if page.Next != nil {
		t.Errorf("Next = %s, want nil", *page.Next)
	}
	if len(page.Results) != 0 {
		t.Errorf("Results = %+v", page.Results)
	}
	if page.Previous == nil {
		t.Error("Previous = nil, want a link back")
	}
}
