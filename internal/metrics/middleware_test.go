package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/schemas/{id}/metadata-fields", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schemas/42/metadata-fields", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(
		http.MethodGet, "/api/v1/schemas/{id}/metadata-fields", "200"))
	if got < 1 {
		t.Errorf("expected requests_total >= 1 for route pattern, got %f", got)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/search", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "bad":
			w.WriteHeader(http.StatusBadRequest)
		case "boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("{}"))
		}
	})

	tests := []struct {
		query  string
		status string
	}{
		{"", "200"},
		{"?case=bad", "400"},
		{"?case=boom", "500"},
	}

	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/search"+tc.query, http.NoBody)
			r.ServeHTTP(httptest.NewRecorder(), req)

			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, "/search", tc.status)); v < 1 {
				t.Errorf("expected requests_total for status %s >= 1, got %f", tc.status, v)
			}
		})
	}
}

func TestRouteLabel(t *testing.T) {
	if got := routeLabel(""); got != "unknown" {
		t.Errorf("routeLabel(\"\") = %q", got)
	}
	if got := routeLabel("/health"); got != "/health" {
		t.Errorf("routeLabel(/health) = %q", got)
	}
}

func TestSearchRecorder(t *testing.T) {
	var s Search

	s.ObserveModel("Dataset", 3*time.Millisecond, 5)
	s.Skipped("Template", "no_text_fields")
	s.FilterRejected("unknown_field")

	if v := testutil.ToFloat64(searchResultsTotal.WithLabelValues("Dataset")); v < 5 {
		t.Errorf("expected search_results_total >= 5, got %f", v)
	}
	if v := testutil.ToFloat64(searchSkippedTotal.WithLabelValues("Template", "no_text_fields")); v < 1 {
		t.Errorf("expected search_skipped_total >= 1, got %f", v)
	}
	if v := testutil.ToFloat64(filterRejectionsTotal.WithLabelValues("unknown_field")); v < 1 {
		t.Errorf("expected filter_rejections_total >= 1, got %f", v)
	}
}
