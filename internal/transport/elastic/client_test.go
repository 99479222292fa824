package elastic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/finquery/internal/domain/query"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Addresses: []string{srv.URL}, Index: "stocks"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, srv
}

func TestSearch_SendsBodyAndParsesHits(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"hits": {"hits": [
				{"_score": 2.5, "_source": {"name": "Acme Corp", "currency": "EUR"}},
				{"_score": 1.1, "_source": {"name": "Globex", "currency": "EUR"}}
			]}
		}`))
	})

	p, err := query.NewTerm("currency", "EUR")
	if err != nil {
		t.Fatalf("NewTerm: %v", err)
	}
	clause, err := query.NewBoolClause(nil, nil, nil, []query.Predicate{p})
	if err != nil {
		t.Fatalf("NewBoolClause: %v", err)
	}

	hits, err := c.Search(context.Background(), query.New(clause))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/stocks/_search" {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if _, ok := gotBody["query"]; !ok {
		t.Errorf("request body missing query: %v", gotBody)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Score != 2.5 || hits[0].Fields["name"] != "Acme Corp" {
		t.Errorf("unexpected first hit: %+v", hits[0])
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "parsing_exception"}}`))
	})

	if _, err := c.Search(context.Background(), query.MatchAll()); err == nil {
		t.Error("expected error for 400 response")
	}
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}

	down, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("expected ping error for 503")
	}
}
