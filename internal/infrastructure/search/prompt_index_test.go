package search

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/codex/internal/domain/entity"
)

type recorded struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers like a cluster would for the calls PromptIndex makes.
func fakeES(t *testing.T) (*elasticsearch.Client, func() []recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{Method: r.Method, Path: r.URL.Path, Body: string(b)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"p2"},{"_id":"p1"}]}}`)
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
		default:
			_, _ = io.WriteString(w, `{"acknowledged":true,"result":"created"}`)
		}
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), reqs...)
	}
}

func TestPromptIndex_Roundtrip(t *testing.T) {
	es, calls := fakeES(t)
	x := NewPromptIndex(es, "prompts")
	ctx := t.Context()

	require.NoError(t, x.EnsureIndex(ctx))

	p := &entity.Prompt{ID: "p1", UserID: "u1", Title: "Haiku", Prompt: "write", Tags: []string{"poem"}, CreatedAt: time.Now()}
	require.NoError(t, x.Index(ctx, p))

	ids, err := x.Search(ctx, "u1", "haiku", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2", "p1"}, ids)

	// missing document is fine
	require.NoError(t, x.Delete(ctx, "gone"))
	require.NoError(t, x.DeleteByUser(ctx, "u1"))

	got := calls()
	require.Len(t, got, 6)
	assert.Equal(t, http.MethodHead, got[0].Method)
	assert.Equal(t, http.MethodPut, got[1].Method)
	assert.Contains(t, got[1].Body, `"user_id"`)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[2].Body), &doc))
	assert.Equal(t, "u1", doc["user_id"])
	assert.Equal(t, []any{"poem"}, doc["tags"])

	var search map[string]any
	require.NoError(t, json.Unmarshal([]byte(got[3].Body), &search))
	assert.Contains(t, got[3].Body, `"term":{"user_id":"u1"}`)
	assert.Equal(t, float64(10), search["size"])
	assert.True(t, strings.HasSuffix(got[5].Path, "/_delete_by_query"))
}
