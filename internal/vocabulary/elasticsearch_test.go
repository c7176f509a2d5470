package vocabulary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "intent-engine/internal/common/errors"
)

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestElasticsearchLoader_Load(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/purchase-orders/_search", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 0, body["size"])
		aggs := body["aggs"].(map[string]interface{})
		assert.Contains(t, aggs, "brands")
		assert.Contains(t, aggs, "buyers")
		assert.NotContains(t, aggs, "branches")

		_, _ = w.Write([]byte(`{
			"hits": {"total": {"value": 0}, "hits": []},
			"aggregations": {
				"brands": {"buckets": [{"key": "TECFIL", "doc_count": 9}, {"key": "DONALDSON", "doc_count": 4}]},
				"buyers": {"buckets": [{"key": "Maria Souza", "doc_count": 3}]}
			}
		}`))
	})

	snap, err := NewElasticsearchLoader(es, "purchase-orders", "brand.keyword", "", "buyer.keyword", 100).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"DONALDSON", "TECFIL"}, snap.Brands)
	assert.Empty(t, snap.Branches)
	assert.Equal(t, []string{"Maria Souza"}, snap.Buyers)
	assert.Equal(t, "elasticsearch", snap.Source)
}

func TestElasticsearchLoader_ErrorStatus(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"type": "index_not_found_exception"}, "status": 404}`))
	})

	_, err := NewElasticsearchLoader(es, "missing", "brand", "branch", "buyer", 0).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrVocabularyLoadFailed))
}
