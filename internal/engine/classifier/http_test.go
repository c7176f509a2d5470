package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-engine/internal/common/logger"
	"intent-engine/internal/models"
)

func TestHTTPClassifier_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/classify", r.URL.Path)
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "what about tecfil", in["question"])
		assert.Equal(t, "full", in["scope"])
		assert.Equal(t, "last_tool: stock", in["summary"])
		assert.Contains(t, in["prompt"], "Question: what about tecfil")
		_, _ = w.Write([]byte(`{"intent": "stock", "brand": "TECFIL"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL+"/", time.Second, logger.NewTestLogger(t))
	res, err := c.Classify(context.Background(), Request{Question: "what about tecfil", Summary: "last_tool: stock", Scope: ScopeFull})
	require.NoError(t, err)
	assert.Equal(t, models.IntentStock, res.Intent)
	brand, _ := res.Params.Get(models.FieldBrand)
	assert.Equal(t, "TECFIL", brand)
}

func TestHTTPClassifier_TextEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text": "{\"filter\": [{\"field\": \"invoice\", \"op\": \"empty\"}]}"}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(srv.URL, time.Second, logger.NewTestLogger(t))
	res, err := c.Classify(context.Background(), Request{Question: "without invoice", Scope: ScopeFilters, Intent: models.IntentPendingPurchases})
	require.NoError(t, err)
	assert.True(t, res.Filters.Has("invoice", models.OpEmpty))
}

func TestHTTPClassifier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		timeout time.Duration
		want    error
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			timeout: time.Second,
			want:    ErrUnavailable,
		},
		{
			name:    "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) { time.Sleep(200 * time.Millisecond) },
			timeout: 20 * time.Millisecond,
			want:    ErrTimeout,
		},
		{
			name:    "malformed",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("not json at all")) },
			timeout: time.Second,
			want:    ErrMalformed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTPClassifier(srv.URL, tt.timeout, logger.NewTestLogger(t))
			_, err := c.Classify(context.Background(), Request{Question: "x", Scope: ScopeFull})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPClassifier_Available(t *testing.T) {
	var healthCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			healthCalls.Add(1)
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewHTTPClassifier(srv.URL, time.Second, logger.NewTestLogger(t))
	c.now = func() time.Time { return now }

	assert.True(t, c.Available(context.Background()))
	assert.True(t, c.Available(context.Background()))
	assert.Equal(t, int32(1), healthCalls.Load(), "a fresh answer is reused")

	srv.Close()
	assert.True(t, c.Available(context.Background()), "still within the health ttl")

	now = now.Add(healthTTL)
	assert.False(t, c.Available(context.Background()))

	assert.False(t, NewHTTPClassifier("", time.Second, logger.NewTestLogger(t)).Available(context.Background()))
}

func TestHTTPClassifier_ClassifyOutcomeUpdatesHealth(t *testing.T) {
	var healthCalls atomic.Int32
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/health":
			healthCalls.Add(1)
			w.WriteHeader(http.StatusOK)
		case fail.Load():
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"intent": "sales"}`))
		}
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewHTTPClassifier(srv.URL, time.Second, logger.NewTestLogger(t))
	c.now = func() time.Time { return now }

	_, err := c.Classify(context.Background(), Request{Question: "sales", Scope: ScopeFull})
	require.NoError(t, err)
	assert.True(t, c.Available(context.Background()))
	assert.Zero(t, healthCalls.Load(), "a successful call counts as a health answer")

	fail.Store(true)
	_, err = c.Classify(context.Background(), Request{Question: "sales", Scope: ScopeFull})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, c.Available(context.Background()))
	assert.Zero(t, healthCalls.Load())

	now = now.Add(healthTTL + time.Second)
	assert.True(t, c.Available(context.Background()))
	assert.Equal(t, int32(1), healthCalls.Load())
}
