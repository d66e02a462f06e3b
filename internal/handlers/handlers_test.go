package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/handlers"
	"dashboard-cache/internal/store/memory"
)

// MockHealth stands in for a store health check
type MockHealth struct {
	mock.Mock
}

func (m *MockHealth) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type fixture struct {
	cache  *cache.Cache
	clock  *clock.Mock
	router *mux.Router
}

func newFixture(t *testing.T, health handlers.HealthChecker, mutate func(*cache.Config)) *fixture {
	t.Helper()
	mc := clock.NewMock()
	mc.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	cfg := cache.DefaultConfig()
	cfg.Clock = mc
	cfg.Logger = logging.NewNopLogger()
	if mutate != nil {
		mutate(&cfg)
	}
	c := cache.New(memory.New(memory.Config{}), cfg)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashcache_hits_total 0\n"))
	})

	router := mux.NewRouter()
	handlers.New(c, health, metrics, logging.NewNopLogger()).Register(router)
	return &fixture{cache: c, clock: mc, router: router}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthCheck(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		h := new(MockHealth)
		h.On("Health", mock.Anything).Return(nil)
		f := newFixture(t, h, nil)

		rr := f.do("GET", "/health", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "healthy", decode(t, rr)["status"])
		h.AssertExpectations(t)
	})

	t.Run("Unhealthy", func(t *testing.T) {
		h := new(MockHealth)
		h.On("Health", mock.Anything).Return(errors.ConnectionError("redis unreachable", nil))
		f := newFixture(t, h, nil)

		rr := f.do("GET", "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "unhealthy", body["store_status"])
		assert.Contains(t, body["error"], "redis unreachable")
	})

	t.Run("NoChecker", func(t *testing.T) {
		f := newFixture(t, nil, nil)
		assert.Equal(t, http.StatusOK, f.do("GET", "/health", "").Code)
	})
}

func TestPutAndGetEntry(t *testing.T) {
	f := newFixture(t, nil, nil)

	rr := f.do("PUT", "/api/cache/projects?ttl=30s", `[{"id":"p1"}]`)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do("GET", "/api/cache/projects", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"id":"p1"}]`, rr.Body.String())

	f.clock.Add(time.Minute)
	assert.Equal(t, http.StatusOK, f.do("GET", "/api/cache/projects?stale=true", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/api/cache/projects", "").Code)
}

func TestPutEntry_Validation(t *testing.T) {
	f := newFixture(t, nil, func(cfg *cache.Config) {
		cfg.MaxEntrySize = 128
	})

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"invalid json", "/api/cache/k", `{"broken"`, http.StatusBadRequest},
		{"invalid ttl", "/api/cache/k?ttl=later", `1`, http.StatusBadRequest},
		{"negative ttl", "/api/cache/k?ttl=-5s", `1`, http.StatusBadRequest},
		{"body over limit", "/api/cache/k", `"` + strings.Repeat("x", 200) + `"`, http.StatusRequestEntityTooLarge},
		{"envelope over limit", "/api/cache/k", `"` + strings.Repeat("x", 100) + `"`, http.StatusRequestEntityTooLarge},
		{"fits", "/api/cache/k", `"small"`, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, f.do("PUT", tt.target, tt.body).Code)
		})
	}
}

func TestDeleteEntry(t *testing.T) {
	f := newFixture(t, nil, nil)
	require.True(t, f.cache.Set(context.Background(), "k", 1, cache.Options{}))

	assert.Equal(t, http.StatusNoContent, f.do("DELETE", "/api/cache/k", "").Code)
	assert.False(t, f.cache.Has(context.Background(), "k", cache.Options{}))
}

func TestGetEntryAge(t *testing.T) {
	f := newFixture(t, nil, nil)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/api/cache/k/age", "").Code)

	require.True(t, f.cache.Set(context.Background(), "k", 1, cache.Options{}))
	f.clock.Add(90 * time.Second)

	rr := f.do("GET", "/api/cache/k/age", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "1m30s", body["age"])
	assert.Equal(t, float64(90000), body["age_ms"])
}

func TestClearCache(t *testing.T) {
	f := newFixture(t, nil, func(cfg *cache.Config) {
		cfg.CriticalKeys = []string{"session"}
	})
	ctx := context.Background()
	require.True(t, f.cache.Set(ctx, "a", 1, cache.Options{}))
	require.True(t, f.cache.Set(ctx, "session", 2, cache.Options{}))

	rr := f.do("POST", "/api/cache/clear", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["removed"])
	assert.True(t, f.cache.Has(ctx, "session", cache.Options{}))
}

func TestCleanupCache(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	require.True(t, f.cache.Set(ctx, "old", 1, cache.Options{TTL: time.Second}))
	require.True(t, f.cache.Set(ctx, "new", 2, cache.Options{TTL: time.Hour}))
	f.clock.Add(time.Minute)

	rr := f.do("POST", "/api/cache/cleanup", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), decode(t, rr)["expired"])

	assert.Equal(t, http.StatusBadRequest, f.do("POST", "/api/cache/cleanup?target=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do("POST", "/api/cache/cleanup?target=lots", "").Code)
}

func TestGetStats(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx := context.Background()
	require.True(t, f.cache.Set(ctx, "a", 1, cache.Options{}))
	f.cache.Has(ctx, "a", cache.Options{})

	rr := f.do("GET", "/api/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)

	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["hits"])
	assert.Equal(t, float64(1), stats["writes"])
	assert.Equal(t, "dashcache:", body["prefix"])
	assert.Greater(t, body["total_size"], float64(0))
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, nil, nil)
	rr := f.do("GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "dashcache_hits_total")
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, f.do("PATCH", "/api/cache/k", "{}").Code)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/nope", "").Code)
}
