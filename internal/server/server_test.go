package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aristath/outfitter/internal/database"
	"github.com/aristath/outfitter/internal/modules/outfitcache"
	"github.com/aristath/outfitter/internal/queue"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeQueue struct{}

func (fakeQueue) Stats() queue.Stats { return queue.Stats{Enabled: true, Waiting: 2} }

type fakeCache struct{}

func (fakeCache) Stats() outfitcache.Stats { return outfitcache.Stats{Hits: 5, Misses: 1} }

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func openTestDB(t *testing.T) *database.DB {
	dir := t.TempDir()
	db, err := database.New(database.Config{Path: filepath.Join(dir, "catalog.db"), Name: database.NameCatalog})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func newTestServer(t *testing.T, redis Pinger) *Server {
	s := New(Config{
		Log:       zerolog.Nop(),
		Port:      4000,
		DevMode:   true,
		DataDir:   t.TempDir(),
		Databases: []*database.DB{openTestDB(t)},
		Redis:     redis,
		Queue:     fakeQueue{},
		Cache:     fakeCache{},
		Modules:   []RouteRegistrar{pingModule{}},
	})
	s.systemHandlers.sample = func() (float64, float64) { return 12.5, 40 }
	return s
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		redis  Pinger
		status string
		redisS string
	}{
		{"without redis", nil, "healthy", "disabled"},
		{"redis up", fakePinger{}, "healthy", "ok"},
		{"redis down", fakePinger{err: assert.AnError}, "degraded", "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.redis)

			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.redisS, resp.Redis)
			assert.Equal(t, "ok", resp.Databases[database.NameCatalog])
		})
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	s := newTestServer(t, nil)
	db := s.systemHandlers.deps.Databases[0]
	require.NoError(t, db.Close())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp SystemStatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 12.5, resp.CPUPercent)
	assert.Equal(t, 40.0, resp.MemoryPercent)
	assert.Equal(t, 2, resp.Queue.Waiting)
	assert.Equal(t, int64(5), resp.Cache.Hits)
	require.Len(t, resp.Databases, 1)
	assert.Equal(t, database.NameCatalog, resp.Databases[0].Name)
	assert.Greater(t, resp.Goroutines, 0)
}

func TestModulesMountedUnderAPI(t *testing.T) {
	s := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
