package api

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/cinego/internal/catalog"
	"github.com/vmunix/cinego/internal/gateway"
	"github.com/vmunix/cinego/internal/gateway/mocks"
	"github.com/vmunix/cinego/internal/ratelimit"
	"github.com/vmunix/cinego/pkg/omdb"
)

//go:embed testdata/schema.sql
var testSchema string

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires a real store and gateway over a mocked provider.
type testEnv struct {
	store    *catalog.Store
	provider *mocks.MockProvider
	mux      *http.ServeMux
}

func setupEnv(t *testing.T, maxRequests int) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open db")
	// Each pooled connection would get its own in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err, "apply schema")

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	store := catalog.NewStore(db)
	gw := gateway.New(store, provider, gateway.Config{}, testLogger())
	limiter := ratelimit.New(time.Minute, maxRequests)

	srv := New(gw, store, limiter, Config{Version: "test"}, testLogger())
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	return &testEnv{store: store, provider: provider, mux: mux}
}

func (e *testEnv) get(path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func TestSearch_MissingQuery(t *testing.T) {
	env := setupEnv(t, 100)

	// Absent and blank both fail validation; the provider is never used.
	for _, path := range []string{"/search", "/search?query=", "/search?query=%20%20"} {
		w := env.get(path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
		assert.Equal(t, "Query parameter is required", decodeError(t, w))
	}
}

func TestSearch_NotFound(t *testing.T) {
	env := setupEnv(t, 100)

	env.provider.EXPECT().
		Search(gomock.Any(), "xyzzy").
		Return(nil, &omdb.NoResultsError{Message: "Movie not found!"})

	w := env.get("/search?query=xyzzy", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Movie not found!", decodeError(t, w))

	n, err := env.store.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n, "no store writes on the not-found path")
}

func TestSearch_MissFetchesAndReturns(t *testing.T) {
	env := setupEnv(t, 100)

	env.provider.EXPECT().
		Search(gomock.Any(), "batman").
		Return([]omdb.SearchResult{{IMDBID: "tt0372784", Title: "Batman Begins"}}, nil)
	env.provider.EXPECT().
		Detail(gomock.Any(), "tt0372784").
		Return(&omdb.Movie{
			Title:    "Batman Begins",
			Year:     "2005",
			Genre:    "Action, Crime, Drama",
			Plot:     "A young Bruce Wayne...",
			Director: "Christopher Nolan",
			Poster:   "https://example.com/p.jpg",
			Rating:   "8.2",
			IMDBID:   "tt0372784",
			Response: "True",
		}, nil)

	w := env.get("/search?query=batman", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Wire field names match the original gateway's JSON contract.
	var records []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "tt0372784", records[0]["imdbID"])
	assert.Equal(t, "Batman Begins", records[0]["title"])
	assert.Equal(t, "2005", records[0]["year"])
	assert.Equal(t, "8.2", records[0]["imdbRating"])
	assert.Equal(t, "Christopher Nolan", records[0]["director"])
}

func TestSearch_CacheHit(t *testing.T) {
	env := setupEnv(t, 100)

	require.NoError(t, env.store.Upsert(t.Context(),
		&catalog.Movie{IMDBID: "tt0372784", Title: "Batman Begins"}))

	// No provider expectations: a stored match must never reach it.
	w := env.get("/search?query=batman", "")
	require.Equal(t, http.StatusOK, w.Code)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestSearch_ProviderDown(t *testing.T) {
	env := setupEnv(t, 100)

	env.provider.EXPECT().
		Search(gomock.Any(), "batman").
		Return(nil, &omdb.TransientError{Err: errors.New("connection refused")})

	w := env.get("/search?query=batman", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, w))
}

func TestSearch_PartialEnrichmentFailure(t *testing.T) {
	env := setupEnv(t, 100)

	env.provider.EXPECT().Search(gomock.Any(), "trilogy").Return([]omdb.SearchResult{
		{IMDBID: "tt0000001"}, {IMDBID: "tt0000002"}, {IMDBID: "tt0000003"},
	}, nil)
	env.provider.EXPECT().Detail(gomock.Any(), "tt0000001").
		Return(&omdb.Movie{IMDBID: "tt0000001", Title: "Part One", Response: "True"}, nil)
	env.provider.EXPECT().Detail(gomock.Any(), "tt0000002").
		Return(nil, &omdb.TransientError{Err: errors.New("boom")})
	env.provider.EXPECT().Detail(gomock.Any(), "tt0000003").
		Return(&omdb.Movie{IMDBID: "tt0000003", Title: "Part Three", Response: "True"}, nil)

	w := env.get("/search?query=trilogy", "")
	require.Equal(t, http.StatusOK, w.Code)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 2, "failing candidate is omitted, not fatal")
	assert.Equal(t, "tt0000001", records[0]["imdbID"])
	assert.Equal(t, "tt0000003", records[1]["imdbID"])
}

func TestSearch_RateLimited(t *testing.T) {
	env := setupEnv(t, 5)

	require.NoError(t, env.store.Upsert(t.Context(),
		&catalog.Movie{IMDBID: "tt0372784", Title: "Batman Begins"}))

	for i := 0; i < 5; i++ {
		w := env.get("/search?query=batman", "198.51.100.7:4242")
		require.Equal(t, http.StatusOK, w.Code, "request %d within the window", i+1)
	}

	w := env.get("/search?query=batman", "198.51.100.7:4242")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests, please try again later.", decodeError(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// A different caller is unaffected.
	w = env.get("/search?query=batman", "203.0.113.9:4242")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_OnlyAppliesToSearch(t *testing.T) {
	env := setupEnv(t, 1)

	// Admission happens before validation, so this consumes the window.
	require.Equal(t, http.StatusBadRequest, env.get("/search?query=", "198.51.100.7:1").Code)
	require.Equal(t, http.StatusTooManyRequests, env.get("/search?query=", "198.51.100.7:1").Code)

	for i := 0; i < 5; i++ {
		w := env.get("/api/movies", "198.51.100.7:1")
		assert.Equal(t, http.StatusOK, w.Code, "listing is not rate limited")
	}
}

func TestListMovies(t *testing.T) {
	env := setupEnv(t, 100)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.store.Upsert(t.Context(), &catalog.Movie{
			IMDBID: fmt.Sprintf("tt%07d", i),
			Title:  fmt.Sprintf("Movie %d", i),
		}))
	}

	w := env.get("/api/movies?limit=2&offset=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Movies []map[string]string `json:"movies"`
		Total  int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Movies, 2)
	assert.Equal(t, "Movie 1", body.Movies[0]["title"])
}

func TestGetStatus(t *testing.T) {
	env := setupEnv(t, 100)

	require.NoError(t, env.store.Upsert(t.Context(),
		&catalog.Movie{IMDBID: "tt0372784", Title: "Batman Begins"}))

	w := env.get("/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Movies  int64  `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.EqualValues(t, 1, body.Movies)
}

func TestCORS(t *testing.T) {
	env := setupEnv(t, 100)

	handler := CORS(env.mux)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/search", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
