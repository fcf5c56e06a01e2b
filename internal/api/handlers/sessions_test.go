package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/streambuf/pkg/accumulator"
)

func newTestRouter(t *testing.T, withSweeper bool) (http.Handler, *accumulator.Registry) {
	t.Helper()

	reg := accumulator.NewRegistry(accumulator.Config{
		DefaultSessionTimeout: time.Minute,
		MaxContentLength:      64,
		BufferPoolSize:        4,
		BufferInitialCapacity: 16,
	})

	var sweeper Sweeper
	if withSweeper {
		sweeper = accumulator.NewEvictor(reg, time.Minute)
	}
	h := NewSessionHandler(reg, sweeper)

	r := chi.NewRouter()
	r.Get("/api/v1/stats", h.Stats)
	r.Post("/api/v1/sweep", h.Sweep)
	r.Get("/api/v1/users/{userID}/sessions/{sessionID}", h.Get)
	r.Delete("/api/v1/users/{userID}/sessions/{sessionID}", h.Delete)
	r.Delete("/api/v1/users/{userID}/sessions", h.DeleteAll)
	return r, reg
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestSessionHandler_Stats(t *testing.T) {
	router, reg := newTestRouter(t, true)
	require.True(t, reg.Init(1, 10))
	require.True(t, reg.Append(1, 10, "abc", accumulator.ChannelReply))

	w := serve(router, http.MethodGet, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats accumulator.Stats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.ActiveUsers)
	assert.Equal(t, int64(1), stats.ActiveSessions)
	assert.Equal(t, uint64(1), stats.Appends)
	assert.Equal(t, 64, stats.MaxContentLength)
}

func TestSessionHandler_Get(t *testing.T) {
	router, reg := newTestRouter(t, true)
	require.True(t, reg.Init(1, 10))
	require.True(t, reg.Append(1, 10, "think", accumulator.ChannelThinking))
	require.True(t, reg.Append(1, 10, "hi", accumulator.ChannelReply))

	t.Run("found", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/users/1/sessions/10")
		require.Equal(t, http.StatusOK, w.Code)

		var info accumulator.SessionInfo
		require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
		assert.Equal(t, int64(1), info.UserID)
		assert.Equal(t, int64(10), info.SessionID)
		assert.Equal(t, 5, info.ThinkingLength)
		assert.Equal(t, 2, info.ReplyLength)

		// Inspecting must not finalize the session.
		assert.True(t, reg.Exists(1, 10))
	})

	t.Run("not found", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/users/1/sessions/99")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, ContentTypeProblemJSON, w.Header().Get("Content-Type"))

		var p Problem
		require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
		assert.Equal(t, "urn:streambuf:problem:not-found", p.Type)
		assert.Equal(t, "Not Found", p.Title)
		assert.Equal(t, "/api/v1/users/1/sessions/99", p.Instance)
	})

	t.Run("invalid ids", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/users/0/sessions/10",
			"/api/v1/users/-1/sessions/10",
			"/api/v1/users/abc/sessions/10",
			"/api/v1/users/1/sessions/0",
		} {
			w := serve(router, http.MethodGet, path)
			assert.Equal(t, http.StatusBadRequest, w.Code, path)

			var p Problem
			require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
			assert.Equal(t, http.StatusBadRequest, p.Status)
			assert.NotEmpty(t, p.Detail)
		}
	})
}

func TestSessionHandler_Delete(t *testing.T) {
	router, reg := newTestRouter(t, true)
	require.True(t, reg.Init(1, 10))

	w := serve(router, http.MethodDelete, "/api/v1/users/1/sessions/10")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, reg.Exists(1, 10))

	w = serve(router, http.MethodDelete, "/api/v1/users/1/sessions/10")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_DeleteAll(t *testing.T) {
	router, reg := newTestRouter(t, true)
	require.True(t, reg.Init(1, 10))
	require.True(t, reg.Init(1, 11))
	require.True(t, reg.Init(2, 10))

	w := serve(router, http.MethodDelete, "/api/v1/users/1/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ClearAllResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.UserID)
	assert.Equal(t, 2, resp.Cleared)

	assert.False(t, reg.Exists(1, 10))
	assert.False(t, reg.Exists(1, 11))
	assert.True(t, reg.Exists(2, 10))

	w = serve(router, http.MethodDelete, "/api/v1/users/1/sessions")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Cleared)
}

func TestSessionHandler_Sweep(t *testing.T) {
	t.Run("with evictor", func(t *testing.T) {
		router, reg := newTestRouter(t, true)
		require.True(t, reg.Init(1, 10))

		w := serve(router, http.MethodPost, "/api/v1/sweep")
		require.Equal(t, http.StatusOK, w.Code)

		var result accumulator.SweepResult
		require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
		assert.Equal(t, 1, result.VisitedUsers)
		assert.Equal(t, 0, result.Evicted)
		assert.True(t, reg.Exists(1, 10))
	})

	t.Run("without evictor", func(t *testing.T) {
		router, _ := newTestRouter(t, false)
		w := serve(router, http.MethodPost, "/api/v1/sweep")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
