package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/streambuf/internal/logger"
	"github.com/marmos91/streambuf/internal/telemetry"
	"github.com/marmos91/streambuf/pkg/accumulator"
)

// SessionStore is the registry surface used by the admin API.
type SessionStore interface {
	StatsSource
	Inspect(userID, sessionID int64) (accumulator.SessionInfo, bool)
	Clear(userID, sessionID int64) bool
	ClearAll(userID int64) int
}

// Sweeper runs one eviction sweep on demand.
type Sweeper interface {
	SweepNow(ctx context.Context) accumulator.SweepResult
}

// ClearAllResponse is returned by DELETE /api/v1/users/{userID}/sessions.
type ClearAllResponse struct {
	UserID  int64 `json:"user_id"`
	Cleared int   `json:"cleared"`
}

// SessionHandler exposes registry inspection and maintenance operations.
type SessionHandler struct {
	store   SessionStore
	sweeper Sweeper
}

// NewSessionHandler creates a session handler. sweeper may be nil, in
// which case POST /api/v1/sweep answers 503.
func NewSessionHandler(store SessionStore, sweeper Sweeper) *SessionHandler {
	return &SessionHandler{store: store, sweeper: sweeper}
}

// Stats handles GET /api/v1/stats.
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.store.Stats())
}

// Get handles GET /api/v1/users/{userID}/sessions/{sessionID}.
// Content is never returned: reading it would finalize the session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionKey(w, r)
	if !ok {
		return
	}

	info, found := h.store.Inspect(userID, sessionID)
	if !found {
		NotFound(w, r, fmt.Sprintf("session %d/%d not found", userID, sessionID))
		return
	}
	WriteJSONOK(w, info)
}

// Delete handles DELETE /api/v1/users/{userID}/sessions/{sessionID}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, sessionID, ok := sessionKey(w, r)
	if !ok {
		return
	}

	ctx, span := telemetry.StartSessionSpan(r.Context(), telemetry.SpanClear, userID, sessionID)
	defer span.End()

	if !h.store.Clear(userID, sessionID) {
		NotFound(w, r, fmt.Sprintf("session %d/%d not found", userID, sessionID))
		return
	}

	logger.InfoCtx(withSession(ctx, userID, sessionID), "Session cleared by operator")
	WriteNoContent(w)
}

// DeleteAll handles DELETE /api/v1/users/{userID}/sessions.
func (h *SessionHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	ctx, span := telemetry.StartSessionSpan(r.Context(), telemetry.SpanClear, userID, 0)
	defer span.End()

	cleared := h.store.ClearAll(userID)
	telemetry.SetAttributes(ctx, telemetry.Evicted(cleared))

	logger.InfoCtx(withSession(ctx, userID, 0), "User sessions cleared by operator", logger.KeyCount, cleared)
	WriteJSONOK(w, ClearAllResponse{UserID: userID, Cleared: cleared})
}

// Sweep handles POST /api/v1/sweep.
func (h *SessionHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	if h.sweeper == nil {
		ServiceUnavailable(w, r, "evictor not running")
		return
	}

	result := h.sweeper.SweepNow(r.Context())
	logger.InfoCtx(r.Context(), "Sweep triggered by operator",
		logger.KeyVisited, result.VisitedUsers,
		logger.KeyCount, result.Evicted)
	WriteJSONOK(w, result)
}

func sessionKey(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return 0, 0, false
	}
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return 0, 0, false
	}
	return userID, sessionID, true
}

// pathID parses a positive int64 URL parameter, writing 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		BadRequest(w, r, fmt.Sprintf("%s must be a positive integer, got %q", name, raw))
		return 0, false
	}
	return id, true
}

func withSession(ctx context.Context, userID, sessionID int64) context.Context {
	lc := logger.FromContext(ctx)
	if lc == nil {
		return ctx
	}
	return logger.WithContext(ctx, lc.WithSession(userID, sessionID))
}
