package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/flashcarder/internal/capture"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
	"github.com/lehigh-university-libraries/flashcarder/internal/storage"
)

// Backend is what the web front-end needs from the extraction service
type Backend interface {
	session.Backend
	Decks(ctx context.Context) ([]string, error)
}

// Defaults seed new sessions
type Defaults struct {
	Deck string
	Mode models.Mode
}

type Handler struct {
	sessionStore *storage.SessionStore
	backend      Backend
	defaults     Defaults
}

func New(backend Backend, defaults Defaults) *Handler {
	if defaults.Mode == "" {
		defaults.Mode = models.ModeManual
	}
	return &Handler{
		sessionStore: storage.New(),
		backend:      backend,
		defaults:     defaults,
	}
}

// Close releases every open session
func (h *Handler) Close() {
	h.sessionStore.CloseAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

// writeJSONStatus encodes before writing so a failure can still become a 500
func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "code", code)
	} else {
		slog.Warn(message, "code", code)
	}
	http.Error(w, message, code)
}

// writeFailure maps a domain error onto an HTTP status
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptySubmission):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoReview),
		errors.Is(err, session.ErrNoRedCards),
		errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, review.ErrIndex), errors.Is(err, capture.ErrFileIndex):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		// transport failures, non-2xx answers and malformed bodies
		return http.StatusBadGateway
	}
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, r *http.Request) (storage.Entry, bool) {
	entry, exists := h.sessionStore.Get(chi.URLParam(r, "sessionID"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return storage.Entry{}, false
	}
	return entry, true
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		h.writeError(w, "Invalid "+name+": "+chi.URLParam(r, name), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
