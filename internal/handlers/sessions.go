package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
	"github.com/lehigh-university-libraries/flashcarder/internal/transcript"
)

type sessionRequest struct {
	Deck string `json:"deck"`
	Mode string `json:"mode" validate:"omitempty,oneof=auto manual"`
}

type textRequest struct {
	Text   string `json:"text"`
	Append bool   `json:"append"`
}

func (h *Handler) HandleDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.backend.Decks(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	if decks == nil {
		decks = []string{}
	}
	h.writeJSON(w, map[string]any{"decks": decks, "default": h.defaults.Deck})
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	sessionList := make([]session.Snapshot, 0, len(sessions))
	for _, s := range sessions {
		sessionList = append(sessionList, s.Snapshot())
	}
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	req := sessionRequest{}
	if r.ContentLength != 0 {
		var err error
		if req, err = decodeJSON[sessionRequest](r); err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	deck := h.defaults.Deck
	if req.Deck != "" {
		deck = req.Deck
	}
	mode := h.defaults.Mode
	if req.Mode != "" {
		mode = models.Mode(req.Mode)
	}

	sess := session.New(h.backend, session.WithDeck(deck), session.WithMode(mode))
	h.sessionStore.Open(sess)
	slog.Info("Session created", "session_id", sess.ID(), "deck", deck, "mode", mode)

	h.writeJSONStatus(w, http.StatusCreated, sess.Snapshot())
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	h.sessionStore.Delete(entry.Session.ID())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[sessionRequest](r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Deck != "" {
		entry.Session.SetDeck(req.Deck)
	}
	if req.Mode != "" {
		entry.Session.SetMode(models.Mode(req.Mode))
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleText(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	req, err := decodeJSON[textRequest](r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Append {
		entry.Session.AppendText(req.Text)
	} else {
		entry.Session.SetText(req.Text)
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if _, err := entry.Session.Submit(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	entry.Session.ClearAll()
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleDismissNotice(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	entry.Session.DismissNotice()
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="transcript-`+entry.Session.ID()+`.yaml"`)
	if err := transcript.Encode(w, transcript.FromSession(entry.Session)); err != nil {
		slog.Error("Unable to write transcript", "session_id", entry.Session.ID(), "err", err)
	}
}
