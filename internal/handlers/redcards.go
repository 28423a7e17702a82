package handlers

import (
	"net/http"
)

func (h *Handler) HandleFetchRedCards(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	cards, err := entry.Session.FetchRedCards(r.Context())
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, cards)
}

func (h *Handler) HandleToggleSuggestion(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	card, ok := h.intParam(w, r, "card")
	if !ok {
		return
	}
	sug, ok := h.intParam(w, r, "suggestion")
	if !ok {
		return
	}
	if err := entry.Session.ToggleSuggestion(card, sug); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.RedCards())
}

func (h *Handler) HandleSubmitRedCards(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if _, err := entry.Session.SubmitRedCards(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleCancelRedCards(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	entry.Session.CancelRedCards()
	h.writeJSON(w, entry.Session.Snapshot())
}
