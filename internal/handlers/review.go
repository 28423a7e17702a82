package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/flashcarder/internal/review"
)

type editRequest struct {
	Field string `json:"field" validate:"required,oneof=front back"`
	Value string `json:"value"`
}

func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	i, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}
	if err := entry.Session.Toggle(i); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	i, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}
	req, err := decodeJSON[editRequest](r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := entry.Session.Edit(i, review.Field(req.Field), req.Value); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if _, err := entry.Session.Confirm(r.Context()); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	entry.Session.Cancel()
	h.writeJSON(w, entry.Session.Snapshot())
}
