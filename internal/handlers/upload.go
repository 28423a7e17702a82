package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/lehigh-university-libraries/flashcarder/internal/clipboard"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

const maxUploadBytes = 32 << 20

func (h *Handler) HandleAddFiles(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	files, err := readFiles(r.MultipartForm.File["files"])
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	added := entry.Session.AddFiles(files...)
	slog.Info("Files added", "session_id", entry.Session.ID(), "received", len(files), "added", added)

	h.writeJSON(w, entry.Session.Snapshot())
}

func (h *Handler) HandleRemoveFile(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	i, ok := h.intParam(w, r, "index")
	if !ok {
		return
	}
	if err := entry.Session.RemoveFile(i); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, entry.Session.Snapshot())
}

// HandlePaste publishes a clipboard event to the session's feed. Only the
// session subscribed to that feed sees it.
func (h *Handler) HandlePaste(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.getSessionOrError(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, "Failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	images, err := readFiles(r.MultipartForm.File["files"])
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	delivered := entry.Feed.Publish(clipboard.Paste{
		Text:   r.FormValue("text"),
		Images: images,
	})
	slog.Debug("Paste published", "session_id", entry.Session.ID(), "subscribers", delivered)

	h.writeJSON(w, entry.Session.Snapshot())
}

func readFiles(headers []*multipart.FileHeader) ([]models.File, error) {
	files := make([]models.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		files = append(files, models.File{
			Name:        fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
