// Package capture accumulates the text and images a user wants to turn into
// flashcards. A Surface is not safe for concurrent use; the owning session
// serialises access.
package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lehigh-university-libraries/flashcarder/internal/clipboard"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// ErrFileIndex is returned when removing a file that is not selected
var ErrFileIndex = errors.New("file index out of range")

// Surface holds the draft text and selected images
type Surface struct {
	text  string
	files []models.File
}

// New returns an empty surface
func New() *Surface {
	return &Surface{}
}

// Text returns the current draft text
func (s *Surface) Text() string {
	return s.text
}

// SetText replaces the draft text
func (s *Surface) SetText(text string) {
	s.text = text
}

// AppendText adds pasted text on a new line after any existing text
func (s *Surface) AppendText(text string) {
	if text == "" {
		return
	}
	if s.text == "" {
		s.text = text
		return
	}
	s.text = s.text + "\n" + text
}

// Files returns a copy of the selected images
func (s *Surface) Files() []models.File {
	out := make([]models.File, len(s.files))
	copy(out, s.files)
	return out
}

// AddFiles merges images into the selection and returns how many were added.
// A file whose (name, size) already exists is a duplicate; content is not
// compared. Files that are not images are skipped.
func (s *Surface) AddFiles(files ...models.File) int {
	added := 0
	for _, f := range files {
		if f.Size == 0 && len(f.Data) > 0 {
			f.Size = int64(len(f.Data))
		}
		if genericContentType(f.ContentType) {
			f.ContentType = detectContentType(f)
		}
		if !strings.HasPrefix(f.ContentType, "image/") {
			slog.Warn("Skipping non-image file", "name", f.Name, "content_type", f.ContentType)
			continue
		}
		if s.has(f.Name, f.Size) {
			slog.Debug("Skipping duplicate file", "name", f.Name, "size", f.Size)
			continue
		}
		s.files = append(s.files, f)
		added++
	}
	return added
}

// RemoveFile drops the image at index i
func (s *Surface) RemoveFile(i int) error {
	if i < 0 || i >= len(s.files) {
		return fmt.Errorf("%w: %d (have %d)", ErrFileIndex, i, len(s.files))
	}
	s.files = append(s.files[:i], s.files[i+1:]...)
	return nil
}

// Paste applies a clipboard paste: text is appended, images are merged
func (s *Surface) Paste(p clipboard.Paste) {
	s.AppendText(p.Text)
	if len(p.Images) > 0 {
		s.AddFiles(p.Images...)
	}
}

// Reset clears text and files. Calling it on an empty surface is a no-op.
func (s *Surface) Reset() {
	s.text = ""
	s.files = nil
}

// Empty reports whether there is nothing worth submitting
func (s *Surface) Empty() bool {
	return strings.TrimSpace(s.text) == "" && len(s.files) == 0
}

// Draft snapshots the surface into a submission payload
func (s *Surface) Draft(deck string, mode models.Mode) models.PendingSubmission {
	return models.PendingSubmission{
		Text:  s.text,
		Files: s.Files(),
		Deck:  deck,
		Mode:  mode,
	}
}

func (s *Surface) has(name string, size int64) bool {
	for _, f := range s.files {
		if f.Name == name && f.Size == size {
			return true
		}
	}
	return false
}

// genericContentType reports whether a declared type says nothing about the
// content, as multipart uploads of unknown extensions often do
func genericContentType(ct string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0])) {
	case "", "application/octet-stream", "binary/octet-stream", "application/unknown":
		return true
	}
	return false
}

func detectContentType(f models.File) string {
	if len(f.Data) > 0 {
		return mimetype.Detect(f.Data).String()
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
}
