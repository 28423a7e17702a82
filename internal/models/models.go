package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Mode selects how the backend treats a submission
type Mode string

const (
	// ModeAuto adds extracted cards to the deck straight away
	ModeAuto Mode = "auto"
	// ModeManual returns candidate pairs for review first
	ModeManual Mode = "manual"
)

// ParseMode accepts "auto" or "manual" (case-insensitive); empty means manual
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeManual):
		return ModeManual, nil
	case string(ModeAuto):
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", s)
	}
}

// Status is the per-card outcome reported by the deck integration
type Status string

const (
	// StatusOK marks a card that was written to the deck
	StatusOK Status = "OK"
	// StatusFailed is used when a legacy backend reports false without a reason
	StatusFailed Status = "failed"
	// StatusAnkiUnavailable means the deck-writing service is not running
	StatusAnkiUnavailable Status = "Anki is not running. Please launch Anki and ensure AnkiConnect is enabled."
)

// UnmarshalJSON accepts the string form and the older boolean form
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Status(str)
		return nil
	}
	var ok bool
	if err := json.Unmarshal(data, &ok); err != nil {
		return fmt.Errorf("status must be a string or boolean: %w", err)
	}
	if ok {
		*s = StatusOK
	} else {
		*s = StatusFailed
	}
	return nil
}

// ErrEmptySubmission is returned when neither text nor files were provided
var ErrEmptySubmission = errors.New("please provide text or images to process")

// File is an image held by the capture surface
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// PendingSubmission is the payload handed to the extraction endpoint
type PendingSubmission struct {
	Text  string
	Files []File
	Deck  string
	Mode  Mode
}

// Validate enforces that there is something to send
func (p PendingSubmission) Validate() error {
	if strings.TrimSpace(p.Text) == "" && len(p.Files) == 0 {
		return ErrEmptySubmission
	}
	return nil
}

// Pair is a front/back candidate as exchanged with the backend
type Pair struct {
	Front string `json:"Front"`
	Back  string `json:"Back"`
	Image string `json:"Image,omitempty"`
}

// CardResult is the outcome of writing one pair to the deck
type CardResult struct {
	Front  string `json:"Front"`
	Back   string `json:"Back"`
	Status Status `json:"Status"`
	Error  string `json:"Error,omitempty"`
	Image  string `json:"Image,omitempty"`
}

// Normalize folds a legacy failure reason into Status
func (c *CardResult) Normalize() {
	if c.Status == StatusFailed && c.Error != "" {
		c.Status = Status(c.Error)
	}
}

// ImageResult is one entry of the legacy process_images response
type ImageResult struct {
	Image  string       `json:"Image"`
	Detail string       `json:"Detail,omitempty"`
	Pairs  []CardResult `json:"Pairs"`
}

// ProcessResult is the normalized answer to an extraction dispatch.
// Cards is set for auto mode, Pairs for manual mode.
type ProcessResult struct {
	Cards []CardResult    `json:"cards,omitempty"`
	Pairs []Pair          `json:"pairs,omitempty"`
	Raw   json.RawMessage `json:"-"`
}

// Candidates returns the pairs to review. Backends that answer a manual
// submission with card outcomes instead of pairs are accepted too.
func (r *ProcessResult) Candidates() []Pair {
	if r.Pairs != nil {
		return r.Pairs
	}
	out := make([]Pair, 0, len(r.Cards))
	for _, c := range r.Cards {
		out = append(out, Pair{Front: c.Front, Back: c.Back, Image: c.Image})
	}
	return out
}

// AddCardsResult is the normalized answer to a confirmation
type AddCardsResult struct {
	Cards []CardResult    `json:"cards"`
	Raw   json.RawMessage `json:"-"`
}

// IntegrationUnavailable reports whether any outcome carries the sentinel
func IntegrationUnavailable(cards []CardResult) bool {
	for _, c := range cards {
		if c.Status == StatusAnkiUnavailable {
			return true
		}
	}
	return false
}

// AllOK reports whether every outcome succeeded
func AllOK(cards []CardResult) bool {
	for _, c := range cards {
		if c.Status != StatusOK {
			return false
		}
	}
	return true
}

// RedCard is an existing flagged note with suggested replacements
type RedCard struct {
	NoteID int64  `json:"noteId"`
	Front  string `json:"Front"`
	Back   string `json:"Back"`
	New    []Pair `json:"New"`
}

// Suggestion is a replacement pair with the user's choice
type Suggestion struct {
	Front    string `json:"Front"`
	Back     string `json:"Back"`
	Selected bool   `json:"selected"`
}

// RedCardDecision is what gets sent back for one flagged note
type RedCardDecision struct {
	NoteID         int64        `json:"noteId"`
	OldFront       string       `json:"oldFront"`
	OldBack        string       `json:"oldBack"`
	NewSuggestions []Suggestion `json:"newSuggestions"`
}
