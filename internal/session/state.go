package session

import (
	"fmt"
	"time"

	"github.com/lehigh-university-libraries/flashcarder/internal/activity"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
)

// State is a step in the session workflow
type State int

const (
	Idle State = iota
	Submitting
	// AutoComplete follows a successful auto-mode submit and behaves like Idle
	AutoComplete
	ReviewPending
	Confirming
	// ErrorNotice blocks until the user dismisses the integration message
	ErrorNotice
)

var stateNames = map[State]string{
	Idle:          "idle",
	Submitting:    "submitting",
	AutoComplete:  "auto_complete",
	ReviewPending: "review_pending",
	Confirming:    "confirming",
	ErrorNotice:   "error_notice",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state: %s", text)
}

// Busy reports whether a backend call is in flight
func (s State) Busy() bool {
	return s == Submitting || s == Confirming
}

// Snapshot is a consistent copy of everything a front-end draws
type Snapshot struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	State        State                  `json:"state"`
	Deck         string                 `json:"deck"`
	Mode         models.Mode            `json:"mode"`
	Text         string                 `json:"text"`
	Files        []models.File          `json:"files"`
	ReviewActive bool                   `json:"review_active"`
	Review       []review.CandidatePair `json:"review"`
	RedCards     []review.RedCardEntry  `json:"red_cards"`
	Notice       string                 `json:"notice,omitempty"`
	Log          []activity.View        `json:"log"`
}

// Snapshot copies the session state; the log is newest first
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:           s.id,
		CreatedAt:    s.createdAt,
		State:        s.state,
		Deck:         s.deck,
		Mode:         s.mode,
		Text:         s.capture.Text(),
		Files:        s.capture.Files(),
		ReviewActive: s.review.Active(),
		Review:       s.review.Pairs(),
		RedCards:     s.red.Cards(),
		Notice:       s.notice,
		Log:          activity.Views(s.log),
	}
}
