// Package session ties the capture surface, review set and activity log
// together behind the submit/review/confirm state machine.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/flashcarder/internal/activity"
	"github.com/lehigh-university-libraries/flashcarder/internal/capture"
	"github.com/lehigh-university-libraries/flashcarder/internal/clipboard"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
)

var (
	// ErrNoReview is returned by review operations when nothing is under review
	ErrNoReview = errors.New("no review in progress")
	// ErrNoRedCards is returned when the red-card flow has not been loaded
	ErrNoRedCards = errors.New("no red cards loaded")
	// ErrSuperseded is returned when a response arrived after the session moved on
	ErrSuperseded = errors.New("response superseded by a newer action")
)

// Log messages written for failures the user should see
const (
	msgProcessFailed  = "Error processing input."
	msgAddFailed      = "Error adding cards."
	msgRedFetchFailed = "Error fetching red cards."
	msgRedSaveFailed  = "Error updating red cards."
)

// Backend is the normalized extraction service a session talks to
type Backend interface {
	Extract(ctx context.Context, sub models.PendingSubmission) (*models.ProcessResult, error)
	AddCards(ctx context.Context, deck string, pairs []models.Pair) (*models.AddCardsResult, error)
	RedCards(ctx context.Context, deck string) ([]models.RedCard, json.RawMessage, error)
	UpdateRedCards(ctx context.Context, deck string, decisions []models.RedCardDecision) (json.RawMessage, error)
}

// Option configures a Session
type Option func(*Session)

// WithDeck sets the initial deck
func WithDeck(deck string) Option {
	return func(s *Session) { s.deck = deck }
}

// WithMode sets the initial mode
func WithMode(mode models.Mode) Option {
	return func(s *Session) { s.mode = mode }
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session id
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is one user's capture-to-deck workflow. It is safe for concurrent
// use; backend calls are made without holding the lock.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	backend   Backend
	logger    *slog.Logger

	deck    string
	mode    models.Mode
	capture *capture.Surface
	review  *review.Set
	red     *review.RedCardSet
	log     *activity.Log

	state State
	// rest is the state to fall back to when a dispatch fails
	rest   State
	gen    uint64
	notice string
	detach func()
}

// New creates an idle session
func New(backend Backend, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		createdAt: time.Now(),
		backend:   backend,
		logger:    slog.Default(),
		mode:      models.ModeManual,
		capture:   capture.New(),
		review:    review.New(),
		red:       review.NewRedCardSet(),
		log:       activity.New(),
		state:     Idle,
		rest:      Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) Log() *activity.Log   { return s.log }

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Notice returns the blocking message shown in ErrorNotice, if any
func (s *Session) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

func (s *Session) Deck() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deck
}

func (s *Session) SetDeck(deck string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = deck
}

func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) SetMode(mode models.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetText replaces the capture text
func (s *Session) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.SetText(text)
}

// AppendText adds text on a new line
func (s *Session) AppendText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.AppendText(text)
}

// AddFiles merges files into the selection and returns how many were new
func (s *Session) AddFiles(files ...models.File) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture.AddFiles(files...)
}

// RemoveFile drops the file at index i
func (s *Session) RemoveFile(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capture.RemoveFile(i)
}

// Paste applies a clipboard event to the capture surface
func (s *Session) Paste(p clipboard.Paste) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.Paste(p)
}

// Attach subscribes the session to feed, replacing any earlier
// subscription. The returned func releases it; Close does the same.
func (s *Session) Attach(feed *clipboard.Feed) func() {
	release := feed.Subscribe(s.Paste)

	s.mu.Lock()
	prev := s.detach
	s.detach = release
	s.mu.Unlock()

	if prev != nil {
		prev()
	}
	return release
}

// Close releases the paste subscription and invalidates in-flight requests
func (s *Session) Close() {
	s.mu.Lock()
	detach := s.detach
	s.detach = nil
	s.gen++
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
	s.logger.Debug("Session closed", "session_id", s.id)
}

// ClearAll empties the capture surface and review and returns to Idle
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture.Reset()
	s.review.Reset()
	s.red.Reset()
	s.notice = ""
	s.gen++
	s.settle(Idle)
}

// Submit sends the current capture to the backend. In auto mode the cards
// are written straight away; in manual mode the candidates are loaded for
// review. Failures are logged and leave the session as it was.
func (s *Session) Submit(ctx context.Context) (*models.ProcessResult, error) {
	s.mu.Lock()
	draft := s.capture.Draft(s.deck, s.mode)
	if err := draft.Validate(); err != nil {
		s.log.Plain(err.Error())
		s.mu.Unlock()
		return nil, err
	}
	s.gen++
	gen := s.gen
	s.state = Submitting
	s.mu.Unlock()

	s.logger.Info("Submitting capture",
		"session_id", s.id,
		"mode", draft.Mode,
		"deck", draft.Deck,
		"files", len(draft.Files),
		"text_len", len(draft.Text),
	)
	res, err := s.backend.Extract(ctx, draft)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debug("Discarding stale extraction response", "session_id", s.id, "gen", gen, "current", s.gen)
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Error("Extraction failed", "session_id", s.id, "err", err)
		s.log.Plain(msgProcessFailed)
		s.state = s.rest
		return nil, fmt.Errorf("failed to process input: %w", err)
	}

	if draft.Mode == models.ModeAuto {
		s.log.Result("Response", res.Raw)
		if models.IntegrationUnavailable(res.Cards) {
			s.raiseNotice()
			return res, nil
		}
		s.capture.Reset()
		s.review.Reset()
		s.settle(AutoComplete)
		return res, nil
	}

	s.log.Result("Extracted Pairs", res.Raw)
	s.review.Populate(res.Candidates())
	s.settle(ReviewPending)
	return res, nil
}

// Toggle flips whether the candidate at i will be sent
func (s *Session) Toggle(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.review.Active() {
		return ErrNoReview
	}
	return s.review.Toggle(i)
}

// Edit overwrites one side of the candidate at i
func (s *Session) Edit(i int, field review.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.review.Active() {
		return ErrNoReview
	}
	return s.review.Edit(i, field, value)
}

// Selected returns the included candidates in order
func (s *Session) Selected() []models.Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.review.Selected()
}

// Confirm writes the selected candidates to the deck. An empty selection is
// still sent.
func (s *Session) Confirm(ctx context.Context) (*models.AddCardsResult, error) {
	s.mu.Lock()
	if s.state != ReviewPending {
		s.mu.Unlock()
		return nil, ErrNoReview
	}
	pairs := s.review.Selected()
	deck := s.deck
	gen := s.gen
	s.state = Confirming
	s.mu.Unlock()

	s.logger.Info("Confirming review", "session_id", s.id, "deck", deck, "pairs", len(pairs))
	res, err := s.backend.AddCards(ctx, deck, pairs)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.logger.Debug("Discarding stale add_cards response", "session_id", s.id, "gen", gen, "current", s.gen)
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Error("Adding cards failed", "session_id", s.id, "err", err)
		s.log.Plain(msgAddFailed)
		s.state = ReviewPending
		return nil, fmt.Errorf("failed to add cards: %w", err)
	}

	s.log.Result("Added Cards", res.Raw)
	switch {
	case models.IntegrationUnavailable(res.Cards):
		s.raiseNotice()
	case models.AllOK(res.Cards):
		s.capture.Reset()
		s.review.Reset()
		s.settle(Idle)
	default:
		s.settle(ReviewPending)
	}
	return res, nil
}

// Cancel discards the review; the capture surface is kept
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.review.Reset()
	s.notice = ""
	s.gen++
	s.settle(Idle)
}

// DismissNotice leaves ErrorNotice, going back to the review if one is open
func (s *Session) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != ErrorNotice {
		return
	}
	s.notice = ""
	if s.review.Active() {
		s.settle(ReviewPending)
		return
	}
	s.settle(Idle)
}

// FetchRedCards loads flagged notes for the current deck
func (s *Session) FetchRedCards(ctx context.Context) ([]review.RedCardEntry, error) {
	s.mu.Lock()
	deck := s.deck
	gen := s.gen
	s.mu.Unlock()

	cards, raw, err := s.backend.RedCards(ctx, deck)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Error("Fetching red cards failed", "session_id", s.id, "err", err)
		s.log.Plain(msgRedFetchFailed)
		return nil, fmt.Errorf("failed to fetch red cards: %w", err)
	}
	s.log.Result("Red Cards", raw)
	s.red.Load(cards)
	return s.red.Cards(), nil
}

// ToggleSuggestion flips one suggested replacement
func (s *Session) ToggleSuggestion(card, suggestion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.red.Loaded() {
		return ErrNoRedCards
	}
	return s.red.Toggle(card, suggestion)
}

// RedCards returns the loaded flagged notes
func (s *Session) RedCards() []review.RedCardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.red.Cards()
}

// SubmitRedCards sends the selected suggestions and clears the flow
func (s *Session) SubmitRedCards(ctx context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	if !s.red.Loaded() {
		s.mu.Unlock()
		return nil, ErrNoRedCards
	}
	decisions := s.red.Decisions()
	deck := s.deck
	gen := s.gen
	s.mu.Unlock()

	raw, err := s.backend.UpdateRedCards(ctx, deck, decisions)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ErrSuperseded
	}
	if err != nil {
		s.logger.Error("Updating red cards failed", "session_id", s.id, "err", err)
		s.log.Plain(msgRedSaveFailed)
		return nil, fmt.Errorf("failed to update red cards: %w", err)
	}
	s.log.Result("Updated Red Cards", raw)
	s.red.Reset()
	return raw, nil
}

// CancelRedCards drops the loaded flagged notes
func (s *Session) CancelRedCards() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.red.Reset()
}

func (s *Session) raiseNotice() {
	s.notice = string(models.StatusAnkiUnavailable)
	s.settle(ErrorNotice)
	s.logger.Warn("Deck integration unavailable", "session_id", s.id)
}

// settle moves to a non-transient state
func (s *Session) settle(st State) {
	s.state = st
	s.rest = st
}
