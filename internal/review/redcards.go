package review

import (
	"fmt"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// RedCardEntry is a flagged note plus the user's choices over its suggestions
type RedCardEntry struct {
	NoteID      int64               `json:"note_id"`
	Front       string              `json:"front"`
	Back        string              `json:"back"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// RedCardSet holds the re-review of flagged notes in a deck
type RedCardSet struct {
	cards  []RedCardEntry
	loaded bool
}

// NewRedCardSet returns an empty set
func NewRedCardSet() *RedCardSet {
	return &RedCardSet{}
}

// Load replaces the set; every suggestion starts selected
func (r *RedCardSet) Load(cards []models.RedCard) {
	r.cards = make([]RedCardEntry, 0, len(cards))
	for _, c := range cards {
		entry := RedCardEntry{NoteID: c.NoteID, Front: c.Front, Back: c.Back}
		for _, sug := range c.New {
			entry.Suggestions = append(entry.Suggestions, models.Suggestion{
				Front:    sug.Front,
				Back:     sug.Back,
				Selected: true,
			})
		}
		r.cards = append(r.cards, entry)
	}
	r.loaded = true
}

// Loaded reports whether cards have been fetched
func (r *RedCardSet) Loaded() bool {
	return r.loaded
}

// Cards returns a deep copy of the entries
func (r *RedCardSet) Cards() []RedCardEntry {
	out := make([]RedCardEntry, len(r.cards))
	for i, c := range r.cards {
		out[i] = c
		out[i].Suggestions = append([]models.Suggestion(nil), c.Suggestions...)
	}
	return out
}

// Toggle flips suggestion sug of card
func (r *RedCardSet) Toggle(card, sug int) error {
	if card < 0 || card >= len(r.cards) {
		return fmt.Errorf("%w: card %d (have %d)", ErrIndex, card, len(r.cards))
	}
	s := r.cards[card].Suggestions
	if sug < 0 || sug >= len(s) {
		return fmt.Errorf("%w: suggestion %d (have %d)", ErrIndex, sug, len(s))
	}
	s[sug].Selected = !s[sug].Selected
	return nil
}

// Decisions builds the payload for update_cards_red_manual_adding
func (r *RedCardSet) Decisions() []models.RedCardDecision {
	out := make([]models.RedCardDecision, 0, len(r.cards))
	for _, c := range r.cards {
		out = append(out, models.RedCardDecision{
			NoteID:         c.NoteID,
			OldFront:       c.Front,
			OldBack:        c.Back,
			NewSuggestions: append([]models.Suggestion{}, c.Suggestions...),
		})
	}
	return out
}

// Reset discards the re-review
func (r *RedCardSet) Reset() {
	r.cards = nil
	r.loaded = false
}
