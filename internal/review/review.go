package review

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// ErrIndex is returned for a row that does not exist
var ErrIndex = errors.New("index out of range")

// Field names an editable side of a card
type Field string

const (
	FieldFront Field = "front"
	FieldBack  Field = "back"
)

// CandidatePair is an extracted pair awaiting the user's decision
type CandidatePair struct {
	Front       string `json:"front"`
	Back        string `json:"back"`
	Included    bool   `json:"included"`
	SourceImage string `json:"source_image,omitempty"`
}

// Set is the list of candidates for one review, in extraction order
type Set struct {
	pairs  []CandidatePair
	active bool
}

// New returns an inactive, empty set
func New() *Set {
	return &Set{}
}

// Populate replaces the set with pairs, all included
func (s *Set) Populate(pairs []models.Pair) {
	s.pairs = make([]CandidatePair, 0, len(pairs))
	for _, p := range pairs {
		s.pairs = append(s.pairs, CandidatePair{
			Front:       p.Front,
			Back:        p.Back,
			Included:    true,
			SourceImage: p.Image,
		})
	}
	s.active = true
}

// Active reports whether a review is in progress (it may hold zero pairs)
func (s *Set) Active() bool {
	return s.active
}

// Len returns the number of candidates
func (s *Set) Len() int {
	return len(s.pairs)
}

// Pairs returns a copy of the candidates
func (s *Set) Pairs() []CandidatePair {
	out := make([]CandidatePair, len(s.pairs))
	copy(out, s.pairs)
	return out
}

// Toggle flips the inclusion flag of row i
func (s *Set) Toggle(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	s.pairs[i].Included = !s.pairs[i].Included
	return nil
}

// Edit overwrites the front or back text of row i
func (s *Set) Edit(i int, field Field, value string) error {
	if err := s.check(i); err != nil {
		return err
	}
	switch field {
	case FieldFront:
		s.pairs[i].Front = value
	case FieldBack:
		s.pairs[i].Back = value
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Selected returns the included pairs in their original order
func (s *Set) Selected() []models.Pair {
	out := make([]models.Pair, 0, len(s.pairs))
	for _, p := range s.pairs {
		if p.Included {
			out = append(out, models.Pair{Front: p.Front, Back: p.Back})
		}
	}
	return out
}

// Reset discards the review
func (s *Set) Reset() {
	s.pairs = nil
	s.active = false
}

func (s *Set) check(i int) error {
	if i < 0 || i >= len(s.pairs) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndex, i, len(s.pairs))
	}
	return nil
}
