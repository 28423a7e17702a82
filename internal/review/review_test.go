package review

import (
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

func samplePairs(n int) []models.Pair {
	pairs := make([]models.Pair, n)
	for i := range pairs {
		pairs[i] = models.Pair{Front: string(rune('a' + i)), Back: string(rune('A' + i))}
	}
	return pairs
}

func TestPopulateIncludesEverything(t *testing.T) {
	for _, n := range []int{0, 1, 5} {
		s := New()
		s.Populate(samplePairs(n))

		if !s.Active() {
			t.Errorf("n=%d: expected active review", n)
		}
		selected := s.Selected()
		if len(selected) != n {
			t.Fatalf("n=%d: expected %d selected, got %d", n, n, len(selected))
		}
		for i, p := range selected {
			if p.Front != string(rune('a'+i)) {
				t.Errorf("n=%d: expected order preserved at %d, got %s", n, i, p.Front)
			}
		}
	}
}

func TestPopulateKeepsSourceImage(t *testing.T) {
	s := New()
	s.Populate([]models.Pair{{Front: "q", Back: "a", Image: "page1.png"}})
	if got := s.Pairs()[0].SourceImage; got != "page1.png" {
		t.Errorf("Expected source image page1.png, got %q", got)
	}
}

func TestToggleTwiceRestores(t *testing.T) {
	s := New()
	s.Populate(samplePairs(3))

	if err := s.Toggle(1); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if s.Pairs()[1].Included {
		t.Error("Expected row 1 excluded after one toggle")
	}
	if got := s.Selected(); len(got) != 2 || got[0].Front != "a" || got[1].Front != "c" {
		t.Errorf("Expected [a c] selected, got %+v", got)
	}

	if err := s.Toggle(1); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !s.Pairs()[1].Included {
		t.Error("Expected row 1 included after two toggles")
	}
}

func TestEditTouchesOnlyOneField(t *testing.T) {
	s := New()
	s.Populate(samplePairs(3))
	_ = s.Toggle(2)
	before := s.Pairs()

	if err := s.Edit(1, FieldBack, "edited"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	after := s.Pairs()

	if after[1].Back != "edited" {
		t.Errorf("Expected back edited, got %q", after[1].Back)
	}
	if after[1].Front != before[1].Front || after[1].Included != before[1].Included {
		t.Errorf("Expected other fields of row 1 unchanged, got %+v", after[1])
	}
	for _, i := range []int{0, 2} {
		if after[i] != before[i] {
			t.Errorf("Expected row %d unchanged, got %+v", i, after[i])
		}
	}
}

func TestIndexErrors(t *testing.T) {
	s := New()
	s.Populate(samplePairs(1))

	if err := s.Toggle(3); !errors.Is(err, ErrIndex) {
		t.Errorf("Expected ErrIndex from Toggle, got %v", err)
	}
	if err := s.Edit(-1, FieldFront, "x"); !errors.Is(err, ErrIndex) {
		t.Errorf("Expected ErrIndex from Edit, got %v", err)
	}
	if err := s.Edit(0, Field("side"), "x"); err == nil {
		t.Error("Expected error for unknown field, got nil")
	}
}

func TestReset(t *testing.T) {
	s := New()
	s.Populate(samplePairs(2))
	s.Reset()
	if s.Active() || s.Len() != 0 {
		t.Errorf("Expected inactive empty set, got active=%v len=%d", s.Active(), s.Len())
	}
}

func TestRedCardSet(t *testing.T) {
	r := NewRedCardSet()
	r.Load([]models.RedCard{
		{NoteID: 7, Front: "old q", Back: "old a", New: []models.Pair{{Front: "q1", Back: "a1"}, {Front: "q2", Back: "a2"}}},
		{NoteID: 9, Front: "x", Back: "y"},
	})

	if !r.Loaded() {
		t.Fatal("Expected loaded set")
	}
	if err := r.Toggle(0, 1); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if err := r.Toggle(1, 0); !errors.Is(err, ErrIndex) {
		t.Errorf("Expected ErrIndex for card without suggestions, got %v", err)
	}

	decisions := r.Decisions()
	if len(decisions) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(decisions))
	}
	d := decisions[0]
	if d.NoteID != 7 || d.OldFront != "old q" || d.OldBack != "old a" {
		t.Errorf("Unexpected decision header: %+v", d)
	}
	if !d.NewSuggestions[0].Selected || d.NewSuggestions[1].Selected {
		t.Errorf("Expected [true false] selections, got %+v", d.NewSuggestions)
	}

	r.Reset()
	if r.Loaded() || len(r.Cards()) != 0 {
		t.Error("Expected empty set after reset")
	}
}
