package activity

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

func TestAppendOrderAndNewest(t *testing.T) {
	l := New()
	l.Plain("one")
	l.Plain("two")
	l.Result("Response", json.RawMessage(`{"cards":[]}`))

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Seq != i+1 {
			t.Errorf("Expected seq %d, got %d", i+1, e.Seq)
		}
		if e.At.IsZero() {
			t.Errorf("Expected entry %d to be timestamped", i)
		}
	}

	newest := l.Newest()
	if newest[0].Seq != 3 || newest[2].Raw != "one" {
		t.Errorf("Expected reverse order, got %+v", newest)
	}
	if l.Entries()[0].Raw != "one" {
		t.Error("Expected Newest not to reorder the underlying log")
	}
}

func TestFormatPlainNeverParses(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "non json string", raw: "Error processing input."},
		{name: "looks like a response", raw: `Response: {"cards":[{"Front":"a","Back":"b","Status":"OK"}]}`},
		{name: "malformed response", raw: `Response: {"cards":[{"Front":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Format(Entry{Kind: KindPlain, Raw: tt.raw})
			if v.Structured() {
				t.Errorf("Expected plain view, got %+v", v)
			}
			if v.Text != tt.raw {
				t.Errorf("Expected text %q, got %q", tt.raw, v.Text)
			}
			_ = Render(v)
		})
	}
}

func TestFormatMalformedResultFallsBack(t *testing.T) {
	for _, raw := range []string{`{"cards":[{"Front":`, `not json`, `[1,2,3]`, `{}`} {
		v := Format(Entry{Kind: KindResult, Label: "Response", Raw: raw})
		if v.Structured() {
			t.Errorf("raw=%q: expected plain fallback, got %+v", raw, v)
		}
		if v.Text != "Response: "+raw {
			t.Errorf("raw=%q: expected labelled raw text, got %q", raw, v.Text)
		}
		_ = Render(v)
	}
}

func TestFormatGroupsByStatus(t *testing.T) {
	raw := `{"cards":[
		{"Front":"q1","Back":"a1","Status":"duplicate"},
		{"Front":"q2","Back":"a2","Status":"OK"},
		{"Front":"q3","Back":"a3","Status":"` + string(models.StatusAnkiUnavailable) + `"},
		{"Front":"q4","Back":"a4","Status":"OK"},
		{"Front":"q5","Back":"a5","Status":"duplicate"}
	]}`

	v := Format(Entry{Kind: KindResult, Label: "Added Cards", Raw: raw})
	if len(v.Groups) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(v.Groups))
	}

	if !v.Groups[0].OK || len(v.Groups[0].Cards) != 2 {
		t.Errorf("Expected OK group first with 2 cards, got %+v", v.Groups[0])
	}
	if v.Groups[1].Status != "duplicate" || len(v.Groups[1].Cards) != 2 {
		t.Errorf("Expected duplicate group second with 2 cards, got %+v", v.Groups[1])
	}
	if !v.Groups[2].Unavailable {
		t.Errorf("Expected sentinel group flagged unavailable, got %+v", v.Groups[2])
	}

	out := Render(v)
	if !strings.Contains(out, "q3") || !strings.Contains(out, "Added Cards") {
		t.Errorf("Expected rendered output to mention cards and label, got %q", out)
	}
}

func TestFormatLegacyShapes(t *testing.T) {
	legacy := Format(Entry{Kind: KindResult, Raw: `{"status":[{"Front":"a","Back":"b","Status":true},{"Front":"c","Back":"d","Status":false,"Error":"boom"}]}`})
	if len(legacy.Groups) != 2 || legacy.Groups[1].Status != "boom" {
		t.Errorf("Expected OK and boom groups, got %+v", legacy.Groups)
	}

	images := Format(Entry{Kind: KindResult, Raw: `{"results":[{"Image":"p.png","Pairs":[{"Front":"a","Back":"b","Status":"OK"}]}]}`})
	if len(images.Groups) != 1 || images.Groups[0].Cards[0].Image != "p.png" {
		t.Errorf("Expected image name carried into group, got %+v", images.Groups)
	}

	pairs := Format(Entry{Kind: KindResult, Raw: `{"pairs":[{"Front":"a","Back":"b"}]}`})
	if len(pairs.Pairs) != 1 {
		t.Errorf("Expected 1 extracted pair, got %+v", pairs)
	}
}

func TestViewsNewestFirst(t *testing.T) {
	l := New()
	l.now = func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }
	l.Plain("first")
	l.Plain("second")

	views := Views(l)
	if views[0].Text != "second" || views[1].Text != "first" {
		t.Errorf("Expected newest first, got %+v", views)
	}
}
