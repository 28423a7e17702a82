package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// Group collects outcomes that share a status
type Group struct {
	Status      models.Status       `json:"status"`
	OK          bool                `json:"ok"`
	Unavailable bool                `json:"unavailable"`
	Cards       []models.CardResult `json:"cards"`
}

// View is the display form of an entry. Exactly one of Text, Groups or
// Pairs is populated.
type View struct {
	Seq    int           `json:"seq"`
	At     time.Time     `json:"at"`
	Label  string        `json:"label,omitempty"`
	Text   string        `json:"text,omitempty"`
	Groups []Group       `json:"groups,omitempty"`
	Pairs  []models.Pair `json:"pairs,omitempty"`
}

// Structured reports whether the view carries parsed results
func (v View) Structured() bool {
	return v.Groups != nil || v.Pairs != nil
}

// Format turns an entry into a view. Result entries whose payload cannot be
// understood fall back to plain text; Format never panics on bad input.
func Format(e Entry) View {
	v := View{Seq: e.Seq, At: e.At, Label: e.Label}
	if e.Kind != KindResult {
		v.Text = e.Raw
		return v
	}

	var body struct {
		Cards   []models.CardResult  `json:"cards"`
		Status  []models.CardResult  `json:"status"`
		Pairs   []models.Pair        `json:"pairs"`
		Results []models.ImageResult `json:"results"`
	}
	if err := json.Unmarshal([]byte(e.Raw), &body); err != nil {
		v.Text = plainText(e)
		return v
	}

	cards := body.Cards
	if cards == nil {
		cards = body.Status
	}
	for _, r := range body.Results {
		for _, c := range r.Pairs {
			c.Image = r.Image
			cards = append(cards, c)
		}
	}

	switch {
	case cards != nil:
		v.Groups = groupByStatus(cards)
	case body.Pairs != nil:
		v.Pairs = body.Pairs
	default:
		v.Text = plainText(e)
	}
	return v
}

// Views formats entries newest first
func Views(l *Log) []View {
	entries := l.Newest()
	out := make([]View, 0, len(entries))
	for _, e := range entries {
		out = append(out, Format(e))
	}
	return out
}

func plainText(e Entry) string {
	if e.Label == "" {
		return e.Raw
	}
	return e.Label + ": " + e.Raw
}

func groupByStatus(cards []models.CardResult) []Group {
	groups := []Group{}
	index := map[models.Status]int{}

	// successes always lead
	for _, c := range cards {
		c.Normalize()
		if c.Status == models.StatusOK {
			if _, ok := index[c.Status]; !ok {
				index[c.Status] = len(groups)
				groups = append(groups, Group{Status: c.Status, OK: true})
			}
			groups[index[c.Status]].Cards = append(groups[index[c.Status]].Cards, c)
		}
	}
	for _, c := range cards {
		c.Normalize()
		if c.Status == models.StatusOK {
			continue
		}
		i, ok := index[c.Status]
		if !ok {
			i = len(groups)
			index[c.Status] = i
			groups = append(groups, Group{
				Status:      c.Status,
				Unavailable: c.Status == models.StatusAnkiUnavailable,
			})
		}
		groups[i].Cards = append(groups[i].Cards, c)
	}
	return groups
}

var (
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	pairArrowSep = " → "
)

// Render draws a view for a terminal
func Render(v View) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(v.At.Format("15:04:05")))
	b.WriteString(" ")

	if !v.Structured() {
		b.WriteString(v.Text)
		return b.String()
	}

	if v.Label != "" {
		b.WriteString(labelStyle.Render(v.Label))
	}

	for _, p := range v.Pairs {
		b.WriteString("\n  ")
		b.WriteString(p.Front + pairArrowSep + p.Back)
	}

	for _, g := range v.Groups {
		style := failStyle
		switch {
		case g.OK:
			style = okStyle
		case g.Unavailable:
			style = noticeStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("  [%s] %d", g.Status, len(g.Cards))))
		for _, c := range g.Cards {
			b.WriteString("\n    ")
			b.WriteString(style.Render(c.Front + pairArrowSep + c.Back))
		}
	}
	return b.String()
}
