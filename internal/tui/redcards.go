package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
)

type redSubmitDoneMsg struct{ err error }

// slot addresses one suggestion of one flagged card
type slot struct{ card, sug int }

// RedCardsModel walks the suggestions for flagged notes
type RedCardsModel struct {
	ctx      context.Context
	sess     *session.Session
	cursor   int
	width    int
	spinner  spinner.Model
	busy     bool
	err      error
	saved    bool
	quitting bool
}

// NewRedCards builds a model over a session whose red cards are loaded
func NewRedCards(ctx context.Context, sess *session.Session) RedCardsModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return RedCardsModel{ctx: ctx, sess: sess, spinner: sp, width: 100}
}

func (m RedCardsModel) Init() tea.Cmd {
	return nil
}

func (m RedCardsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case redSubmitDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.saved = true
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		slots := slots(m.sess.RedCards())

		switch msg.String() {
		case "q", "esc":
			m.sess.CancelRedCards()
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(slots)-1 {
				m.cursor++
			}
		case " ", "space", "x":
			if m.cursor < len(slots) {
				s := slots[m.cursor]
				m.err = m.sess.ToggleSuggestion(s.card, s.sug)
			}
		case "enter":
			m.busy = true
			m.err = nil
			ctx, sess := m.ctx, m.sess
			return m, tea.Batch(func() tea.Msg {
				_, err := sess.SubmitRedCards(ctx)
				return redSubmitDoneMsg{err: err}
			}, m.spinner.Tick)
		}
	}
	return m, nil
}

func (m RedCardsModel) View() string {
	if m.quitting {
		return ""
	}
	cards := m.sess.RedCards()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Red cards"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d flagged", len(cards))))
	b.WriteString("\n")

	i := 0
	for _, c := range cards {
		b.WriteString(headerStyle.Render(truncate(c.Front+" / "+c.Back, max(20, m.width-4))))
		b.WriteString("\n")
		for _, s := range c.Suggestions {
			box := "[x]"
			if !s.Selected {
				box = "[ ]"
			}
			line := fmt.Sprintf("  %s %s / %s", box, s.Front, s.Back)
			if i == m.cursor {
				line = selectedStyle.Render(line)
			}
			b.WriteString(line)
			b.WriteString("\n")
			i++
		}
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString(statusBarStyle.Render(m.spinner.View() + " saving..."))
	} else {
		b.WriteString(helpStyle.Render("  Space: toggle  Enter: save  Esc: close"))
	}
	b.WriteString("\n")
	return b.String()
}

// Saved reports whether the choices were sent
func (m RedCardsModel) Saved() bool { return m.saved }

func slots(cards []review.RedCardEntry) []slot {
	var out []slot
	for ci, c := range cards {
		for si := range c.Suggestions {
			out = append(out, slot{card: ci, sug: si})
		}
	}
	return out
}
