// Package tui is the terminal front-end for reviewing extracted pairs.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lehigh-university-libraries/flashcarder/internal/activity"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/review"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
)

type mode int

const (
	modeList mode = iota
	modeEdit
)

// logLines is how many activity entries the panel shows
const logLines = 5

type confirmDoneMsg struct {
	res *models.AddCardsResult
	err error
}

// ReviewModel lets the user toggle, edit and confirm candidates
type ReviewModel struct {
	ctx       context.Context
	sess      *session.Session
	cursor    int
	offset    int
	width     int
	height    int
	mode      mode
	editField review.Field
	input     textinput.Model
	spinner   spinner.Model
	busy      bool
	err       error
	added     bool
	cancelled bool
	quitting  bool
}

// NewReview builds a model over a session that is in ReviewPending
func NewReview(ctx context.Context, sess *session.Session) ReviewModel {
	ti := textinput.New()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return ReviewModel{
		ctx:     ctx,
		sess:    sess,
		input:   ti,
		spinner: sp,
		width:   100,
		height:  30,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-20)
		m.clampOffset()
		return m, nil

	case confirmDoneMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil && m.sess.State() == session.Idle {
			m.added = true
			m.quitting = true
			return m, tea.Quit
		}
		m.clampCursor()
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
		if m.sess.State() == session.ErrorNotice {
			return m.updateNotice(msg)
		}
		if m.mode == modeEdit {
			return m.updateEdit(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m ReviewModel) updateNotice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ", "space":
		m.sess.DismissNotice()
	case "q":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ReviewModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.sess.Snapshot().Review)

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.sess.Cancel()
		m.cancelled = true
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clampOffset()
		}

	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
			m.clampOffset()
		}

	case " ", "space", "x":
		if n > 0 {
			m.err = m.sess.Toggle(m.cursor)
		}

	case "e", "E":
		if n == 0 {
			return m, nil
		}
		row := m.sess.Snapshot().Review[m.cursor]
		m.editField = review.FieldFront
		m.input.SetValue(row.Front)
		if msg.String() == "E" {
			m.editField = review.FieldBack
			m.input.SetValue(row.Back)
		}
		m.input.CursorEnd()
		m.input.Focus()
		m.mode = modeEdit
		return m, textinput.Blink

	case "enter":
		m.busy = true
		m.err = nil
		return m, tea.Batch(m.confirmCmd(), m.spinner.Tick)
	}
	return m, nil
}

func (m ReviewModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.mode = modeList
		return m, nil

	case "enter":
		m.err = m.sess.Edit(m.cursor, m.editField, m.input.Value())
		m.input.Blur()
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ReviewModel) confirmCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		res, err := sess.Confirm(ctx)
		return confirmDoneMsg{res: res, err: err}
	}
}

func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}
	snap := m.sess.Snapshot()

	var b strings.Builder
	selected := 0
	for _, p := range snap.Review {
		if p.Included {
			selected++
		}
	}
	b.WriteString(titleStyle.Render("Flashcarder review"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  deck %q  %d/%d selected", snap.Deck, selected, len(snap.Review))))
	b.WriteString("\n")

	if snap.State == session.ErrorNotice {
		b.WriteString(noticeStyle.Render(snap.Notice))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("  Enter: dismiss  q: quit"))
		b.WriteString("\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-3s %-*s %s", "", m.colWidth(), "Front", "Back")))
	b.WriteString("\n")

	visible := m.visibleRows()
	end := min(m.offset+visible, len(snap.Review))
	if len(snap.Review) == 0 {
		b.WriteString(dimStyle.Render("  no pairs extracted; Enter still confirms an empty selection"))
		b.WriteString("\n")
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(snap.Review[i], i == m.cursor))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("  " + m.err.Error()))
		b.WriteString("\n")
	}

	switch {
	case m.busy:
		b.WriteString(statusBarStyle.Render(m.spinner.View() + " adding cards..."))
	case m.mode == modeEdit:
		b.WriteString(statusBarStyle.Render("Edit "+string(m.editField)+": ") + m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("  Enter: save  Esc: cancel"))
	default:
		b.WriteString(helpStyle.Render("  Space: toggle  e/E: edit front/back  Enter: add selected  Esc: discard  q: quit"))
	}
	b.WriteString("\n")

	b.WriteString(renderLog(snap.Log, m.width))
	return b.String()
}

func (m ReviewModel) renderRow(p review.CandidatePair, current bool) string {
	box := "[x]"
	if !p.Included {
		box = "[ ]"
	}
	w := m.colWidth()
	line := fmt.Sprintf("%s %-*s %s", box, w, truncate(p.Front, w), truncate(p.Back, w))
	if p.SourceImage != "" {
		line += dimStyle.Render("  " + p.SourceImage)
	}
	switch {
	case current:
		return selectedStyle.Render(line)
	case !p.Included:
		return excludedStyle.Render(line)
	}
	return line
}

// Added reports whether the selection was written to the deck
func (m ReviewModel) Added() bool { return m.added }

// Cancelled reports whether the user discarded the review
func (m ReviewModel) Cancelled() bool { return m.cancelled }

func (m ReviewModel) colWidth() int {
	return max(12, (m.width-8)/2)
}

func (m ReviewModel) visibleRows() int {
	rows := m.height - 6 - logLines
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *ReviewModel) clampOffset() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *ReviewModel) clampCursor() {
	n := len(m.sess.Snapshot().Review)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	m.clampOffset()
}

func renderLog(views []activity.View, width int) string {
	if len(views) == 0 {
		return ""
	}
	if len(views) > logLines {
		views = views[:logLines]
	}
	lines := make([]string, 0, len(views))
	for _, v := range views {
		lines = append(lines, activity.Render(v))
	}
	return logPanelStyle.Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 2 {
		return string(runes[:width])
	}
	return string(runes[:width-2]) + ".."
}
