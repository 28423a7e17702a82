package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
)

// Result is the outcome for one note
type Result struct {
	ID        string         `json:"id"`
	Deck      string         `json:"deck"`
	State     string         `json:"state"`
	Extracted int            `json:"extracted"`
	Statuses  map[string]int `json:"statuses,omitempty"`
	Notice    string         `json:"notice,omitempty"`
	Error     string         `json:"error,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms"`
}

// Summary aggregates a run
type Summary struct {
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	Failed     int            `json:"failed"`
	CardsAdded int            `json:"cards_added"`
	Statuses   map[string]int `json:"statuses"`
}

// Report is everything a run produced
type Report struct {
	Mode    models.Mode `json:"mode"`
	Summary Summary     `json:"summary"`
	Results []Result    `json:"results"`
}

// Runner pushes notes through independent sessions
type Runner struct {
	Backend     session.Backend
	Mode        models.Mode
	Deck        string
	Concurrency int
	// Confirm sends every extracted pair in manual mode
	Confirm bool
}

// Run processes notes concurrently; results keep input order
func (r *Runner) Run(ctx context.Context, notes []Note) *Report {
	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	slog.Info("Processing notes", "count", len(notes), "concurrency", concurrency, "mode", r.Mode)

	results := make([]Result, len(notes))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, note := range notes {
		wg.Add(1)
		go func(idx int, note Note) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing note", "id", note.ID, "progress", fmt.Sprintf("%d/%d", idx+1, len(notes)))
			results[idx] = r.processNote(ctx, note)
		}(i, note)
	}
	wg.Wait()

	return &Report{
		Mode:    r.Mode,
		Summary: summarize(results),
		Results: results,
	}
}

func (r *Runner) processNote(ctx context.Context, note Note) Result {
	start := time.Now()
	deck := note.Deck
	if deck == "" {
		deck = r.Deck
	}
	result := Result{ID: note.ID, Deck: deck}

	sess := session.New(r.Backend, session.WithDeck(deck), session.WithMode(r.Mode), session.WithID(note.ID))
	defer sess.Close()

	sess.SetText(note.Text)
	for _, path := range note.Images {
		f, err := readImage(path)
		if err != nil {
			result.Error = err.Error()
			result.State = sess.State().String()
			return result
		}
		sess.AddFiles(f)
	}

	res, err := sess.Submit(ctx)
	if err != nil {
		result.Error = err.Error()
		result.State = sess.State().String()
		result.ElapsedMS = time.Since(start).Milliseconds()
		return result
	}

	if r.Mode == models.ModeAuto {
		result.Extracted = len(res.Cards)
		result.Statuses = countStatuses(res.Cards)
	} else {
		result.Extracted = len(res.Candidates())
		if r.Confirm && sess.State() == session.ReviewPending {
			added, err := sess.Confirm(ctx)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Statuses = countStatuses(added.Cards)
			}
		}
	}

	result.State = sess.State().String()
	result.Notice = sess.Notice()
	result.ElapsedMS = time.Since(start).Milliseconds()
	return result
}

func readImage(path string) (models.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.File{}, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return models.File{Name: filepath.Base(path), Size: int64(len(data)), Data: data}, nil
}

func countStatuses(cards []models.CardResult) map[string]int {
	counts := make(map[string]int)
	for _, c := range cards {
		counts[string(c.Status)]++
	}
	return counts
}

func summarize(results []Result) Summary {
	s := Summary{Total: len(results), Statuses: make(map[string]int)}
	for _, r := range results {
		if r.Error != "" || r.Notice != "" {
			s.Failed++
		} else {
			s.Succeeded++
		}
		for status, n := range r.Statuses {
			s.Statuses[status] += n
			if status == string(models.StatusOK) {
				s.CardsAdded += n
			}
		}
	}
	return s
}

// sortedStatuses lists status keys with OK first, the rest alphabetically
func sortedStatuses(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == string(models.StatusOK) {
			return true
		}
		if keys[j] == string(models.StatusOK) {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}
