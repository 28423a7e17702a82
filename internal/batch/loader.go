// Package batch runs many notes through the extraction workflow without a
// front-end.
package batch

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Note is one unit of batch input
type Note struct {
	ID     string   `json:"id" parquet:"id,optional"`
	Text   string   `json:"text" parquet:"text,optional"`
	Deck   string   `json:"deck,omitempty" parquet:"deck,optional"`
	Images []string `json:"images,omitempty" parquet:"images,list"`
}

// Loader reads notes from a JSONL or Parquet file
type Loader struct {
	path string
}

// NewLoader creates a loader for path
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads every note. Notes without an ID are numbered by position.
func (l *Loader) Load() ([]Note, error) {
	return l.LoadSample(0)
}

// LoadSample reads at most limit notes; zero means no limit
func (l *Loader) LoadSample(limit int) ([]Note, error) {
	var (
		notes []Note
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(l.path)); ext {
	case ".parquet":
		notes, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		notes, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range notes {
		if notes[i].ID == "" {
			notes[i].ID = fmt.Sprintf("%d", i+1)
		}
	}
	return notes, nil
}

func (l *Loader) loadJSONL(limit int) ([]Note, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open notes file: %w", err)
	}
	defer file.Close()

	var notes []Note
	scanner := bufio.NewScanner(file)

	const maxCapacity = 10 * 1024 * 1024 // 10MB per line
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(notes) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var note Note
		if err := json.Unmarshal(line, &note); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		notes = append(notes, note)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading notes: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "total_notes", len(notes), "total_lines", lineNum)
	return notes, nil
}

func (l *Loader) loadParquet(limit int) ([]Note, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Note](pf)
	defer reader.Close()

	var notes []Note
	rows := make([]Note, 128)
	for {
		n, err := reader.Read(rows)
		if n > 0 {
			notes = append(notes, rows[:n]...)
		}
		if limit > 0 && len(notes) >= limit {
			notes = notes[:limit]
			break
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet file", "total_notes", len(notes))
	return notes, nil
}
