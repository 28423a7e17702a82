// Package transcript exports a session's activity log as YAML.
package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/flashcarder/internal/activity"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
	"gopkg.in/yaml.v3"
)

// Header describes the session the transcript was taken from
type Header struct {
	SessionID  string `yaml:"session_id"`
	Deck       string `yaml:"deck"`
	Mode       string `yaml:"mode"`
	State      string `yaml:"state"`
	ExportedAt string `yaml:"exported_at"`
}

// Entry is one log line; result entries also carry a count per status
type Entry struct {
	Seq     int            `yaml:"seq"`
	At      time.Time      `yaml:"at"`
	Kind    activity.Kind  `yaml:"kind"`
	Label   string         `yaml:"label,omitempty"`
	Raw     string         `yaml:"raw"`
	Summary map[string]int `yaml:"summary,omitempty"`
}

// Transcript is the complete document
type Transcript struct {
	Session Header  `yaml:"session"`
	Entries []Entry `yaml:"entries"`
}

// FromSession builds a transcript in log order
func FromSession(s *session.Session) Transcript {
	snap := s.Snapshot()
	t := Transcript{
		Session: Header{
			SessionID:  snap.ID,
			Deck:       snap.Deck,
			Mode:       string(snap.Mode),
			State:      snap.State.String(),
			ExportedAt: time.Now().Format(time.RFC3339),
		},
	}

	entries := s.Log().Entries()
	t.Entries = make([]Entry, 0, len(entries))
	for _, e := range entries {
		out := Entry{Seq: e.Seq, At: e.At, Kind: e.Kind, Label: e.Label, Raw: e.Raw}
		if v := activity.Format(e); len(v.Groups) > 0 {
			out.Summary = make(map[string]int, len(v.Groups))
			for _, g := range v.Groups {
				out.Summary[string(g.Status)] = len(g.Cards)
			}
		}
		t.Entries = append(t.Entries, out)
	}
	return t
}

// Encode writes t as YAML
func Encode(w io.Writer, t Transcript) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&t); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

// Decode reads a transcript written by Encode
func Decode(r io.Reader) (Transcript, error) {
	var t Transcript
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return t, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return t, nil
}

// Save writes t to path, creating parent directories
func Save(path string, t Transcript) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&t)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
