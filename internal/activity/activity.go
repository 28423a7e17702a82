// Package activity keeps the append-only record of what happened during a
// session and turns entries into display views.
package activity

import (
	"encoding/json"
	"sync"
	"time"
)

// Kind is decided by whoever creates the entry, never re-derived from text
type Kind string

const (
	KindPlain  Kind = "plain"
	KindResult Kind = "result"
)

// Entry is one immutable log line
type Entry struct {
	Seq   int       `json:"seq" yaml:"seq"`
	At    time.Time `json:"at" yaml:"at"`
	Kind  Kind      `json:"kind" yaml:"kind"`
	Label string    `json:"label,omitempty" yaml:"label,omitempty"`
	Raw   string    `json:"raw" yaml:"raw"`
}

// Log is safe for concurrent use
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// New returns an empty log
func New() *Log {
	return &Log{now: time.Now}
}

// Plain appends a human-readable message
func (l *Log) Plain(text string) Entry {
	return l.Append(Entry{Kind: KindPlain, Raw: text})
}

// Result appends a structured backend response under label
func (l *Log) Result(label string, raw json.RawMessage) Entry {
	return l.Append(Entry{Kind: KindResult, Label: label, Raw: string(raw)})
}

// Append stamps e with its position and time and stores it
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.Seq = len(l.entries) + 1
	if e.At.IsZero() {
		e.At = l.now()
	}
	if e.Kind == "" {
		e.Kind = KindPlain
	}
	l.entries = append(l.entries, e)
	return e
}

// Entries returns the log in insertion order
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Newest returns the log newest first
func (l *Log) Newest() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
