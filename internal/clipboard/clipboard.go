// Package clipboard delivers paste events to whoever currently owns the
// capture surface. Subscriptions are scoped: each one must be released by
// calling the func returned from Subscribe.
package clipboard

import (
	"sync"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// Paste is one clipboard paste: plain text, images, or both
type Paste struct {
	Text   string
	Images []models.File
}

// Empty reports whether the paste carried anything usable
func (p Paste) Empty() bool {
	return p.Text == "" && len(p.Images) == 0
}

// Feed fans paste events out to subscribers
type Feed struct {
	mu   sync.RWMutex
	subs map[uint64]func(Paste)
	next uint64
}

// NewFeed creates an empty feed
func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]func(Paste))}
}

// Subscribe registers fn and returns the func that removes it.
// The returned func is safe to call more than once.
func (f *Feed) Subscribe(fn func(Paste)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers p to every subscriber and returns how many received it.
// Empty pastes are dropped.
func (f *Feed) Publish(p Paste) int {
	if p.Empty() {
		return 0
	}

	f.mu.RLock()
	handlers := make([]func(Paste), 0, len(f.subs))
	for _, fn := range f.subs {
		handlers = append(handlers, fn)
	}
	f.mu.RUnlock()

	for _, fn := range handlers {
		fn(p)
	}
	return len(handlers)
}

// Len returns the number of live subscriptions
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
