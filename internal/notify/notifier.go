// Package notify is the transient notification feed: the success and error
// messages views raise after remote calls. Nothing here is retained beyond
// its display window.
package notify

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level of a notification
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Info    Level = "info"
)

// DefaultDuration is how long a notification stays visible
const DefaultDuration = 3 * time.Second

// Notification is one message
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Feed collects notifications and fans them out to subscribers
type Feed struct {
	mu       sync.Mutex
	items    []Notification
	subs     []func(Notification)
	duration time.Duration
	now      func() time.Time
}

// NewFeed creates a feed whose items expire after duration
func NewFeed(duration time.Duration) *Feed {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Feed{duration: duration, now: time.Now}
}

// Subscribe registers fn for every new notification
func (f *Feed) Subscribe(fn func(Notification)) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// Success raises a success notification
func (f *Feed) Success(msg string) Notification { return f.push(Success, msg) }

// Error raises an error notification
func (f *Feed) Error(msg string) Notification { return f.push(Error, msg) }

// Info raises an informational notification
func (f *Feed) Info(msg string) Notification { return f.push(Info, msg) }

func (f *Feed) push(level Level, msg string) Notification {
	n := Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   msg,
		CreatedAt: f.now(),
	}

	f.mu.Lock()
	f.prune()
	f.items = append(f.items, n)
	subs := append([]func(Notification){}, f.subs...)
	f.mu.Unlock()

	if level == Error {
		log.Printf("notify: %s", msg)
	}
	for _, s := range subs {
		s(n)
	}
	return n
}

// Active returns the notifications still inside their display window
func (f *Feed) Active() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prune()
	return append([]Notification(nil), f.items...)
}

// Dismiss removes a notification by id
func (f *Feed) Dismiss(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.items {
		if n.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return true
		}
	}
	return false
}

func (f *Feed) prune() {
	cutoff := f.now().Add(-f.duration)
	kept := f.items[:0]
	for _, n := range f.items {
		if n.CreatedAt.After(cutoff) {
			kept = append(kept, n)
		}
	}
	f.items = kept
}
