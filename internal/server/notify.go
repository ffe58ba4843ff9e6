package server

import (
	"sync"
	"time"
)

// Notification is one message the host would render on screen.
type Notification struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Feed is an in-process Notifier that buffers messages for the
// notifications endpoint. Fire-and-forget: a full buffer drops the oldest.
type Feed struct {
	mu    sync.Mutex
	max   int
	items []Notification
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 100
	}
	return &Feed{max: max}
}

func (f *Feed) Notify(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, Notification{Message: message, At: time.Now()})
	if len(f.items) > f.max {
		f.items = f.items[len(f.items)-f.max:]
	}
}

// List returns the buffered notifications, oldest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}
