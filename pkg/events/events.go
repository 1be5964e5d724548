// Package events is the in-process fan-out hub for library activity. Emission
// is fire and forget: a slow subscriber drops events instead of stalling the
// scan pipeline.
package events

import (
	"sync"
	"time"
)

const (
	TypeBookAdded         = "book-added"
	TypeBookUpdated       = "book-updated"
	TypeBookMoved         = "book-moved"
	TypeBookRevived       = "book-revived"
	TypeDuplicateDetected = "duplicate-detected"
)

// Event is one library activity notification.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	BookID    int       `json:"book_id,omitempty"`
	LibraryID int       `json:"library_id,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Hub fans events out to subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewHub() *Hub {
	return &Hub{
		subs: map[int]chan Event{},
	}
}

// Publish delivers the event to every subscriber. Subscribers with a full
// buffer miss the event.
func (h *Hub) Publish(evt Event) {
	if h == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub <- evt:
		default:
		}
	}
}

// Subscribe registers a buffered subscriber channel. The returned cancel
// function removes the subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}

	h.mu.Lock()
	id := h.next
	h.next++
	ch := make(chan Event, buffer)
	h.subs[id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}
