package overlay

import (
	"sync"
)

// Update is one transcription state change as seen by bridge subscribers.
type Update struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Text      string `json:"text"`
}

// Hub fans transcription updates out to subscribers. It implements Observer
// so a session can notify it directly. Slow subscribers miss updates rather
// than blocking pollers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Update]struct{}
}

var _ Observer = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Update]struct{})}
}

// OnTranscriptionUpdate implements Observer.
func (h *Hub) OnTranscriptionUpdate(messageID string, status UpdateStatus, text string) {
	update := Update{
		MessageID: messageID,
		Status:    string(status),
		Text:      text,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// Subscribe registers a new subscriber channel.
func (h *Hub) Subscribe() chan Update {
	ch := make(chan Update, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber.
func (h *Hub) Unsubscribe(ch chan Update) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}
