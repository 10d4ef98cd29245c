package uichannel

import (
	"sync"
	"time"
)

const (
	historyLimit    = 256
	subscriberQueue = 64
)

// Hub fans run messages out to subscribers. Each run keeps a bounded history
// so late subscribers see everything published so far.
type Hub struct {
	mu   sync.Mutex
	runs map[string]*runTopic
	now  func() time.Time
}

type runTopic struct {
	history []Message
	subs    map[chan Message]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{runs: make(map[string]*runTopic), now: time.Now}
}

func (h *Hub) topic(runID string) *runTopic {
	t, ok := h.runs[runID]
	if !ok {
		t = &runTopic{subs: make(map[chan Message]struct{})}
		h.runs[runID] = t
	}
	return t
}

// Publish records msg under msg.RunID and delivers it to subscribers. A
// subscriber whose queue is full misses the message rather than blocking the
// run. Terminal messages close all subscriptions of the run.
func (h *Hub) Publish(msg Message) {
	if msg.At.IsZero() {
		msg.At = h.now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.topic(msg.RunID)
	if t.closed {
		return
	}
	if len(t.history) >= historyLimit {
		t.history = t.history[1:]
	}
	t.history = append(t.history, msg)

	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	if msg.Type.Terminal() {
		t.closed = true
		for ch := range t.subs {
			close(ch)
		}
		t.subs = make(map[chan Message]struct{})
	}
}

// Subscribe replays the run's history and then streams new messages. The
// channel closes after a terminal message or when cancel is called.
func (h *Hub) Subscribe(runID string) (<-chan Message, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := h.topic(runID)
	ch := make(chan Message, subscriberQueue+len(t.history))
	for _, m := range t.history {
		ch <- m
	}
	if t.closed {
		close(ch)
		return ch, func() {}
	}
	t.subs[ch] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := t.subs[ch]; ok {
				delete(t.subs, ch)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// History returns a copy of the messages recorded for a run.
func (h *Hub) History(runID string) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.runs[runID]
	if !ok {
		return nil
	}
	return append([]Message(nil), t.history...)
}

// Forget drops a run's history and closes its subscriptions.
func (h *Hub) Forget(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.runs[runID]
	if !ok {
		return
	}
	for ch := range t.subs {
		close(ch)
	}
	t.subs = make(map[chan Message]struct{})
	delete(h.runs, runID)
}
