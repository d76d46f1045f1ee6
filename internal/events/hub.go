package events

import "sync"

// Hub fans campaign snapshots out to live subscribers, keyed by job id.
// Delivery is best-effort: a publish with zero subscribers is a no-op, and a
// slow subscriber drops messages rather than stalling the pipeline. Nothing
// is buffered for late subscribers; the poll endpoint is the backstop.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[chan string]struct{})}
}

func (h *Hub) Subscribe(jobID string) chan string {
	ch := make(chan string, 16)
	h.mu.Lock()
	subs, ok := h.topics[jobID]
	if !ok {
		subs = make(map[chan string]struct{})
		h.topics[jobID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(jobID string, ch chan string) {
	h.mu.Lock()
	if subs, ok := h.topics[jobID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(h.topics, jobID)
		}
	}
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Publish(jobID, snapshot string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.topics[jobID] {
		select {
		case ch <- snapshot:
		default:
			// drop if slow
		}
	}
}

// SubscriberCount is for tests and diagnostics.
func (h *Hub) SubscriberCount(jobID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[jobID])
}
