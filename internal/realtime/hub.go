package realtime

import (
	"sync"

	"marketplace-catalog/internal/model"
)

// TopicCatalog receives every catalog change; per-kind topics are
// "catalog.item", "catalog.vendor" and so on.
const TopicCatalog = "catalog"

// TopicFor returns the per-kind topic of a change.
func TopicFor(kind model.ChangeKind) string {
	return TopicCatalog + "." + string(kind)
}

type Handler func(model.CatalogChange)

// Unsubscribe removes the subscription it was returned for. Calling it more
// than once is a no-op.
type Unsubscribe func()

// Subscriber is the capability handed to code that wants change pushes.
type Subscriber interface {
	Subscribe(topic string, h Handler) Unsubscribe
}

// Hub fans changes out to in-process subscribers.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint64]Handler
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[uint64]Handler)}
}

func (h *Hub) Subscribe(topic string, handler Handler) Unsubscribe {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]Handler)
	}
	h.subs[topic][id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[topic], id)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
		})
	}
}

// Publish delivers c to subscribers of TopicCatalog and of its kind topic.
// Handlers run synchronously on the caller's goroutine and must not block.
func (h *Hub) Publish(c model.CatalogChange) {
	for _, handler := range h.handlers(TopicCatalog, TopicFor(c.Kind)) {
		handler(c)
	}
}

func (h *Hub) handlers(topics ...string) []Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Handler
	for _, t := range topics {
		for _, handler := range h.subs[t] {
			out = append(out, handler)
		}
	}
	return out
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
