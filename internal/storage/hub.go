package storage

import (
	"context"
	"sync"
)

const watchBuffer = 32

type watchEntry struct {
	origin string
	ch     chan Change
}

// hub fans change signals out to local watchers. Delivery never blocks the
// writer: a full buffer drops the signal, which is safe because watchers re-read
// the backend and a queued signal will observe the newer value.
type hub struct {
	mu       sync.Mutex
	next     int
	watchers map[string]map[int]*watchEntry
}

func newHub() *hub {
	return &hub{watchers: map[string]map[int]*watchEntry{}}
}

func hubKey(scope, key string) string {
	return scope + "\x00" + key
}

func (h *hub) watch(ctx context.Context, scope, key string) <-chan Change {
	entry := &watchEntry{
		origin: OriginFromContext(ctx),
		ch:     make(chan Change, watchBuffer),
	}
	k := hubKey(scope, key)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.watchers[k] == nil {
		h.watchers[k] = map[int]*watchEntry{}
	}
	h.watchers[k][id] = entry
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.watchers[k], id)
		if len(h.watchers[k]) == 0 {
			delete(h.watchers, k)
		}
		h.mu.Unlock()
		close(entry.ch)
	}()

	return entry.ch
}

func (h *hub) publish(change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, entry := range h.watchers[hubKey(change.Scope, change.Key)] {
		if change.Origin != "" && change.Origin == entry.origin {
			continue
		}
		select {
		case entry.ch <- change:
		default:
		}
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, set := range h.watchers {
		n += len(set)
	}
	return n
}
