package inbox

import (
	"sync"

	"github.com/xraph/inbox/watcher"
)

// Notification announces a newly arrived event file.
type Notification = watcher.Notification

// hub fans watcher notifications out to subscribers. Delivery is best
// effort: a subscriber that falls behind loses notifications rather than
// blocking the watch goroutine. The store's pending queue stays the
// authoritative source; poll ListEvents for completeness.
type hub struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int
}

func newHub() *hub {
	return &hub{
		subs: make(map[int]chan Notification),
	}
}

func (h *hub) publish(n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		// Don't let slow consumers block the watcher.
		select {
		case ch <- n:
		default:
		}
	}
}

func (h *hub) subscribe() (<-chan Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sid := h.nextID
	h.nextID++
	ch := make(chan Notification, 32)
	h.subs[sid] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[sid]; ok {
			delete(h.subs, sid)
			close(c)
		}
	}

	return ch, cancel
}

// Subscribe returns a channel of new-event notifications and a cancel
// function. The channel is buffered; notifications overflowing the buffer
// are dropped. Only stores with a watchable events root produce
// notifications.
func (in *Inbox) Subscribe() (<-chan Notification, func()) {
	return in.hub.subscribe()
}
