// Package notifier broadcasts taxonomy change events to open SSE streams.
package notifier

import "sync"

// Kind names the entity that changed.
type Kind string

// Event kinds.
const (
	KindCluster Kind = "cluster"
	KindArea    Kind = "area"
	KindTag     Kind = "tag"
	// KindRefresh is sent when the API data changed outside the console
	KindRefresh Kind = "refresh"
)

// Event describes one change. UID is empty for bulk changes.
type Event struct {
	Kind Kind
	UID  string
}

// Affects reports whether a view showing the given kinds should re-render.
// Refresh events affect every view.
func (e Event) Affects(kinds ...Kind) bool {
	if e.Kind == KindRefresh || len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == e.Kind {
			return true
		}
	}
	return false
}

// Notifier fans events out to subscribers. A slow subscriber keeps only the
// most recent pending event; views re-query anyway, so dropping is safe.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	if _, ok := n.listeners[ch]; ok {
		delete(n.listeners, ch)
		close(ch)
	}
	n.mu.Unlock()
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to every subscriber without blocking. A full channel
// has its pending event replaced by ev.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
