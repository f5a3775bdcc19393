package memory

import (
	"context"
	"sync"
)

// watcher re-runs a query and hands the result to its callback whenever it
// is poked. Pokes coalesce, so a slow callback sees the latest state rather
// than every intermediate one.
type watcher struct {
	topic  string
	poke   chan struct{}
	stop   chan struct{}
	once   sync.Once
	onPoke func()
}

func (w *watcher) run(ctx context.Context, done func()) {
	defer done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-w.poke:
			w.onPoke()
		}
	}
}

func (w *watcher) notify() {
	select {
	case w.poke <- struct{}{}:
	default:
	}
}

func (w *watcher) close() {
	w.once.Do(func() { close(w.stop) })
}

type watchHub struct {
	mu     sync.Mutex
	topics map[string]map[*watcher]struct{}
}

func newWatchHub() *watchHub {
	return &watchHub{topics: make(map[string]map[*watcher]struct{})}
}

// subscribe registers fn under topic and triggers an initial delivery.
func (h *watchHub) subscribe(ctx context.Context, topic string, fn func()) func() {
	w := &watcher{
		topic:  topic,
		poke:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		onPoke: fn,
	}

	h.mu.Lock()
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*watcher]struct{})
	}
	h.topics[topic][w] = struct{}{}
	h.mu.Unlock()

	go w.run(ctx, func() { h.remove(w) })
	w.notify()

	return w.close
}

func (h *watchHub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.topics[w.topic]; ok {
		delete(set, w)
		if len(set) == 0 {
			delete(h.topics, w.topic)
		}
	}
}

func (h *watchHub) publish(topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		for w := range h.topics[t] {
			w.notify()
		}
	}
}

// count is the number of live watchers on topic.
func (h *watchHub) count(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}

func roomTopic(roomID string) string { return "room:" + roomID }
func userTopic(userID string) string { return "user:" + userID }
