package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// subscriberBuffer is the per-client queue depth. Slower clients drop events.
const subscriberBuffer = 64

// StatusEvent is one line of the controller status feed.
type StatusEvent struct {
	Time  string `json:"t"`
	Level string `json:"l,omitempty"`
	Msg   string `json:"msg"`
}

// StatusFeed fans controller log lines and move summaries out to SSE
// clients. The most recent events are replayed to new subscribers so a
// client that connects after a move still sees it.
type StatusFeed struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	backlog []string
	keep    int
	now     func() time.Time
}

// NewStatusFeed creates a feed that replays up to keep events.
func NewStatusFeed(keep int) *StatusFeed {
	if keep < 0 {
		keep = 0
	}
	return &StatusFeed{
		clients: make(map[chan string]struct{}),
		keep:    keep,
		now:     time.Now,
	}
}

// Subscribe returns a channel of JSON-encoded events and a cleanup function.
// The caller must call the cleanup on client disconnect.
func (f *StatusFeed) Subscribe() (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)

	f.mu.Lock()
	for _, payload := range f.backlog {
		select {
		case ch <- payload:
		default:
		}
	}
	f.clients[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.clients, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Subscribers returns the number of connected clients.
func (f *StatusFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Publish sends an event to every client as {"t":"...","l":"info","msg":"..."}.
// It never blocks: a client with a full queue misses the event.
func (f *StatusFeed) Publish(level, msg string) {
	data, err := json.Marshal(StatusEvent{
		Time:  f.now().Format(time.RFC3339),
		Level: level,
		Msg:   msg,
	})
	if err != nil {
		return
	}
	payload := string(data)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keep > 0 {
		f.backlog = append(f.backlog, payload)
		if len(f.backlog) > f.keep {
			f.backlog = f.backlog[len(f.backlog)-f.keep:]
		}
	}
	for ch := range f.clients {
		select {
		case ch <- payload:
		default:
		}
	}
}

// Writer returns an io.Writer that publishes each non-empty write at
// level "log", for use with debug.SetOutput.
func (f *StatusFeed) Writer() *feedWriter {
	return &feedWriter{f: f}
}

type feedWriter struct {
	f *StatusFeed
}

func (w *feedWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.f.Publish("log", line)
		}
	}
	return len(p), nil
}
