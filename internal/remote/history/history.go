// Package history keeps the remote's most recent command outcomes.
package history

import "github.com/zortness/mag-loop-controller/internal/debug"

// DefaultCapacity is the number of entries that fit on the control screen.
const DefaultCapacity = 5

// Entry is one recorded outcome. Entries are never modified after Add.
type Entry struct {
	Text string
}

// Log is a fixed-capacity FIFO. When full, Add evicts the oldest entry.
// It is owned by the remote's poll loop and is not safe for concurrent use.
type Log struct {
	entries []Entry
	start   int
	count   int
}

// New creates a log holding at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, capacity)}
}

// Add appends text, evicting the oldest entry first if the log is full.
func (l *Log) Add(text string) {
	if l.count == len(l.entries) {
		debug.Verbose("History: removed %q", l.entries[l.start].Text)
		l.entries[l.start] = Entry{Text: text}
		l.start = (l.start + 1) % len(l.entries)
		return
	}
	l.entries[(l.start+l.count)%len(l.entries)] = Entry{Text: text}
	l.count++
}

// Entries returns the retained entries, oldest first. The log is not modified.
func (l *Log) Entries() []Entry {
	out := make([]Entry, l.count)
	for i := range out {
		out[i] = l.entries[(l.start+i)%len(l.entries)]
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int { return l.count }

// Cap returns the capacity.
func (l *Log) Cap() int { return len(l.entries) }
