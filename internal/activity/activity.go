// Package activity keeps a bounded, newest-first, in-memory log of count
// changes for the current process. Nothing is persisted.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/stockcount/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 500

// Change descriptions.
const (
	ChangeAdded    = "item added"
	ChangeImported = "count imported"
	ChangeRecorded = "count recorded"
)

// LogEntry is one change to an inventory row. Item is the row as it was
// after the change.
type LogEntry struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"timestamp"`
	Item      types.InventoryItem `json:"item"`
	Change    string              `json:"change"`
}

// Log is safe for concurrent use. Once full, the oldest entries are
// dropped.
type Log struct {
	mu       sync.Mutex
	entries  []LogEntry // oldest first
	capacity int
	now      func() time.Time
}

// New returns an empty log holding at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity, now: time.Now}
}

// Add records one change and returns the entry.
func (l *Log) Add(item types.InventoryItem, change string) LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(item, change, l.now())
}

// AddAll records the same change for every item under one timestamp.
func (l *Log) AddAll(items []types.InventoryItem, change string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := l.now()
	for _, it := range items {
		l.appendLocked(it, change, ts)
	}
}

func (l *Log) appendLocked(item types.InventoryItem, change string, ts time.Time) LogEntry {
	e := LogEntry{ID: uuid.NewString(), Timestamp: ts, Item: item, Change: change}
	l.entries = append(l.entries, e)
	if over := len(l.entries) - l.capacity; over > 0 {
		l.entries = append(l.entries[:0:0], l.entries[over:]...)
	}
	return e
}

// Entries returns a copy of the log, newest first.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}
	return out
}

// Items returns the logged rows, newest first, for export.
func (l *Log) Items() []types.InventoryItem {
	entries := l.Entries()
	items := make([]types.InventoryItem, len(entries))
	for i, e := range entries {
		items[i] = e.Item
	}
	return items
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
