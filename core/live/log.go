package live

import (
	"sync"
	"time"
)

// LogAction classifies a recognition log entry.
type LogAction string

const (
	ActionAutoMarked    LogAction = "auto_marked"
	ActionManualConfirm LogAction = "manual_confirm"
	ActionIgnored       LogAction = "ignored"
)

// LogEntry is one recognition event as shown in the dashboard feed.
type LogEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	StudentName string    `json:"student_name"`
	Confidence  float64   `json:"confidence"`
	Action      LogAction `json:"action"`
}

// Log is a bounded, newest-first ring of recognition events.
type Log struct {
	mu       sync.Mutex
	capacity int
	entries  []LogEntry
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 50
	}
	return &Log{capacity: capacity}
}

// Add prepends e, evicting the oldest entry past capacity.
func (l *Log) Add(e LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]LogEntry{e}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
}

// Entries returns a newest-first snapshot.
func (l *Log) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]LogEntry, len(l.entries))
	copy(cp, l.entries)
	return cp
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
