package live

import (
	"fmt"
	"testing"
)

func TestLog_newestFirst(t *testing.T) {
	l := NewLog(10)
	for i := 0; i < 3; i++ {
		l.Add(LogEntry{ID: fmt.Sprintf("e%d", i)})
	}

	got := l.Entries()
	if len(got) != 3 {
		t.Fatalf("Len = %d, want 3", len(got))
	}
	want := []string{"e2", "e1", "e0"}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.ID, want[i])
		}
	}
}

func TestLog_evictsOldestPastCapacity(t *testing.T) {
	l := NewLog(5)
	for i := 0; i < 8; i++ {
		l.Add(LogEntry{ID: fmt.Sprintf("e%d", i)})
	}

	got := l.Entries()
	if len(got) != 5 {
		t.Fatalf("Len = %d, want 5", len(got))
	}
	if got[0].ID != "e7" {
		t.Errorf("newest = %q, want e7", got[0].ID)
	}
	if got[4].ID != "e3" {
		t.Errorf("oldest kept = %q, want e3", got[4].ID)
	}
}

func TestLog_defaultCapacity(t *testing.T) {
	l := NewLog(0)
	for i := 0; i < 60; i++ {
		l.Add(LogEntry{ID: fmt.Sprintf("e%d", i)})
	}
	if got := l.Len(); got != 50 {
		t.Errorf("Len = %d, want 50", got)
	}
}
