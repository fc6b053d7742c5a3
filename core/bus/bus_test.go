package bus

import "testing"

func TestBus_subscribe(t *testing.T) {
	b := New()
	ch := make(chan Event, 1)

	tests := []struct {
		name    string
		id      string
		ch      chan<- Event
		wantErr error
	}{
		{name: "ok", id: "a", ch: ch},
		{name: "duplicate id", id: "a", ch: ch, wantErr: ErrSubscriberExists},
		{name: "nil channel", id: "b", ch: nil, wantErr: ErrNilChannel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := b.Subscribe(tt.id, tt.ch); err != tt.wantErr {
				t.Errorf("Subscribe() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBus_publishDeliversToAll(t *testing.T) {
	b := New()
	ch1 := make(chan Event, 1)
	ch2 := make(chan Event, 1)
	if err := b.Subscribe("one", ch1); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	if err := b.Subscribe("two", ch2); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	ev := Event{StudentID: "std1", HasFaceData: true, ImageCount: 12}
	b.Publish(ev)

	for _, ch := range []chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got != ev {
				t.Errorf("received %+v, want %+v", got, ev)
			}
		default:
			t.Fatal("expected an event to be delivered")
		}
	}
	if n := b.Published(); n != 1 {
		t.Errorf("Published() = %d, want 1", n)
	}
}

func TestBus_publishNeverBlocks(t *testing.T) {
	b := New()
	full := make(chan Event) // unbuffered and never drained
	if err := b.Subscribe("slow", full); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	b.Publish(Event{StudentID: "std1"})
	b.Publish(Event{StudentID: "std1", ImageCount: 3})

	stats, err := b.Stats("slow")
	if err != nil {
		t.Fatalf("Stats() failed: %v", err)
	}
	if stats.Delivered != 0 {
		t.Errorf("Delivered = %d, want 0", stats.Delivered)
	}
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", stats.Dropped)
	}
}

func TestBus_unsubscribedReceivesNothing(t *testing.T) {
	b := New()
	ch := make(chan Event, 4)
	if err := b.Subscribe("a", ch); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	if err := b.Unsubscribe("a"); err != nil {
		t.Fatalf("Unsubscribe() failed: %v", err)
	}
	if err := b.Unsubscribe("a"); err != ErrSubscriberNotFound {
		t.Errorf("Unsubscribe() error = %v, want %v", err, ErrSubscriberNotFound)
	}

	b.Publish(Event{StudentID: "std1"})
	if len(ch) != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d", len(ch))
	}
}

func TestBus_close(t *testing.T) {
	b := New()
	ch := make(chan Event, 1)
	if err := b.Subscribe("a", ch); err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	b.Close()
	b.Publish(Event{StudentID: "std1"})
	if len(ch) != 0 {
		t.Errorf("expected no delivery after close, got %d", len(ch))
	}
	if err := b.Subscribe("b", make(chan Event, 1)); err != ErrBusClosed {
		t.Errorf("Subscribe() error = %v, want %v", err, ErrBusClosed)
	}
}
