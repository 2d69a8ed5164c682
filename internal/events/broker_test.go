package events

import (
	"testing"
	"time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("tiny")

	evt := Event{Type: RunStarted, Instance: "tiny", Data: map[string]any{"run_id": "r1"}}
	b.Publish("tiny", evt)

	select {
	case got := <-ch:
		if got.Type != RunStarted {
			t.Fatalf("got type %s, want %s", got.Type, RunStarted)
		}
		if got.Data["run_id"].(string) != "r1" {
			t.Fatalf("bad payload: %+v", got.Data)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}

	b.Unsubscribe("tiny", ch)
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("channel should be closed after unsubscribe")
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerInstanceIsolation(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("a")
	defer b.Unsubscribe("a", ch)

	b.Publish("b", Event{Type: RunStarted, Instance: "b"})
	select {
	case evt := <-ch:
		t.Fatalf("got event for other instance: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("tiny")
	defer b.Unsubscribe("tiny", ch)

	// Buffer is 8; Publish must not block once it is full.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			b.Publish("tiny", Event{Type: SolverSucceeded, Instance: "tiny"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
