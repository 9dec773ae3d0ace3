package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conn.", 10)
	defer unsub()

	b.Publish(Event{Kind: "conn.ready_state", Timestamp: time.Now(), Payload: 1})

	select {
	case evt := <-ch:
		if evt.Kind != "conn.ready_state" {
			t.Errorf("got kind %q, want conn.ready_state", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestNamespaceFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("nav.", 10)
	defer unsub()

	b.Publish(Event{Kind: "conn.ready_state"})
	b.Publish(Event{Kind: "nav.navigate"})

	select {
	case evt := <-ch:
		if evt.Kind != "nav.navigate" {
			t.Errorf("got kind %q, want nav.navigate", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	// Ensure the conn event was not delivered.
	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected: no more events.
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conn.", 10)
	unsub()

	b.Publish(Event{Kind: "conn.ready_state"})

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
		// Expected.
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("test.", 1)
	defer unsub()

	// Fill buffer.
	b.Publish(Event{Kind: "test.one"})
	// This should be dropped (non-blocking).
	b.Publish(Event{Kind: "test.two"})

	evt := <-ch
	if evt.Kind != "test.one" {
		t.Errorf("got %q, want test.one", evt.Kind)
	}
}

func TestPublishOnNilBus(t *testing.T) {
	var b *Bus
	b.Publish(NewEvent(KindStateChanged, nil))
}

func TestNewEventStampsTime(t *testing.T) {
	before := time.Now()
	evt := NewEvent(KindNavigate, "blocked")
	if evt.Timestamp.Before(before) {
		t.Errorf("timestamp %v before %v", evt.Timestamp, before)
	}
	if evt.Kind != KindNavigate || evt.Payload != "blocked" {
		t.Errorf("event = %+v", evt)
	}
}
