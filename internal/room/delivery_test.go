package room

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-caption-room-service/internal/models"
)

func TestDelivery_FIFOOrder(t *testing.T) {
	r := newTestRegistry(t, DefaultOptions())
	id := r.CreateRoom()

	q, err := r.Subscribe(id, "client", nil, true)
	if err != nil {
		t.Fatal(err)
	}

	texts := []string{"one", "two", "three", "four"}
	for _, text := range texts {
		r.PushTranscription(id, models.Transcription(0, text, false))
	}
	// Closing the queue via unsubscribe ends the delivery loop after the
	// buffered messages drain.
	r.Unsubscribe(id, "client")

	var got []string
	d := NewDelivery(r, id, "client", q)
	err = d.Run(context.Background(), func(m models.Message) error {
		got = append(got, *m.Volatile)
		return nil
	})
	if err != nil {
		t.Fatalf("delivery returned error: %v", err)
	}

	if len(got) != len(texts) {
		t.Fatalf("expected %d messages, got %d", len(texts), len(got))
	}
	for i, text := range texts {
		if got[i] != text {
			t.Errorf("message %d: expected %q, got %q", i, text, got[i])
		}
	}
}

func TestDelivery_CancelUnsubscribes(t *testing.T) {
	r := newTestRegistry(t, DefaultOptions())
	id := r.CreateRoom()

	q, err := r.Subscribe(id, "client", []string{"de"}, true)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		d := NewDelivery(r, id, "client", q)
		done <- d.Run(ctx, func(models.Message) error { return nil })
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("delivery did not stop after cancellation")
	}

	rm, _ := r.room(id)
	if members := memberIDs(rm); len(members) != 0 {
		t.Errorf("expected no memberships after disconnect, got %v", members)
	}
	if queues := queueIDs(rm); len(queues) != 0 {
		t.Errorf("expected no queues after disconnect, got %v", queues)
	}
}

func TestDelivery_SendErrorStopsAndCleansUp(t *testing.T) {
	r := newTestRegistry(t, DefaultOptions())
	id := r.CreateRoom()

	q, err := r.Subscribe(id, "client", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	r.PushTranscription(id, models.Transcription(0, "hello", false))

	sendErr := errors.New("wire broken")
	d := NewDelivery(r, id, "client", q)
	if err := d.Run(context.Background(), func(models.Message) error { return sendErr }); !errors.Is(err, sendErr) {
		t.Errorf("expected send error, got %v", err)
	}

	rm, _ := r.room(id)
	if queues := queueIDs(rm); len(queues) != 0 {
		t.Errorf("expected queue removed after send failure, got %v", queues)
	}
}
