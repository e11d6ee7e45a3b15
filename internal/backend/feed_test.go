package backend

import (
	"testing"
	"time"

	"github.com/sshdeck/sshdeck/internal/model"
)

func TestFeedDeliversToEverySubscriber(t *testing.T) {
	feed := NewFeed[StatusEvent]()
	first := feed.Subscribe()
	second := feed.Subscribe()

	feed.Publish(StatusEvent{ConnectionID: "c1", Status: model.Connecting()})

	for i, sub := range []*Subscription[StatusEvent]{first, second} {
		select {
		case evt := <-sub.C:
			if evt.ConnectionID != "c1" {
				t.Fatalf("subscriber %d got %q", i, evt.ConnectionID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestFeedPublishNeverBlocksOnSlowConsumer(t *testing.T) {
	feed := NewFeed[TerminalEvent]()
	sub := feed.Subscribe()

	// Fill past the buffer without draining; Publish must drop, not stall.
	done := make(chan struct{})
	go func() {
		for i := 0; i < feedBuffer*2; i++ {
			feed.Publish(TerminalEvent{ConnectionID: "c1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publish blocked on a slow consumer")
	}

	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	if received != feedBuffer {
		t.Fatalf("expected %d buffered events, got %d", feedBuffer, received)
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	feed := NewFeed[TransferEvent]()
	sub := feed.Subscribe()
	sub.Close()
	sub.Close()

	// Publishing after close must not panic or deliver.
	feed.Publish(TransferEvent{})
	if _, ok := <-sub.C; ok {
		t.Fatalf("expected closed channel")
	}
}

func TestClosedSubscriptionStopsReceiving(t *testing.T) {
	feed := NewFeed[StatusEvent]()
	kept := feed.Subscribe()
	dropped := feed.Subscribe()
	dropped.Close()

	feed.Publish(StatusEvent{ConnectionID: "c1"})
	select {
	case evt := <-kept.C:
		if evt.ConnectionID != "c1" {
			t.Fatalf("unexpected event %#v", evt)
		}
	case <-time.After(time.Second):
		t.Fatalf("remaining subscriber never received the event")
	}
}
