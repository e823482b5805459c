package queue

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rosterdesk/roster/internal/core/domain"
)

func waitEvent(t *testing.T, ch <-chan domain.SessionEvent) domain.SessionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session event")
		return domain.SessionEvent{}
	}
}

func TestDispatcher_DeliversToSessionSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(2, zerolog.Nop())
	d.Start(ctx)

	a1, cancelA1 := d.Subscribe("sess-a")
	defer cancelA1()
	a2, cancelA2 := d.Subscribe("sess-a")
	defer cancelA2()
	b, cancelB := d.Subscribe("sess-b")
	defer cancelB()

	d.Enqueue(ctx, domain.SessionEvent{SessionID: "sess-a", Reason: domain.ReasonSignedOut})

	if ev := waitEvent(t, a1); ev.Reason != domain.ReasonSignedOut {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev := waitEvent(t, a2); ev.SessionID != "sess-a" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	select {
	case ev := <-b:
		t.Fatalf("subscriber of another session received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDispatcher_CancelledSubscriberIsRemoved(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())

	_, cancel := d.Subscribe("sess-a")
	cancel()
	cancel() // idempotent

	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.subs["sess-a"]; ok {
		t.Fatal("expected subscription map entry to be removed")
	}
}

func TestDispatcher_ConsumeStopsWhenSourceCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1, zerolog.Nop())
	d.Start(ctx)
	sub, unsubscribe := d.Subscribe("sess-x")
	defer unsubscribe()

	src := make(chan domain.SessionEvent, 1)
	src <- domain.SessionEvent{SessionID: "sess-x", Reason: domain.ReasonExpired}
	close(src)

	done := make(chan struct{})
	go func() {
		d.Consume(ctx, src)
		close(done)
	}()

	if ev := waitEvent(t, sub); ev.Reason != domain.ReasonExpired {
		t.Fatalf("unexpected event: %+v", ev)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after source closed")
	}
}

func TestDispatcher_ConsumeReturnsOnCancelWithFullShard(t *testing.T) {
	// Workers never start, so the single shard fills and stays full.
	d := NewDispatcher(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	src := make(chan domain.SessionEvent)
	done := make(chan struct{})
	go func() {
		d.Consume(ctx, src)
		close(done)
	}()

	for i := 0; i < channelBuffer; i++ {
		src <- domain.SessionEvent{SessionID: "sess-x", Reason: domain.ReasonExpired}
	}
	// Consume takes this one and blocks on the full shard.
	src <- domain.SessionEvent{SessionID: "sess-x", Reason: domain.ReasonSignedOut}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Consume did not return after cancel while the shard was full")
	}
}

func TestDispatcher_EnqueueReportsCancelledContext(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(context.Background(), domain.SessionEvent{SessionID: "sess-x"}) {
			t.Fatalf("enqueue %d refused with buffer space left", i)
		}
	}
	if d.Enqueue(ctx, domain.SessionEvent{SessionID: "sess-x"}) {
		t.Fatal("expected Enqueue to give up on a full shard once ctx is done")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, zerolog.Nop())
	first := d.shardIndex("abc")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("abc"); got != first {
			t.Fatalf("shard index changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
