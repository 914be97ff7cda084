package chatclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubFetcher struct {
	messages map[int64][]Message
	err      error
}

func (f *stubFetcher) ListMessages(_ context.Context, conversationID int64) ([]Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messages[conversationID], nil
}

func message(id, conversationID int64, content string) Message {
	return Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       1,
		ReceiverID:     2,
		Content:        content,
		CreatedAt:      time.Date(2026, 4, 1, 10, 0, 0, int(id), time.UTC),
	}
}

func TestSelectLoadsThreadHistory(t *testing.T) {
	fetcher := &stubFetcher{messages: map[int64][]Message{
		5: {message(1, 5, "hi"), message(2, 5, "hello")},
	}}
	store := NewThreadStore(fetcher)

	if err := store.Select(context.Background(), 5); err != nil {
		t.Fatalf("Select: %v", err)
	}

	if store.State() != StateLoaded {
		t.Fatalf("expected Loaded state, got %v", store.State())
	}
	entries := store.Snapshot()
	if len(entries) != 2 || entries[0].Message.ID != 1 || entries[1].Message.ID != 2 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	for _, entry := range entries {
		if entry.JustArrived {
			t.Fatal("loaded history must not carry the JustArrived marker")
		}
	}
}

func TestSelectFailureLeavesStoreUnloaded(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("boom")}
	store := NewThreadStore(fetcher)

	if err := store.Select(context.Background(), 5); err == nil {
		t.Fatal("expected load error")
	}
	if store.State() == StateLoaded {
		t.Fatal("failed load must not mark the thread loaded")
	}
	if entries := store.Snapshot(); len(entries) != 0 {
		t.Fatalf("expected empty list after failed load, got %+v", entries)
	}
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	store := NewThreadStore(&stubFetcher{})

	// A load for thread 5 starts, then the user switches to thread 6 before
	// it completes. The old result must not overwrite thread 6's view.
	staleGen := store.beginSelect(5)
	store.beginSelect(6)
	store.completeLoad(staleGen, []Message{message(1, 5, "old thread")})

	if store.Selected() != 6 {
		t.Fatalf("expected selection 6, got %d", store.Selected())
	}
	if store.State() != StateLoading {
		t.Fatalf("expected thread 6 to still be loading, got %v", store.State())
	}
	if entries := store.Snapshot(); len(entries) != 0 {
		t.Fatalf("stale load leaked into the new thread: %+v", entries)
	}
}

func TestOptimisticAndPassiveAppendsConverge(t *testing.T) {
	fetcher := &stubFetcher{messages: map[int64][]Message{5: {}}}
	store := NewThreadStore(fetcher)
	if err := store.Select(context.Background(), 5); err != nil {
		t.Fatalf("Select: %v", err)
	}

	sent := message(10, 5, "mine")
	received := message(11, 5, "theirs")
	store.Apply(Event{Kind: EventSent, Message: &sent})
	store.Apply(Event{Kind: EventReceived, Message: &received})

	entries := store.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].JustArrived {
		t.Fatal("optimistic append must not be marked JustArrived")
	}
	if !entries[1].JustArrived {
		t.Fatal("pushed append must be marked JustArrived")
	}

	// The marker is transient: it is cleared once a snapshot has seen it.
	entries = store.Snapshot()
	if entries[1].JustArrived {
		t.Fatal("JustArrived must be cleared after one snapshot")
	}
}

func TestAppendIsIdempotentByID(t *testing.T) {
	fetcher := &stubFetcher{messages: map[int64][]Message{5: {}}}
	store := NewThreadStore(fetcher)
	if err := store.Select(context.Background(), 5); err != nil {
		t.Fatalf("Select: %v", err)
	}

	msg := message(10, 5, "once")
	store.Apply(Event{Kind: EventSent, Message: &msg})
	store.Apply(Event{Kind: EventReceived, Message: &msg})
	store.Apply(Event{Kind: EventSent, Message: &msg})

	if entries := store.Snapshot(); len(entries) != 1 {
		t.Fatalf("expected a single entry, got %+v", entries)
	}
}

func TestEventsForOtherThreadsAreIgnored(t *testing.T) {
	fetcher := &stubFetcher{messages: map[int64][]Message{5: {}}}
	store := NewThreadStore(fetcher)
	if err := store.Select(context.Background(), 5); err != nil {
		t.Fatalf("Select: %v", err)
	}

	other := message(20, 9, "different thread")
	store.Apply(Event{Kind: EventReceived, Message: &other})

	if entries := store.Snapshot(); len(entries) != 0 {
		t.Fatalf("expected no entries for a foreign thread, got %+v", entries)
	}
}

func TestDeleteRemovesMessage(t *testing.T) {
	fetcher := &stubFetcher{messages: map[int64][]Message{
		5: {message(1, 5, "keep"), message(2, 5, "drop")},
	}}
	store := NewThreadStore(fetcher)
	if err := store.Select(context.Background(), 5); err != nil {
		t.Fatalf("Select: %v", err)
	}

	store.Apply(Event{Kind: EventDeleted, MessageID: 2})
	entries := store.Snapshot()
	if len(entries) != 1 || entries[0].Message.ID != 1 {
		t.Fatalf("unexpected entries after delete: %+v", entries)
	}

	// Deleting an id that is already gone is a no-op.
	store.Apply(Event{Kind: EventDeleted, MessageID: 2})
	if entries := store.Snapshot(); len(entries) != 1 {
		t.Fatalf("repeated delete must be safe, got %+v", entries)
	}
}

func TestApplyBeforeLoadCompletesIsIgnored(t *testing.T) {
	store := NewThreadStore(&stubFetcher{})
	store.beginSelect(5)

	msg := message(10, 5, "early")
	store.Apply(Event{Kind: EventReceived, Message: &msg})

	if entries := store.Snapshot(); len(entries) != 0 {
		t.Fatalf("events must not apply while loading, got %+v", entries)
	}
}
