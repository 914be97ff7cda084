package chatclient

import (
	"context"
	"sync"
)

type ThreadState int

const (
	StateIdle ThreadState = iota
	StateLoading
	StateLoaded
)

type EventKind int

const (
	// EventSent is the optimistic append from a send request's own response.
	EventSent EventKind = iota
	// EventReceived is the passive append from a pushed newMessage event.
	EventReceived
	// EventDeleted removes a message after a successful delete call.
	EventDeleted
)

// Event is one tagged mutation applied to the active thread's message list.
type Event struct {
	Kind      EventKind
	Message   *Message // Sent and Received
	MessageID int64    // Deleted
}

// Entry is a message plus its transient presentation marker. JustArrived is
// set on pushed arrivals and cleared the next time a snapshot is taken.
type Entry struct {
	Message     Message
	JustArrived bool
}

// Fetcher loads a thread's full message history. *Client satisfies it.
type Fetcher interface {
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
}

// ThreadStore holds the active conversation and its message list. All three
// mutation paths (optimistic send, pushed event, explicit delete) go through
// Apply, and loads for a thread that is no longer selected are discarded.
type ThreadStore struct {
	fetcher Fetcher

	mu         sync.Mutex
	selected   int64
	state      ThreadState
	generation uint64
	entries    []Entry
}

func NewThreadStore(fetcher Fetcher) *ThreadStore {
	return &ThreadStore{fetcher: fetcher}
}

// Select switches the active thread, discards the current list, and loads the
// selected thread's history. If the selection changes again before the load
// finishes, the stale result is ignored. The returned error is the load
// error, or nil when the load was superseded.
func (s *ThreadStore) Select(ctx context.Context, conversationID int64) error {
	gen := s.beginSelect(conversationID)

	messages, err := s.fetcher.ListMessages(ctx, conversationID)
	if err != nil {
		s.failLoad(gen)
		return err
	}

	s.completeLoad(gen, messages)
	return nil
}

func (s *ThreadStore) beginSelect(conversationID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = conversationID
	s.state = StateLoading
	s.entries = nil
	s.generation++
	return s.generation
}

func (s *ThreadStore) completeLoad(gen uint64, messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A newer selection happened while this load was in flight.
		return
	}

	entries := make([]Entry, 0, len(messages))
	for _, message := range messages {
		entries = append(entries, Entry{Message: message})
	}
	s.entries = entries
	s.state = StateLoaded
}

func (s *ThreadStore) failLoad(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return
	}
	s.state = StateIdle
}

// Apply folds one tagged event into the active list. Appends are idempotent
// by message id and events for other threads are ignored, so replayed or
// cross-thread pushes cannot corrupt the view.
func (s *ThreadStore) Apply(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoaded {
		return
	}

	switch event.Kind {
	case EventSent, EventReceived:
		if event.Message == nil || event.Message.ConversationID != s.selected {
			return
		}
		if s.indexOf(event.Message.ID) >= 0 {
			return
		}
		s.entries = append(s.entries, Entry{
			Message:     *event.Message,
			JustArrived: event.Kind == EventReceived,
		})
	case EventDeleted:
		if idx := s.indexOf(event.MessageID); idx >= 0 {
			s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		}
	}
}

// Snapshot returns a copy of the current list for rendering and clears the
// JustArrived markers, so the marker survives exactly one render pass.
func (s *ThreadStore) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]Entry, len(s.entries))
	copy(snapshot, s.entries)
	for i := range s.entries {
		s.entries[i].JustArrived = false
	}
	return snapshot
}

func (s *ThreadStore) State() ThreadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ThreadStore) Selected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *ThreadStore) indexOf(messageID int64) int {
	for i := range s.entries {
		if s.entries[i].Message.ID == messageID {
			return i
		}
	}
	return -1
}
