package history

import (
	"slices"
	"sync"

	"github.com/hupe1980/resistance/core"
)

// InMemoryStore is a volatile transcript store keeping every game's events
// in a process local map. It is safe for concurrent access. Returned
// transcripts are copies, so callers cannot mutate stored history.
type InMemoryStore struct {
	mu     sync.RWMutex
	games  map[string][]core.Event
	order  []string
	limit  int
	evicts int
}

// Options configures an InMemoryStore.
type Options struct {
	// MaxGames bounds how many transcripts are retained; the oldest game is
	// evicted first. 0 keeps everything.
	MaxGames int
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore(optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{games: make(map[string][]core.Event), limit: opts.MaxGames}
}

// AppendEvent adds an event to an existing or newly created transcript.
func (s *InMemoryStore) AppendEvent(gameID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, ok := s.games[gameID]
	if !ok {
		s.order = append(s.order, gameID)
		s.evictLocked()
	}
	s.games[gameID] = append(events, cloneEvent(ev))
	return nil
}

// cloneEvent copies the slices and maps an event shares with its producer.
func cloneEvent(ev core.Event) core.Event {
	ev.Team = ev.Team.Clone()
	if ev.Votes != nil {
		ev.Votes = ev.Votes.Clone()
	}
	ev.Spies = slices.Clone(ev.Spies)
	return ev
}

// Transcript returns a copy of the events recorded for gameID in emission order.
func (s *InMemoryStore) Transcript(gameID string) ([]core.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]core.Event, len(events))
	for i, ev := range events {
		out[i] = cloneEvent(ev)
	}
	return out, nil
}

// Search returns the events of gameID matching any of kinds, in order.
// Without kinds every event matches.
func (s *InMemoryStore) Search(gameID string, kinds ...core.EventKind) ([]core.Event, error) {
	events, err := s.Transcript(gameID)
	if err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		return events, nil
	}
	return slices.DeleteFunc(events, func(ev core.Event) bool {
		return !slices.Contains(kinds, ev.Kind)
	}), nil
}

// Games returns the stored game IDs in insertion order.
func (s *InMemoryStore) Games() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Len returns the number of stored transcripts.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.games)
}

// Evicted returns how many transcripts were dropped to honour MaxGames.
func (s *InMemoryStore) Evicted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evicts
}

// Delete removes the transcript for gameID.
func (s *InMemoryStore) Delete(gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[gameID]; !ok {
		return ErrNotFound
	}
	delete(s.games, gameID)
	s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == gameID })
	return nil
}

// Clear removes every transcript.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = make(map[string][]core.Event)
	s.order = nil
}

// evictLocked drops the oldest games beyond the limit; caller must hold the
// write lock.
func (s *InMemoryStore) evictLocked() {
	if s.limit <= 0 {
		return
	}
	for len(s.order) > s.limit {
		delete(s.games, s.order[0])
		s.order = s.order[1:]
		s.evicts++
	}
}
