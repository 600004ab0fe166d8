package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

// ContextStore caches sessions in memory and serializes work per session.
// Callers only ever receive deep copies.
type ContextStore struct {
	repo  ports.SessionRepository
	clock ports.Clock

	mu      sync.Mutex
	entries map[domain.SessionID]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	loaded  bool
	session domain.Session
}

func NewContextStore(repo ports.SessionRepository, clock ports.Clock) *ContextStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ContextStore{
		repo:    repo,
		clock:   clock,
		entries: map[domain.SessionID]*sessionEntry{},
	}
}

// Snapshot returns a copy of the session, loading it from the repository on a cache miss.
func (s *ContextStore) Snapshot(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	var snapshot domain.Session
	err := s.withSession(ctx, id, func(session *sessionHandle) error {
		snapshot = session.Snapshot()
		return nil
	})

	return snapshot, err
}

// Clear removes the durable record and resets the cached session.
func (s *ContextStore) Clear(ctx context.Context, id domain.SessionID) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return err
	}

	entry := s.entry(id)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := s.repo.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	entry.session = domain.NewSession(id, s.clock.Now())
	entry.loaded = true

	return nil
}

// withSession runs fn while holding the session lock. Only one turn is in flight per session.
func (s *ContextStore) withSession(ctx context.Context, id domain.SessionID, fn func(*sessionHandle) error) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return err
	}

	entry := s.entry(id)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.loaded {
		session, err := s.repo.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if session.ID == "" {
			session = domain.NewSession(id, s.clock.Now())
		}
		entry.session = session
		entry.loaded = true
	}

	return fn(&sessionHandle{store: s, entry: entry})
}

func (s *ContextStore) entry(id domain.SessionID) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		entry = &sessionEntry{}
		s.entries[id] = entry
	}

	return entry
}

// sessionHandle is valid only inside withSession.
type sessionHandle struct {
	store *ContextStore
	entry *sessionEntry
}

func (h *sessionHandle) Snapshot() domain.Session {
	return h.entry.session.Clone()
}

// Commit persists turn with the video snapshot and, once durable, updates the cached session.
func (h *sessionHandle) Commit(ctx context.Context, turn domain.Turn, video domain.VideoContext) error {
	id := h.entry.session.ID
	if err := h.store.repo.Append(ctx, id, turn, video); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	session := &h.entry.session
	session.Context = video.Clone()
	session.Turns = append(session.Turns, turn.Clone())
	session.UpdatedAt = turn.CreatedAt
	if session.CreatedAt.IsZero() {
		session.CreatedAt = turn.CreatedAt
	}

	return nil
}
