package application

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

// SessionService backs the session listing, inspection and reset commands.
type SessionService struct {
	repo      ports.SessionRepository
	store     *ContextStore
	documents ports.ArtifactStore
}

// ClearOptions controls what a reset removes besides the session record.
type ClearOptions struct {
	// Documents also deletes the files generated during the session.
	Documents bool
}

func NewSessionService(repo ports.SessionRepository, store *ContextStore, documents ports.ArtifactStore) *SessionService {
	return &SessionService{repo: repo, store: store, documents: documents}
}

// ResolveSessionID derives a stable session id from the working directory so repeated
// invocations in the same place resume the same conversation.
func (s *SessionService) ResolveSessionID(workspaceRoot string) domain.SessionID {
	raw := strings.TrimSpace(workspaceRoot)
	hash := sha1.Sum([]byte(raw))
	return domain.SessionID("ws-" + hex.EncodeToString(hash[:])[:12])
}

func (s *SessionService) List(ctx context.Context) ([]ports.SessionSummary, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	slices.SortFunc(summaries, func(a, b ports.SessionSummary) int {
		if cmp := b.UpdatedAt.Compare(a.UpdatedAt); cmp != 0 {
			return cmp
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	return summaries, nil
}

// Show returns ErrSessionNotFound for sessions that were never used.
func (s *SessionService) Show(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.store.Snapshot(ctx, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("show session: %w", err)
	}
	if session.IsEmpty() {
		return domain.Session{}, fmt.Errorf("show session %q: %w", id, domain.ErrSessionNotFound)
	}

	return session, nil
}

func (s *SessionService) Clear(ctx context.Context, id domain.SessionID, opts ClearOptions) error {
	if opts.Documents && s.documents == nil {
		return errors.New("clear documents: no artifact store configured")
	}

	var documents []string
	if opts.Documents {
		session, err := s.store.Snapshot(ctx, id)
		if err != nil {
			return fmt.Errorf("clear session %q: %w", id, err)
		}
		documents = documentPaths(session)
	}

	if err := s.store.Clear(ctx, id); err != nil {
		return fmt.Errorf("clear session %q: %w", id, err)
	}

	var errs []error
	for _, path := range documents {
		if err := s.documents.Delete(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("clear session %q documents: %w", id, err)
	}

	return nil
}

// ClearAll resets every stored session and returns the cleared ids.
func (s *SessionService) ClearAll(ctx context.Context, opts ClearOptions) ([]domain.SessionID, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	cleared := make([]domain.SessionID, 0, len(summaries))
	for _, summary := range summaries {
		if err := s.Clear(ctx, summary.ID, opts); err != nil {
			return cleared, err
		}
		cleared = append(cleared, summary.ID)
	}

	return cleared, nil
}

// documentPaths lists each generated file once, from the turns and the video context.
func documentPaths(session domain.Session) []string {
	seen := map[string]bool{}
	var paths []string
	add := func(document *domain.DocumentHandle) {
		if document == nil || document.Path == "" || seen[document.Path] {
			return
		}
		seen[document.Path] = true
		paths = append(paths, document.Path)
	}

	for _, turn := range session.Turns {
		add(turn.Document)
	}
	if artifact, ok := session.Context.Get(domain.ArtifactDocument); ok {
		add(artifact.Document)
	}

	return paths
}
