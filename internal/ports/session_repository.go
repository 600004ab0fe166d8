package ports

import (
	"context"
	"time"

	"github.com/bnema/clipmind/internal/domain"
)

type SessionSummary struct {
	ID        domain.SessionID
	Video     domain.VideoRef
	TurnCount int
	UpdatedAt time.Time
}

type SessionRepository interface {
	// Load returns a fresh empty session for unknown ids.
	Load(ctx context.Context, id domain.SessionID) (domain.Session, error)
	// Append atomically replaces the stored record with one that includes turn and the video snapshot.
	Append(ctx context.Context, id domain.SessionID, turn domain.Turn, video domain.VideoContext) error
	Clear(ctx context.Context, id domain.SessionID) error
	List(ctx context.Context) ([]SessionSummary, error)
}
