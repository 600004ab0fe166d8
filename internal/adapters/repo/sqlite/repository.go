// Package sqlite stores sessions as JSON records in a single SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/clipmind/internal/adapters/repo/record"
	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	_ "modernc.org/sqlite"
)

const databaseDirMode = 0o700

const schemaSQL = `CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	record TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type Repository struct {
	db   *sql.DB
	path string
}

var _ ports.SessionRepository = (*Repository)(nil)

// Open creates the database at path if needed and ensures the schema exists.
func Open(ctx context.Context, path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), databaseDirMode); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY between them.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}

	return &Repository{db: db, path: path}, nil
}

func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Load(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %q", err, id)
	}

	return loadSession(ctx, r.db, id)
}

func (r *Repository) Append(ctx context.Context, id domain.SessionID, turn domain.Turn, video domain.VideoContext) (err error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return fmt.Errorf("%w: %q", err, id)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	session, err := loadSession(ctx, tx, id)
	if err != nil {
		return err
	}
	session = record.Apply(session, turn, video)

	encoded := record.FromDomain(session)
	data, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		string(id), string(data), encoded.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("write session record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}

	return nil
}

func (r *Repository) Clear(ctx context.Context, id domain.SessionID) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return fmt.Errorf("%w: %q", err, id)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete session record: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context) ([]ports.SessionSummary, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT record FROM sessions ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var summaries []ports.SessionSummary
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan session record: %w", err)
		}
		session, err := decodeSession(raw)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ports.SessionSummary{
			ID:        session.ID,
			Video:     session.Context.Video,
			TurnCount: len(session.Turns),
			UpdatedAt: session.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return summaries, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadSession(ctx context.Context, q queryer, id domain.SessionID) (domain.Session, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT record FROM sessions WHERE id = ?`, string(id)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{ID: id}, nil
		}
		return domain.Session{}, fmt.Errorf("read session record: %w", err)
	}

	return decodeSession(raw)
}

func decodeSession(raw string) (domain.Session, error) {
	var encoded record.Session
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return domain.Session{}, fmt.Errorf("decode session record: %w", err)
	}

	session, err := record.ToDomain(encoded)
	if err != nil {
		return domain.Session{}, fmt.Errorf("decode session record: %w", err)
	}

	return session, nil
}
