package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/clipmind/internal/adapters/repo/record"
	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	sessionFileMode = 0o600
	sessionDirMode  = 0o700
	sessionFileExt  = ".toml"
	tempFilePattern = ".session-*.toml.tmp"
)

// Repository stores one TOML file per session under a directory.
type Repository struct {
	dir string
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.SessionRepository = (*Repository)(nil)

func NewRepository(dir string) (*Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("sessions directory is empty")
	}
	dir, err := normalizePath(dir)
	if err != nil {
		return nil, err
	}

	return &Repository{dir: dir}, nil
}

func (r *Repository) Dir() string {
	return r.dir
}

func (r *Repository) Load(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	path, err := r.pathFor(id)
	if err != nil {
		return domain.Session{}, err
	}

	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	return readSession(path, id)
}

func (r *Repository) Append(ctx context.Context, id domain.SessionID, turn domain.Turn, video domain.VideoContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.pathFor(id)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	session, err := readSession(path, id)
	if err != nil {
		return err
	}
	session = record.Apply(session, turn, video)

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeSession(path, fileSchema{Session: record.FromDomain(session)})
}

func (r *Repository) Clear(ctx context.Context, id domain.SessionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := r.pathFor(id)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context) ([]ports.SessionSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions directory: %w", err)
	}

	summaries := make([]ports.SessionSummary, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != sessionFileExt {
			continue
		}

		id := domain.SessionID(strings.TrimSuffix(name, sessionFileExt))
		session, err := r.Load(ctx, id)
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

	return summaries, nil
}

func (r *Repository) pathFor(id domain.SessionID) (string, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return "", fmt.Errorf("%w: %q", err, id)
	}

	return filepath.Join(r.dir, string(id)+sessionFileExt), nil
}

func readSession(path string, id domain.SessionID) (domain.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Session{ID: id}, nil
		}
		return domain.Session{}, fmt.Errorf("read session file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.Session{}, fmt.Errorf("decode session file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.Session{}, err
	}
	file.applyDefaults()

	session, err := record.ToDomain(file.Session)
	if err != nil {
		return domain.Session{}, fmt.Errorf("decode session file: %w", err)
	}
	if session.ID != id {
		return domain.Session{}, fmt.Errorf("session file %s holds session %q", filepath.Base(path), session.ID)
	}

	return session, nil
}

func writeSession(path string, file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(path), sessionDirMode); err != nil {
		return fmt.Errorf("create sessions directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tempFile.Chmod(sessionFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	cleanup = false

	return nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sessions directory: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
