package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/clipmind/internal/ports"
)

const (
	storeDirMode     = 0o700
	artifactFileMode = 0o644
)

// Store keeps generated documents as plain files under a reports directory.
type Store struct {
	root string
	mu   sync.Mutex
}

var _ ports.ArtifactStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := s.pathForName(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp artifact %q: %w", name, err)
	}
	tempName := tempFile.Name()
	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempName)
		return "", fmt.Errorf("write artifact %q: %w", name, err)
	}
	if err := tempFile.Chmod(artifactFileMode); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempName)
		return "", fmt.Errorf("chmod artifact %q: %w", name, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempName)
		return "", fmt.Errorf("close artifact %q: %w", name, err)
	}
	if err := os.Rename(tempName, path); err != nil {
		_ = os.Remove(tempName)
		return "", fmt.Errorf("replace artifact %q: %w", name, err)
	}

	return path, nil
}

// Delete removes a file previously returned by Put. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := s.pathInRoot(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = os.Remove(resolved)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete artifact %q: %w", path, err)
	}

	return nil
}

// pathInRoot accepts an absolute path under root or a name relative to it.
func (s *Store) pathInRoot(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if !filepath.IsAbs(trimmed) {
		return s.pathForName(trimmed)
	}

	rel, err := filepath.Rel(s.root, filepath.Clean(trimmed))
	if err != nil {
		return "", fmt.Errorf("artifact path %q: %w", path, err)
	}

	return s.pathForName(rel)
}

func (s *Store) pathForName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", errors.New("artifact name is empty")
	}

	cleaned := filepath.Clean(trimmed)
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") || cleaned == "." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}

	return filepath.Join(s.root, cleaned), nil
}
