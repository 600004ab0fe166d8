package toml

import (
	"fmt"

	"github.com/bnema/clipmind/internal/adapters/repo/record"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Session record.Session `toml:"session"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported session schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}
