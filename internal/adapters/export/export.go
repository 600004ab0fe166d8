package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bnema/clipmind/internal/adapters/repo/record"
	"github.com/bnema/clipmind/internal/domain"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want json or yaml)", raw)
	}
}

// Write encodes the full session history, artifacts included, to w.
func Write(w io.Writer, session domain.Session, format Format) error {
	encoded := record.FromDomain(session)

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(encoded); err != nil {
			return fmt.Errorf("encode session json: %w", err)
		}
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(encoded); err != nil {
			return fmt.Errorf("encode session yaml: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("flush session yaml: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	return nil
}

// Read decodes an exported session back into the domain model.
func Read(r io.Reader, format Format) (domain.Session, error) {
	var encoded record.Session

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&encoded); err != nil {
			return domain.Session{}, fmt.Errorf("decode session json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&encoded); err != nil {
			return domain.Session{}, fmt.Errorf("decode session yaml: %w", err)
		}
	default:
		return domain.Session{}, fmt.Errorf("unsupported export format %q", format)
	}

	return record.ToDomain(encoded)
}
