package transcode

import (
	"fmt"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
)

// Format is the on-disk textual format of a secret document.
type Format int

const (
	JSON Format = iota
	YAML
	Dotenv
	INI
)

// MetadataKey is the top-level key sops reserves for encryption bookkeeping.
const MetadataKey = "sops"

// DefaultSection is the INI section sops uses for keys outside any section.
const DefaultSection = "DEFAULT"

// Formats lists every supported format in menu order.
var Formats = []Format{Dotenv, JSON, YAML, INI}

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case Dotenv:
		return "dotenv"
	case INI:
		return "ini"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// MarshalText renders the format by name in JSON output.
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText accepts the names ParseFormat does.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// SopsType is the value sops expects for --input-type/--output-type.
func (f Format) SopsType() string { return f.String() }

// Extension returns the file extension used when creating a document.
func (f Format) Extension() string {
	if f == Dotenv {
		return "env"
	}
	return f.String()
}

// IsLineOriented reports whether the format stores one key=value per line.
func (f Format) IsLineOriented() bool {
	return f == Dotenv || f == INI
}

// DetectFormat picks the format from a file name. Unknown extensions are
// treated as JSON, the format sops falls back to.
func DetectFormat(path string) Format {
	name := filepath.Base(path)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")

	switch {
	case name == ".env" || ext == "env":
		return Dotenv
	case name == ".ini" || ext == "ini":
		return INI
	case ext == "yaml" || ext == "yml":
		return YAML
	default:
		return JSON
	}
}

// ParseFormat resolves a user-supplied format name such as "env" or "yml".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	case "env", "dotenv":
		return Dotenv, nil
	case "ini":
		return INI, nil
	default:
		return JSON, fmt.Errorf("%w: %q", kerrors.ErrUnsupportedFormat, name)
	}
}
