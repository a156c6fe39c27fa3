// internal/output/format.go
package output

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for a report format that is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// Format identifies a report encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSS  Format = "css"
	FormatText Format = "text"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatCSS, FormatText}
}

// ParseFormat resolves a case-insensitive format name. "yml" is accepted for YAML.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "css":
		return FormatCSS, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
