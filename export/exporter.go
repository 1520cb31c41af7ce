// Package export converts planning requests and results to and from their boundary formats.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format represents an export format
type Format string

const (
	// FormatJSON is the default machine-readable format
	FormatJSON Format = "json"
	// FormatYAML is the same document as YAML
	FormatYAML Format = "yaml"
	// FormatText is a human-readable report
	FormatText Format = "text"
)

// Exporter interface for different export formats
type Exporter interface {
	// Export renders a planning result in the target format
	Export(out *Output) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatYAML:
		return NewYAMLExporter(), nil
	case FormatText:
		return NewTextExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// FormatForPath picks the input format from a file extension, defaulting to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatJSON,
		FormatYAML,
		FormatText,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatJSON: "JSON routing result (default)",
		FormatYAML: "YAML routing result",
		FormatText: "Plain text report with summary, failures and diagnostics",
	}
}
