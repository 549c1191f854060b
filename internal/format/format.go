package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Names of the structured output formats.
const (
	JSON = "json"
	YAML = "yaml"
	Text = "text"
)

// Formatter abstracts output formatting.
type Formatter interface {
	Write(w io.Writer, payload any) error
}

// JSONFormatter writes JSON output.
type JSONFormatter struct{}

// Write writes JSON payload to a writer.
func (f JSONFormatter) Write(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(payload)
}

// YAMLFormatter writes YAML documents using the payload's yaml tags.
type YAMLFormatter struct{}

// Write writes a YAML document to a writer.
func (f YAMLFormatter) Write(w io.Writer, payload any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return err
	}
	return enc.Close()
}

// New returns the formatter for a structured format name. Text output is
// command specific, so "text" yields (nil, nil).
func New(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case JSON:
		return JSONFormatter{}, nil
	case YAML, "yml":
		return YAMLFormatter{}, nil
	case Text, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want json, yaml or text)", name)
	}
}
