// Package transfer exports the application state to JSON, YAML, TOML or
// a markdown checklist and imports it back after schema validation.
package transfer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"tidytodo/backend"
	"tidytodo/internal/markdown"
	"tidytodo/internal/storage"
	"tidytodo/internal/utils"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "tidytodo://schema.json"

// Format is a serialization format for export and import
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	// FormatMarkdown keeps titles, status, priority, deadline dates, tags,
	// descriptions and categories. Ids and timestamps are regenerated on import.
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported formats
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatMarkdown}

// ParseFormat parses a format name (case-insensitive)
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatYAML, FormatTOML, FormatMarkdown:
		return f, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", utils.ErrInvalidOption("format", s, []string{"json", "yaml", "toml", "markdown"})
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatJSON
	}
}

// ValidationError reports the first schema violation in an import
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "invalid import: " + e.Message
	}
	return fmt.Sprintf("invalid import at %s: %s", e.Path, e.Message)
}

// Export writes state to w in the given format. JSON output uses the
// persisted wire shape, indented.
func Export(w io.Writer, state backend.AppState, format Format) error {
	rec := storage.ToRecord(state)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to export JSON: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to export YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to export YAML: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(rec); err != nil {
			return fmt.Errorf("failed to export TOML: %w", err)
		}
	case FormatMarkdown:
		if err := markdown.Write(w, state); err != nil {
			return fmt.Errorf("failed to export markdown: %w", err)
		}
	default:
		return fmt.Errorf("unsupported export format: %q", format)
	}
	return nil
}

// Import reads a JSON export, validates it and returns the decoded state
func Import(r io.Reader) (backend.AppState, error) {
	return ImportFormat(r, FormatJSON)
}

// ImportFormat reads an export in the given format. Other formats are
// converted to the JSON wire shape first so every format is checked
// against the same schema.
func ImportFormat(r io.Reader, format Format) (backend.AppState, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return backend.AppState{}, fmt.Errorf("failed to read import: %w", err)
	}

	switch format {
	case FormatJSON:
	case FormatYAML, FormatTOML:
		var rec storage.Record
		if format == FormatYAML {
			err = yaml.Unmarshal(data, &rec)
		} else {
			_, err = toml.Decode(string(data), &rec)
		}
		if err != nil {
			return backend.AppState{}, fmt.Errorf("failed to parse %s import: %w", format, err)
		}
		if data, err = json.Marshal(rec); err != nil {
			return backend.AppState{}, fmt.Errorf("failed to convert %s import: %w", format, err)
		}
	case FormatMarkdown:
		rec, err := markdown.Parse(bytes.NewReader(data), time.Now())
		if err != nil {
			return backend.AppState{}, fmt.Errorf("failed to parse markdown import: %w", err)
		}
		if data, err = json.Marshal(rec); err != nil {
			return backend.AppState{}, fmt.Errorf("failed to convert markdown import: %w", err)
		}
	default:
		return backend.AppState{}, fmt.Errorf("unsupported import format: %q", format)
	}

	if err := Validate(data); err != nil {
		return backend.AppState{}, err
	}

	state, err := storage.Decode(data)
	if err != nil {
		return backend.AppState{}, err
	}
	utils.Debugf("Imported %d tasks and %d categories", len(state.Tasks), len(state.Categories))
	return state, nil
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("load schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Validate checks a JSON document against the import schema
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Message: "not valid JSON: " + err.Error()}
	}

	if err := s.Validate(doc); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError reduces a jsonschema error tree to its first leaf
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{Path: pointerToPath(ve.InstanceLocation), Message: ve.Message}
}

// pointerToPath turns "/todos/0/title" into "todos[0].title"
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for i, part := range strings.Split(ptr, "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
