// Package output persists symbol tables as JSON or YAML documents keyed by
// identity, one record per symbol with its declaration, definition and
// reference occurrences.
package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/logging"
)

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unrecognized format name.
var ErrUnknownFormat = errors.New("output: unknown format")

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w %q: must be json or yaml", ErrUnknownFormat, name)
}

// FormatForPath guesses the format from a file extension; anything that is
// not .yaml or .yml is JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

type locationRecord struct {
	Filename *string `json:"filename" yaml:"filename"`
	Line     int     `json:"line" yaml:"line"`
	Column   int     `json:"column" yaml:"column"`
}

type occurrenceRecord struct {
	Location     locationRecord `json:"location" yaml:"location"`
	Cursor       string         `json:"cursor" yaml:"cursor"`
	StorageClass string         `json:"storage_class" yaml:"storage_class"`
}

type entryRecord struct {
	DisplayName string             `json:"displayname" yaml:"displayname"`
	Declaration []occurrenceRecord `json:"declaration" yaml:"declaration"`
	Definition  []occurrenceRecord `json:"definition" yaml:"definition"`
	Reference   []occurrenceRecord `json:"reference" yaml:"reference"`
}

func toRecords(occs []index.Occurrence) []occurrenceRecord {
	out := make([]occurrenceRecord, 0, len(occs))
	for _, o := range occs {
		rec := occurrenceRecord{
			Location: locationRecord{
				Line:   o.Location.Line,
				Column: o.Location.Column,
			},
			Cursor:       o.Cursor,
			StorageClass: o.StorageClass,
		}
		if o.Location.File != "" {
			file := o.Location.File
			rec.Location.Filename = &file
		}
		out = append(out, rec)
	}
	return out
}

func fromRecord(rec occurrenceRecord) index.Occurrence {
	loc := cursor.Location{Line: rec.Location.Line, Column: rec.Location.Column}
	if rec.Location.Filename != nil {
		loc.File = *rec.Location.Filename
	}
	return index.Occurrence{Location: loc, Cursor: rec.Cursor, StorageClass: rec.StorageClass}
}

// NoName is written for an entry whose display name is empty. Decoding
// maps it back to "".
const NoName = "-No name-"

func toDocument(table *index.SymbolTable) map[string]entryRecord {
	entries := table.Entries()
	doc := make(map[string]entryRecord, len(entries))
	for key, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = NoName
		}
		doc[key] = entryRecord{
			DisplayName: name,
			Declaration: toRecords(e.Declarations),
			Definition:  toRecords(e.Definitions),
			Reference:   toRecords(e.References),
		}
	}
	return doc
}

func fromDocument(doc map[string]entryRecord) *index.SymbolTable {
	table := index.NewSymbolTable()
	for key, rec := range doc {
		if rec.DisplayName == NoName {
			rec.DisplayName = ""
		}
		table.Merge(key, rec.DisplayName, index.Occurrence{}, 0)
		for _, o := range rec.Definition {
			table.Merge(key, rec.DisplayName, fromRecord(o), index.Definition)
		}
		for _, o := range rec.Declaration {
			table.Merge(key, rec.DisplayName, fromRecord(o), index.Declaration)
		}
		for _, o := range rec.Reference {
			table.Merge(key, rec.DisplayName, fromRecord(o), index.Reference)
		}
	}
	return table
}

// Encode writes table to w. Keys appear in sorted order and every bucket
// is present, empty or not.
func Encode(w io.Writer, table *index.SymbolTable, format Format) error {
	doc := toDocument(table)
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("output: encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("output: encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// Decode reads a document produced by Encode.
func Decode(r io.Reader, format Format) (*index.SymbolTable, error) {
	doc := make(map[string]entryRecord)
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("output: decode yaml: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("output: decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
	return fromDocument(doc), nil
}

// Save writes table to path, replacing any existing file.
func Save(path string, table *index.SymbolTable, format Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, table, format); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return nil
}

// Load reads a saved table, picking the format from the extension. A file
// that exists but cannot be decoded yields an empty table and a warning.
func Load(path string, logger *slog.Logger) (*index.SymbolTable, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("output: read %s: %w", path, err)
	}
	table, err := Decode(bytes.NewReader(data), FormatForPath(path))
	if err != nil {
		logger.Warn("malformed index file, treating as empty", "path", path, "error", err)
		return index.NewSymbolTable(), nil
	}
	return table, nil
}
