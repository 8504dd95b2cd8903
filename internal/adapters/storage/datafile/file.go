// Package datafile stores chart rows in a YAML, JSON, TOML or CSV file.
package datafile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/hylla/gantt/internal/domain"
)

// ErrUnsupportedFormat and related errors describe data file failures.
var (
	ErrUnsupportedFormat = errors.New("unsupported data file format")
	ErrInvalidDataFile   = errors.New("invalid data file")
)

// Format identifies a data file encoding.
type Format string

// FormatYAML and related constants define supported encodings.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
)

// document is the keyed layout shared by YAML, JSON and TOML files.
type document struct {
	Rows []domain.RowData `json:"rows" yaml:"rows" toml:"rows"`
}

// File is a row store backed by one file on disk.
type File struct {
	path   string
	format Format
}

// Open returns a store for path. The format follows the file extension.
// A missing file reads as an empty collection.
func Open(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("data file path is required")
	}
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, format: format}, nil
}

// FormatForPath maps a file extension to its format.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%q: %w", filepath.Ext(path), ErrUnsupportedFormat)
	}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.path
}

// Format returns the file encoding.
func (f *File) Format() Format {
	return f.format
}

// ReadRows decodes the file.
func (f *File) ReadRows(ctx context.Context) ([]domain.RowData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.RowData{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}
	rows, err := Decode(data, f.format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return rows, nil
}

// WriteRows encodes rows and replaces the file atomically.
func (f *File) WriteRows(ctx context.Context, rows []domain.RowData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(rows, f.format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename data file: %w", err)
	}
	return nil
}

// Decode parses rows from data. YAML and JSON also accept a bare row list.
func Decode(data []byte, format Format) ([]domain.RowData, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.RowData{}, nil
	}
	var doc document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			if listErr := yaml.Unmarshal(data, &doc.Rows); listErr != nil {
				return nil, fmt.Errorf("decode yaml: %v: %w", err, ErrInvalidDataFile)
			}
		}
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		target := any(&doc)
		if trimmed[0] == '[' {
			target = &doc.Rows
		}
		if err := json.Unmarshal(trimmed, target); err != nil {
			return nil, fmt.Errorf("decode json: %v: %w", err, ErrInvalidDataFile)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode toml: %v: %w", err, ErrInvalidDataFile)
		}
	case FormatCSV:
		rows, err := decodeCSV(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		doc.Rows = rows
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	if doc.Rows == nil {
		doc.Rows = []domain.RowData{}
	}
	return doc.Rows, nil
}

// Encode serializes rows in the keyed document layout, or as CSV.
func Encode(rows []domain.RowData, format Format) ([]byte, error) {
	if rows == nil {
		rows = []domain.RowData{}
	}
	doc := document{Rows: rows}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatTOML:
		data, err := toml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil
	case FormatCSV:
		var buf bytes.Buffer
		if err := encodeCSV(&buf, rows); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
}
