// Package datasource reads and writes outline documents. An outline can be
// stored as YAML, JSON or a SQLite database; the format is picked from the
// file extension.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Sentinel errors.
var (
	ErrUnknownFormat = errors.New("unknown outline format")
	ErrEmptyLabel    = errors.New("node without label")
	ErrNotFound      = errors.New("node not found")
)

// SourceType identifies the storage format of an outline.
type SourceType string

const (
	SourceTypeYAML   SourceType = "yaml"
	SourceTypeJSON   SourceType = "json"
	SourceTypeSQLite SourceType = "sqlite"
)

// DataSource describes an outline file.
type DataSource struct {
	// Type identifies the storage format
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// NodeCount is the number of nodes in the source (set during validation)
	NodeCount int `json:"node_count"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, nodes=%d, %s)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.NodeCount, status)
}

// DetectType maps a file extension to a storage format.
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SourceTypeYAML, nil
	case ".json":
		return SourceTypeJSON, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	default:
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
}

// Stat describes the outline at path without reading it.
func Stat(path string) (DataSource, error) {
	typ, err := DetectType(path)
	if err != nil {
		return DataSource{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, err
	}
	return DataSource{
		Type:    typ,
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// ValidateSource reads the source and records whether it holds a usable
// outline.
func ValidateSource(source *DataSource) error {
	o, err := LoadFromSource(*source)
	if err == nil {
		err = Validate(o.Nodes)
	}
	if err != nil {
		source.Valid = false
		source.ValidationError = err.Error()
		return err
	}
	source.Valid = true
	source.ValidationError = ""
	source.NodeCount = Count(o.Nodes)
	return nil
}
