// Package parsers reads family fixtures (families, members and relationships)
// from JSON, YAML and CSV files.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// Fixture is the parsed content of an import file before validation.
type Fixture struct {
	Families []RawFamily `json:"families" yaml:"families"`
}

// RawFamily describes a family, its members and the relationships among them.
type RawFamily struct {
	Name          string            `json:"name" yaml:"name"`
	Members       []string          `json:"members,omitempty" yaml:"members,omitempty"`
	Relationships []RawRelationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// RawRelationship is a relationship that refers to members by name.
// It reads "Related is Primary's Kind".
type RawRelationship struct {
	Primary string `json:"primary" yaml:"primary"`
	Kind    string `json:"kind" yaml:"kind"`
	Related string `json:"related" yaml:"related"`
	Notes   string `json:"notes,omitempty" yaml:"notes,omitempty"`
	LineNum int    `json:"-" yaml:"-"` // Position in the source file (set by parser)
}

// Parser defines the interface for parsing fixtures from various formats.
type Parser interface {
	Parse(r io.Reader) (*Fixture, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "yaml", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "yaml", "yml":
		return &YAMLParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ForFormat(ext)
}

// numberRelationships sets positions on relationships that have none
// (1-indexed, counted across families in file order).
func numberRelationships(f *Fixture) {
	n := 0
	for i := range f.Families {
		for j := range f.Families[i].Relationships {
			n++
			if f.Families[i].Relationships[j].LineNum == 0 {
				f.Families[i].Relationships[j].LineNum = n
			}
		}
	}
}
