package parsers

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONParser parses fixtures from JSON format.
type JSONParser struct{}

// Parse reads a JSON fixture from the reader.
func (p *JSONParser) Parse(r io.Reader) (*Fixture, error) {
	var fixture Fixture

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	numberRelationships(&fixture)
	return &fixture, nil
}
