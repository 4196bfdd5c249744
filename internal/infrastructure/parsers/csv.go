package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser parses fixtures from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns the fixture it describes.
// Expected columns: family, primary, kind, related, notes.
// A row with empty kind and related only declares the member in primary.
func (p *CSVParser) Parse(r io.Reader) (*Fixture, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	requiredCols := []string{"family", "primary"}
	for _, col := range requiredCols {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// readRecords reads all data rows and groups them by family, keeping file order.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) (*Fixture, error) {
	fixture := &Fixture{}
	familyIndex := make(map[string]int)
	seenMembers := make(map[string]bool)
	lineNum := 1 // Header is line 1

	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		familyName := strings.TrimSpace(getColumn(record, colIndex, "family"))
		if familyName == "" {
			return nil, fmt.Errorf("line %d: family is required", lineNum)
		}
		idx, ok := familyIndex[familyName]
		if !ok {
			idx = len(fixture.Families)
			familyIndex[familyName] = idx
			fixture.Families = append(fixture.Families, RawFamily{Name: familyName})
		}
		family := &fixture.Families[idx]

		rel := RawRelationship{
			Primary: strings.TrimSpace(getColumn(record, colIndex, "primary")),
			Kind:    strings.TrimSpace(getColumn(record, colIndex, "kind")),
			Related: strings.TrimSpace(getColumn(record, colIndex, "related")),
			Notes:   getColumn(record, colIndex, "notes"),
			LineNum: lineNum,
		}

		for _, name := range []string{rel.Primary, rel.Related} {
			key := familyName + "\x00" + strings.ToLower(name)
			if name != "" && !seenMembers[key] {
				seenMembers[key] = true
				family.Members = append(family.Members, name)
			}
		}

		if rel.Kind == "" && rel.Related == "" {
			continue
		}
		family.Relationships = append(family.Relationships, rel)
	}

	return fixture, nil
}

// getColumn safely retrieves a column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[col]; ok && idx < len(record) {
		return record[idx]
	}
	return ""
}
