package parsers

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLParser parses fixtures from YAML format.
type YAMLParser struct{}

// Parse reads a YAML fixture from the reader. Relationship positions are the
// line numbers of the entries in the document.
func (p *YAMLParser) Parse(r io.Reader) (*Fixture, error) {
	var doc yaml.Node

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &Fixture{}, nil
		}
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	var fixture Fixture
	if err := doc.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("decoding YAML fixture: %w", err)
	}

	setYAMLLines(&doc, &fixture)
	numberRelationships(&fixture)
	return &fixture, nil
}

// setYAMLLines copies source line numbers from the node tree onto relationships.
func setYAMLLines(doc *yaml.Node, f *Fixture) {
	if len(doc.Content) == 0 {
		return
	}
	families := mappingValue(doc.Content[0], "families")
	if families == nil || families.Kind != yaml.SequenceNode {
		return
	}
	for i, famNode := range families.Content {
		if i >= len(f.Families) {
			return
		}
		rels := mappingValue(famNode, "relationships")
		if rels == nil || rels.Kind != yaml.SequenceNode {
			continue
		}
		for j, relNode := range rels.Content {
			if j < len(f.Families[i].Relationships) {
				f.Families[i].Relationships[j].LineNum = relNode.Line
			}
		}
	}
}

// mappingValue returns the value node for key in a mapping node.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
