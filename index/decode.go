package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the JSON and YAML index layout.
type document struct {
	Packages []Entry `json:"packages" yaml:"packages"`
}

// ParseJSON decodes a JSON index. Unknown fields are rejected. The result
// is not validated.
func ParseJSON(data []byte) (*Index, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return &Index{Entries: doc.Packages}, nil
}

// ParseYAML decodes a YAML index. Unknown fields are rejected and entry
// lines are recorded. The result is not validated.
func ParseYAML(data []byte) (*Index, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	for n, line := range entryLines(&root) {
		if n < len(doc.Packages) {
			doc.Packages[n].Line = line
		}
	}
	return &Index{Entries: doc.Packages}, nil
}

// entryLines returns the source line of each item of the top-level
// packages sequence.
func entryLines(root *yaml.Node) []int {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != "packages" {
			continue
		}
		seq := mapping.Content[i+1]
		lines := make([]int, len(seq.Content))
		for n, item := range seq.Content {
			lines[n] = item.Line
		}
		return lines
	}
	return nil
}
