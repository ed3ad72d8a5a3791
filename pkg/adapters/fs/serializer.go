package fs

import (
	"bytes"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

// document is a Markdown file split into its YAML frontmatter and body.
// The frontmatter is kept as a yaml.Node so edits preserve key order,
// comments and the formatting of untouched values.
type document struct {
	front *yaml.Node // mapping node, nil when the file has no frontmatter
	body  []byte
}

var (
	delimLF   = []byte("---\n")
	delimCRLF = []byte("---\r\n")
)

// parseDocument splits data into frontmatter and body.
// A file that does not start with "---" has no frontmatter.
func parseDocument(data []byte) (*document, error) {
	if !bytes.HasPrefix(data, delimLF) && !bytes.HasPrefix(data, delimCRLF) {
		return &document{body: data}, nil
	}

	start := bytes.IndexByte(data, '\n') + 1
	end, next := closingDelimiter(data, start)
	if end < 0 {
		return nil, errors.New("frontmatter started but no closing delimiter found")
	}

	doc := &document{body: data[next:]}
	raw := data[start:end]
	if len(bytes.TrimSpace(raw)) == 0 {
		doc.front = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("frontmatter is not a mapping")
	}
	doc.front = root.Content[0]
	return doc, nil
}

// closingDelimiter finds the line holding only "---" at or after from.
// It returns the offset where that line starts and where the body begins.
func closingDelimiter(data []byte, from int) (int, int) {
	for i := from; i < len(data); {
		nl := bytes.IndexByte(data[i:], '\n')
		lineEnd, next := len(data), len(data)
		if nl >= 0 {
			lineEnd, next = i+nl, i+nl+1
		}
		if string(bytes.TrimRight(data[i:lineEnd], "\r")) == "---" {
			return i, next
		}
		i = next
	}
	return -1, -1
}

// Properties decodes the frontmatter. Notes without frontmatter yield an
// empty, non-nil map.
func (d *document) Properties() (map[string]any, error) {
	props := map[string]any{}
	if d.front == nil {
		return props, nil
	}
	if err := d.front.Decode(&props); err != nil {
		return nil, fmt.Errorf("failed to decode frontmatter: %w", err)
	}
	return props, nil
}

// Set assigns a scalar string property, adding it when missing.
// The value keeps its string type: "1" or "true" are written quoted.
func (d *document) Set(name, value string) {
	if d.front == nil {
		d.front = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	val := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	for i := 0; i+1 < len(d.front.Content); i += 2 {
		if d.front.Content[i].Value == name {
			d.front.Content[i+1] = val
			return
		}
	}
	d.front.Content = append(d.front.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
		val,
	)
}

// Delete removes the named properties and reports whether any existed.
func (d *document) Delete(names ...string) bool {
	if d.front == nil {
		return false
	}
	removed := false
	kept := d.front.Content[:0]
	for i := 0; i+1 < len(d.front.Content); i += 2 {
		if slices.Contains(names, d.front.Content[i].Value) {
			removed = true
			continue
		}
		kept = append(kept, d.front.Content[i], d.front.Content[i+1])
	}
	d.front.Content = kept
	return removed
}

// Bytes renders the document. An empty frontmatter block is dropped.
func (d *document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if d.front != nil && len(d.front.Content) > 0 {
		buf.Write(delimLF)
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(d.front); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		buf.Write(delimLF)
	}
	buf.Write(d.body)
	return buf.Bytes(), nil
}
