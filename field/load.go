package field

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// LoadJSON decodes a field tree from JSON. The document is either a list of
// fields or a single field object.
func LoadJSON(r io.Reader) ([]*Field, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading field tree: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '{' {
		var single Field
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("decoding field tree: %w", err)
		}
		return []*Field{&single}, nil
	}

	var fields []*Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding field tree: %w", err)
	}
	return fields, nil
}

// LoadYAML decodes a field tree from YAML, accepting the same shapes as LoadJSON.
func LoadYAML(r io.Reader) ([]*Field, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding field tree: %w", err)
	}

	doc := &node
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	if doc.Kind == yaml.MappingNode {
		var single Field
		if err := doc.Decode(&single); err != nil {
			return nil, fmt.Errorf("decoding field tree: %w", err)
		}
		return []*Field{&single}, nil
	}

	var fields []*Field
	if err := doc.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding field tree: %w", err)
	}
	return fields, nil
}

// LoadFile loads a field tree, choosing the decoder from the file extension.
func LoadFile(path string) ([]*Field, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening field tree: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(f)
	default:
		return LoadJSON(f)
	}
}
