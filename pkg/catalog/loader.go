package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// envelope is the object form of a catalog file
type envelope struct {
	Products []Product `json:"products" yaml:"products"`
}

// LoadFile reads a catalog file, picking the decoder from its extension.
func LoadFile(ctx context.Context, path string) (*Catalog, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if err := ValidateFile(path, format); err != nil {
		return nil, err
	}

	start := time.Now()
	var products []Product
	switch format {
	case FormatSQLite:
		products, err = LoadSQLite(ctx, path)
	default:
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
		products, err = Decode(data, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}

	log.Debugf("Loaded %d products from %s in %v", len(products), path, time.Since(start))
	return New(products), nil
}

// Decode parses raw catalog bytes of the given format.
func Decode(data []byte, format FileFormat) ([]Product, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatMsgpack:
		var products []Product
		if err := msgpack.Unmarshal(data, &products); err != nil {
			return nil, fmt.Errorf("failed to decode msgpack catalog: %w", err)
		}
		return products, nil
	default:
		return nil, fmt.Errorf("decode %v: %w", format, ErrUnknownFormat)
	}
}

func decodeJSON(data []byte) ([]Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("failed to decode json catalog: %w", err)
		}
		return products, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("failed to decode json catalog: %w", err)
	}
	return env.Products, nil
}

// decodeYAML accepts a bare product list or a mapping with a products key,
// chosen by the document's top-level node.
func decodeYAML(data []byte) ([]Product, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode yaml catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var products []Product
		if err := root.Decode(&products); err != nil {
			return nil, fmt.Errorf("failed to decode yaml product list: %w", err)
		}
		return products, nil
	case yaml.MappingNode:
		var env envelope
		if err := root.Decode(&env); err != nil {
			return nil, fmt.Errorf("failed to decode yaml catalog envelope: %w", err)
		}
		return env.Products, nil
	default:
		return nil, fmt.Errorf("yaml catalog at line %d must be a product list or a products mapping", root.Line)
	}
}

// WriteMsgpack writes products in the compact msgpack catalog format.
func WriteMsgpack(path string, products []Product) error {
	data, err := msgpack.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode msgpack catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Debugf("Wrote %d products (%d bytes) to %s", len(products), len(data), path)
	return nil
}
