// Package i18n loads flat or nested YAML message catalogs and exposes them
// as an authflow.Translator.
package i18n

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-authflow"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalog []byte

// Catalog maps dotted keys to display strings.
type Catalog struct {
	entries map[string]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{entries: map[string]string{}}
}

// Default returns the bundled English catalog.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("i18n: bundled catalog is invalid: %v", err))
	}
	return c
}

// Load parses a YAML document. Nested maps are flattened with dots, so
// `formError: {required: x}` is looked up as "formError.required".
func Load(r io.Reader) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && err != io.EOF {
		return nil, fmt.Errorf("i18n: decode catalog: %w", err)
	}

	c := New()
	if err := c.flatten("", raw); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("i18n: open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (c *Catalog) flatten(prefix string, node map[string]any) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			if err := c.flatten(key, val); err != nil {
				return err
			}
		case string:
			c.entries[key] = val
		case nil:
			c.entries[key] = ""
		default:
			return fmt.Errorf("i18n: key %q must be a string or map, got %T", key, v)
		}
	}
	return nil
}

// Merge copies entries from other, overriding existing keys.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	if other == nil {
		return c
	}
	for k, v := range other.entries {
		c.entries[k] = v
	}
	return c
}

// Set adds or replaces one entry.
func (c *Catalog) Set(key, value string) {
	c.entries[key] = value
}

// Translate implements authflow.Translator. Missing keys return the key.
func (c *Catalog) Translate(key string) string {
	if v, ok := c.entries[key]; ok && v != "" {
		return v
	}
	return key
}

// Message renders a validation code.
func (c *Catalog) Message(code authflow.ErrorCode) string {
	return c.Translate(authflow.MessageKey(code))
}

// Keys returns every key, sorted.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing lists the keys of required that are absent or empty.
func (c *Catalog) Missing(required ...string) []string {
	var out []string
	for _, key := range required {
		if strings.TrimSpace(c.entries[key]) == "" {
			out = append(out, key)
		}
	}
	return out
}
