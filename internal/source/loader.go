// Package source reads reference table rows from the JSON and YAML files
// that are the editable source of truth.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/refsync/internal/core"
)

// ErrUnsupportedFormat is returned for source files that are neither JSON
// nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported source format")

// Loader reads source files relative to Dir. It implements core.SourceLoader.
// Files are read fresh on every call.
type Loader struct {
	Dir string
}

// New returns a Loader rooted at dir.
func New(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Path returns the absolute location of desc's source file.
func (l *Loader) Path(desc core.TableDescriptor) string {
	if filepath.IsAbs(desc.SourceFile) {
		return desc.SourceFile
	}
	return filepath.Join(l.Dir, desc.SourceFile)
}

// Load returns the rows of desc. A missing file yields no rows and no error.
// Record files must hold an array of objects; key-value files an object,
// reshaped into {id, value} rows ordered by key.
func (l *Loader) Load(ctx context.Context, desc core.TableDescriptor) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := l.Path(desc)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := decode(path, data)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []core.Row{}, nil
	}

	if desc.IsKeyValueMap {
		return keyValueRows(path, doc)
	}
	return recordRows(path, doc)
}

func decode(path string, data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		doc = plain(doc)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return doc, nil
}

func recordRows(path string, doc any) ([]core.Row, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an array of records, got %T", path, doc)
	}
	rows := make([]core.Row, 0, len(list))
	for i, elem := range list {
		obj, ok := elem.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: record %d is %T, not an object", path, i, elem)
		}
		rows = append(rows, obj)
	}
	return rows, nil
}

func keyValueRows(path string, doc any) ([]core.Row, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object keyed by id, got %T", path, doc)
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]core.Row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, core.Row{"id": k, "value": obj[k]})
	}
	return rows, nil
}

// plain converts YAML-decoded values to the shapes encoding/json produces so
// every downstream consumer sees one representation.
func plain(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = plain(elem)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = plain(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = plain(elem)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return val
	}
}
