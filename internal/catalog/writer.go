package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/presenter/internal/presentation"
)

// ownedKeys are the keys the writer is authoritative for. Any other key in
// an existing file was added by hand and is preserved.
var ownedKeys = map[string]bool{
	presentation.KeyName:        true,
	presentation.KeyDescription: true,
	presentation.KeyProvider:    true,
	presentation.KeyUncensored:  true,
	presentation.KeyReasoning:   true,
}

// WriteResult reports what happened when a model was written.
type WriteResult struct {
	Path    string
	IsNew   bool
	Changed bool
}

// Writer writes presentation YAML files, merging into existing files so that
// key order and manually-added keys survive.
type Writer struct {
	basePath string
}

// NewWriter creates a Writer rooted at the catalog base path.
func NewWriter(basePath string) *Writer {
	return &Writer{basePath: basePath}
}

// WriteModel stores m under its provider directory.
func (w *Writer) WriteModel(m presentation.ModelPresentation) (*WriteResult, error) {
	filePath := filepath.Join(w.basePath, ModelPath(m))
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating models dir: %w", err)
	}

	result := &WriteResult{Path: filePath}

	existingData, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		result.IsNew = true
		result.Changed = true
		return result, writeFresh(filePath, m)
	} else if err != nil {
		return nil, fmt.Errorf("reading existing file: %w", err)
	}

	existing, err := readModel(filePath)
	if err != nil {
		return nil, fmt.Errorf("parsing existing model: %w", err)
	}
	if presentation.Equal(existing, m) {
		return result, nil
	}
	result.Changed = true

	var existingDoc yaml.Node
	if err := yaml.Unmarshal(existingData, &existingDoc); err != nil {
		return nil, fmt.Errorf("parsing existing YAML: %w", err)
	}

	modelNode, err := toNode(m)
	if err != nil {
		return nil, err
	}

	out, err := yaml.Marshal(mergeNodes(&existingDoc, modelNode))
	if err != nil {
		return nil, fmt.Errorf("marshaling merged YAML: %w", err)
	}
	if err := os.WriteFile(filePath, out, 0o644); err != nil {
		return nil, fmt.Errorf("writing merged file: %w", err)
	}

	return result, nil
}

// RemoveModel deletes the file of m. Removing a missing file is not an error.
func (w *Writer) RemoveModel(m presentation.ModelPresentation) error {
	return w.RemoveFile(ModelPath(m))
}

// RemoveFile deletes a model file given relative to the catalog root.
func (w *Writer) RemoveFile(rel string) error {
	err := os.Remove(filepath.Join(w.basePath, rel))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", rel, err)
	}
	return nil
}

func writeFresh(path string, m presentation.ModelPresentation) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func toNode(m presentation.ModelPresentation) (*yaml.Node, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling model: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing model YAML: %w", err)
	}
	return &doc, nil
}

// mergeNodes overlays src mapping keys onto dst, keeping dst order and any
// keys the writer does not own. Owned keys missing from src are dropped.
func mergeNodes(dst, src *yaml.Node) *yaml.Node {
	if dst.Kind == yaml.DocumentNode && len(dst.Content) > 0 {
		dst = dst.Content[0]
	}
	if src.Kind == yaml.DocumentNode && len(src.Content) > 0 {
		src = src.Content[0]
	}

	if dst.Kind != yaml.MappingNode || src.Kind != yaml.MappingNode {
		return src
	}

	srcMap := make(map[string]*yaml.Node)
	for i := 0; i+1 < len(src.Content); i += 2 {
		srcMap[src.Content[i].Value] = src.Content[i+1]
	}

	merged := make([]*yaml.Node, 0, len(dst.Content)+len(src.Content))
	seen := make(map[string]bool)
	for i := 0; i+1 < len(dst.Content); i += 2 {
		key := dst.Content[i].Value
		if srcVal, ok := srcMap[key]; ok {
			merged = append(merged, dst.Content[i], srcVal)
			seen[key] = true
			continue
		}
		if ownedKeys[key] {
			continue
		}
		merged = append(merged, dst.Content[i], dst.Content[i+1])
	}

	for i := 0; i+1 < len(src.Content); i += 2 {
		if !seen[src.Content[i].Value] {
			merged = append(merged, src.Content[i], src.Content[i+1])
		}
	}

	dst.Content = merged
	return dst
}
