package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/presenter/internal/presentation"
	"github.com/everstacklabs/presenter/internal/source"
)

func init() {
	source.Register(&File{})
}

// File reads a local listing: a JSON or YAML array of model objects.
type File struct {
	path string
}

func (f *File) Name() string { return "file" }

// Configure sets the listing path.
func (f *File) Configure(path string) {
	f.path = path
}

func (f *File) Fetch(ctx context.Context) ([]presentation.ModelPresentation, error) {
	if f.path == "" {
		return nil, errors.New("file source requires file.path")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	models, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}

	slog.Info("file listing loaded", "path", f.path, "models", len(models))
	return models, nil
}

func parse(data []byte) ([]presentation.ModelPresentation, error) {
	var entries []any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	models := make([]presentation.ModelPresentation, 0, len(entries))
	for i, e := range entries {
		fields, ok := e.(map[string]any)
		if !ok {
			slog.Warn("skipping listing entry that is not an object", "index", i)
			continue
		}
		m, err := presentation.Normalize(presentation.Structured(fields))
		if err != nil {
			return nil, err
		}
		if m.Name == "" {
			slog.Warn("skipping listing entry without name", "index", i)
			continue
		}
		models = append(models, m)
	}
	return models, nil
}
