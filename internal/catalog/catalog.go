package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/presenter/internal/presentation"
)

const (
	versionFile  = "version.txt"
	providersDir = "providers"
	modelsDir    = "models"

	// InitialVersion is written by Init for a fresh catalog.
	InitialVersion = "0.1.0"

	unknownProvider = "unknown"
	unnamedModel    = "unnamed"
)

// Catalog holds all presentations on disk grouped by provider slug.
type Catalog struct {
	BasePath  string
	Version   string
	Providers map[string]*ProviderCatalog
	Conflicts []Conflict
}

// Conflict is a model name declared by more than one file of a provider.
// Files are relative to the catalog root; only the first is loaded.
type Conflict struct {
	Provider string
	Name     string
	Files    []string
}

// ProviderCatalog holds the models stored under one provider directory.
type ProviderCatalog struct {
	Slug   string
	Models map[string]*Entry // keyed by model name
}

// Entry is a stored presentation and the file it was read from, relative to the catalog root.
type Entry struct {
	Model presentation.ModelPresentation
	File  string
}

// ProviderSlug maps a provider name to its catalog directory name.
func ProviderSlug(provider string) string {
	if s := slug.Make(provider); s != "" {
		return s
	}
	return unknownProvider
}

// ModelFile returns the file name used for a model.
func ModelFile(name string) string {
	s := slug.Make(name)
	if s == "" {
		s = unnamedModel
	}
	return s + ".yaml"
}

// ModelPath returns the path of a model file relative to the catalog root.
func ModelPath(m presentation.ModelPresentation) string {
	return filepath.Join(providersDir, ProviderSlug(m.Provider), modelsDir, ModelFile(m.Name))
}

// Init creates an empty catalog at basePath unless one already exists.
func Init(basePath string) error {
	if err := os.MkdirAll(filepath.Join(basePath, providersDir), 0o755); err != nil {
		return fmt.Errorf("creating providers dir: %w", err)
	}
	versionPath := filepath.Join(basePath, versionFile)
	if _, err := os.Stat(versionPath); err == nil {
		return nil
	}
	return os.WriteFile(versionPath, []byte(InitialVersion+"\n"), 0o644)
}

// Load reads the entire catalog from disk. Every model file is normalized
// with the same rules as any other loosely-typed record.
func Load(basePath string) (*Catalog, error) {
	cat := &Catalog{
		BasePath:  basePath,
		Providers: make(map[string]*ProviderCatalog),
	}

	versionBytes, err := os.ReadFile(filepath.Join(basePath, versionFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", versionFile, err)
	}
	cat.Version = strings.TrimSpace(string(versionBytes))

	entries, err := os.ReadDir(filepath.Join(basePath, providersDir))
	if errors.Is(err, fs.ErrNotExist) {
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading providers dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pc, conflicts, err := loadProvider(basePath, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("loading provider %s: %w", entry.Name(), err)
		}
		cat.Providers[entry.Name()] = pc
		cat.Conflicts = append(cat.Conflicts, conflicts...)
	}

	return cat, nil
}

func loadProvider(basePath, providerSlug string) (*ProviderCatalog, []Conflict, error) {
	pc := &ProviderCatalog{
		Slug:   providerSlug,
		Models: make(map[string]*Entry),
	}

	dir := filepath.Join(basePath, providersDir, providerSlug, modelsDir)
	files, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return pc, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading models dir: %w", err)
	}

	var conflicts []Conflict
	conflictIdx := make(map[string]int)

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".yaml") {
			continue
		}

		m, err := readModel(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", f.Name(), err)
		}
		rel := filepath.Join(providersDir, providerSlug, modelsDir, f.Name())

		if first, ok := pc.Models[m.Name]; ok {
			i, seen := conflictIdx[m.Name]
			if !seen {
				i = len(conflicts)
				conflictIdx[m.Name] = i
				conflicts = append(conflicts, Conflict{Provider: providerSlug, Name: m.Name, Files: []string{first.File}})
			}
			conflicts[i].Files = append(conflicts[i].Files, rel)
			continue
		}
		pc.Models[m.Name] = &Entry{Model: m, File: rel}
	}

	return pc, conflicts, nil
}

func readModel(path string) (presentation.ModelPresentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return presentation.ModelPresentation{}, err
	}

	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return presentation.ModelPresentation{}, fmt.Errorf("parsing YAML: %w", err)
	}
	return presentation.Normalize(presentation.Structured(fields))
}

// ProviderSlugs returns the provider directory names, sorted.
func (c *Catalog) ProviderSlugs() []string {
	slugs := make([]string, 0, len(c.Providers))
	for s := range c.Providers {
		slugs = append(slugs, s)
	}
	sort.Strings(slugs)
	return slugs
}

// Models returns the presentations stored for a provider slug.
func (c *Catalog) Models(providerSlug string) map[string]presentation.ModelPresentation {
	pc, ok := c.Providers[providerSlug]
	if !ok {
		return nil
	}
	out := make(map[string]presentation.ModelPresentation, len(pc.Models))
	for name, e := range pc.Models {
		out[name] = e.Model
	}
	return out
}

// All returns every stored presentation sorted by provider slug then name.
func (c *Catalog) All() []presentation.ModelPresentation {
	var all []presentation.ModelPresentation
	for _, s := range c.ProviderSlugs() {
		pc := c.Providers[s]
		names := make([]string, 0, len(pc.Models))
		for name := range pc.Models {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			all = append(all, pc.Models[name].Model)
		}
	}
	return all
}

// ModelCount returns the number of stored presentations.
func (c *Catalog) ModelCount() int {
	n := 0
	for _, pc := range c.Providers {
		n += len(pc.Models)
	}
	return n
}
