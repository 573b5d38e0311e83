package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	manifestFile          = "manifest.yaml"
	manifestSchemaVersion = "1.0"
	manifestHeader        = "# Model Presentation Catalog Manifest\n# Auto-generated - DO NOT EDIT MANUALLY\n# Run: presenter sync to regenerate\n\n"
)

// ManifestProvider describes a provider entry in the manifest.
type ManifestProvider struct {
	Name   string   `yaml:"name"`
	Models []string `yaml:"models,omitempty"`
}

// ManifestStats holds aggregate counts.
type ManifestStats struct {
	TotalProviders   int `yaml:"total_providers"`
	TotalModels      int `yaml:"total_models"`
	ReasoningModels  int `yaml:"reasoning_models"`
	UncensoredModels int `yaml:"uncensored_models"`
}

// Manifest represents the manifest.yaml file.
type Manifest struct {
	Version       string             `yaml:"version"`
	GeneratedAt   string             `yaml:"generated_at"`
	SchemaVersion string             `yaml:"schema_version"`
	Providers     []ManifestProvider `yaml:"providers"`
	Stats         ManifestStats      `yaml:"stats"`
}

// BuildManifest summarizes a loaded catalog.
func BuildManifest(cat *Catalog, now time.Time) *Manifest {
	m := &Manifest{
		Version:       cat.Version,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		SchemaVersion: manifestSchemaVersion,
	}

	for _, s := range cat.ProviderSlugs() {
		pc := cat.Providers[s]
		mp := ManifestProvider{Name: s}
		for _, e := range pc.Models {
			mp.Models = append(mp.Models, e.File)
			if e.Model.IsReasoning() {
				m.Stats.ReasoningModels++
			}
			if e.Model.IsUncensored() {
				m.Stats.UncensoredModels++
			}
		}
		sort.Strings(mp.Models)
		m.Stats.TotalModels += len(mp.Models)
		m.Providers = append(m.Providers, mp)
	}
	m.Stats.TotalProviders = len(m.Providers)

	return m
}

// GenerateManifest reloads the catalog at basePath and rewrites manifest.yaml.
func GenerateManifest(basePath string) error {
	cat, err := Load(basePath)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(BuildManifest(cat, time.Now()))
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	return os.WriteFile(filepath.Join(basePath, manifestFile), []byte(manifestHeader+string(data)), 0o644)
}
