package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/everstacklabs/presenter/internal/catalog"
	"github.com/everstacklabs/presenter/internal/config"
	"github.com/everstacklabs/presenter/internal/diff"
	"github.com/everstacklabs/presenter/internal/presentation"
	"github.com/everstacklabs/presenter/internal/source"
	"github.com/everstacklabs/presenter/internal/validate"
)

// ExitCode constants for CLI.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitChanges = 2 // Changes detected (diff mode)
)

// Risk gate thresholds. Crossing any of them opens the PR as a draft.
const (
	maxChangedBeforeDraft = 25
	maxRemovedBeforeDraft = 3
)

// Pipeline orchestrates fetch → diff → validate → write → PR.
type Pipeline struct {
	cfg     *config.Config
	catalog *catalog.Catalog
}

// New creates a new Pipeline.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg}
}

// LoadCatalog loads the catalog from disk. A catalog that does not exist
// yet is treated as empty.
func (p *Pipeline) LoadCatalog() error {
	cat, err := catalog.Load(p.cfg.CatalogPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("catalog not found, starting empty", "path", p.cfg.CatalogPath)
		p.catalog = &catalog.Catalog{
			BasePath:  p.cfg.CatalogPath,
			Providers: make(map[string]*catalog.ProviderCatalog),
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	p.catalog = cat
	for _, c := range cat.Conflicts {
		slog.Warn("model declared by several files, using the first",
			"provider", c.Provider, "model", c.Name, "files", c.Files)
	}
	slog.Info("catalog loaded",
		"version", cat.Version,
		"providers", len(cat.Providers),
		"models", cat.ModelCount())
	return nil
}

// Fetch reads every configured source and merges the listings.
func (p *Pipeline) Fetch(ctx context.Context) ([]presentation.ModelPresentation, error) {
	if len(p.cfg.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}

	lists := make([][]presentation.ModelPresentation, 0, len(p.cfg.Sources))
	for _, name := range p.cfg.Sources {
		s, err := source.Get(name)
		if err != nil {
			return nil, err
		}
		models, err := s.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		slog.Info("source fetched", "source", name, "models", len(models))
		lists = append(lists, models)
	}

	return source.Merge(lists...), nil
}

// Diff fetches the sources and compares them against the catalog without writing.
func (p *Pipeline) Diff(ctx context.Context) ([]*diff.ChangeSet, error) {
	if err := p.LoadCatalog(); err != nil {
		return nil, err
	}
	fetched, err := p.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return p.computeChangeSets(fetched), nil
}

// computeChangeSets groups fetched models by provider directory and diffs each
// group. Providers only present in the catalog yield removals.
func (p *Pipeline) computeChangeSets(fetched []presentation.ModelPresentation) []*diff.ChangeSet {
	groups := make(map[string][]presentation.ModelPresentation)
	for _, m := range fetched {
		s := catalog.ProviderSlug(m.Provider)
		groups[s] = append(groups[s], m)
	}

	slugSet := make(map[string]bool)
	for s := range groups {
		slugSet[s] = true
	}
	for _, s := range p.catalog.ProviderSlugs() {
		slugSet[s] = true
	}

	allowed := p.providerFilter()
	slugs := make([]string, 0, len(slugSet))
	for s := range slugSet {
		if allowed == nil || allowed[s] {
			slugs = append(slugs, s)
		}
	}
	sort.Strings(slugs)

	changesets := make([]*diff.ChangeSet, 0, len(slugs))
	for _, s := range slugs {
		changesets = append(changesets, diff.Compute(s, groups[s], p.catalog.Models(s)))
	}
	return changesets
}

func (p *Pipeline) providerFilter() map[string]bool {
	if len(p.cfg.Providers) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(p.cfg.Providers))
	for _, name := range p.cfg.Providers {
		allowed[catalog.ProviderSlug(name)] = true
	}
	return allowed
}

// SyncResult holds the outcome of a sync.
type SyncResult struct {
	ChangeSets   []*diff.ChangeSet
	Written      int
	Removed      int
	Version      string
	DraftReasons []string
	PRNumber     int
	PRURL        string
	PRDraft      bool
	Skipped      bool
	SkipReason   string
}

// Sync runs the full pipeline and writes the catalog.
func (p *Pipeline) Sync(ctx context.Context) (*SyncResult, error) {
	changesets, err := p.Diff(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{ChangeSets: changesets}

	if !anyChanges(changesets) {
		slog.Info("no changes detected")
		result.Skipped = true
		result.SkipReason = "no changes"
		return result, nil
	}

	if val := p.validateChanges(changesets); val.HasErrors() {
		return nil, fmt.Errorf("validation failed:\n%s", validate.FormatResult(val))
	} else if len(val.Warnings()) > 0 {
		slog.Warn("validation warnings", "count", len(val.Warnings()))
	}

	result.DraftReasons = assessRisk(changesets)
	result.PRDraft = len(result.DraftReasons) > 0

	if p.cfg.DryRun {
		slog.Info("dry run, skipping writes", "draft", result.PRDraft)
		result.Skipped = true
		result.SkipReason = "dry run"
		return result, nil
	}

	if err := p.apply(changesets, result); err != nil {
		return nil, err
	}

	if p.cfg.GitHub.Token != "" {
		if err := p.publish(ctx, changesets, result); err != nil {
			return nil, fmt.Errorf("publishing changes: %w", err)
		}
	}

	return result, nil
}

// apply writes the changesets to disk. Files are removed before any write so
// that a new model may take over the file of a removed or moved one.
func (p *Pipeline) apply(changesets []*diff.ChangeSet, result *SyncResult) error {
	if err := catalog.Init(p.cfg.CatalogPath); err != nil {
		return fmt.Errorf("initializing catalog: %w", err)
	}

	writer := catalog.NewWriter(p.cfg.CatalogPath)
	hasNew := false

	for _, cs := range changesets {
		for _, m := range cs.Removed {
			file := p.storedFile(cs.Provider, m.Name)
			if file == "" {
				file = catalog.ModelPath(m.Model)
			}
			if err := writer.RemoveFile(file); err != nil {
				return err
			}
			result.Removed++
		}
		for _, u := range cs.Updated {
			if old := p.storedFile(cs.Provider, u.Name); old != "" && old != catalog.ModelPath(u.Model) {
				if err := writer.RemoveFile(old); err != nil {
					return err
				}
			}
		}
	}

	for _, cs := range changesets {
		for _, m := range cs.New {
			if _, err := writer.WriteModel(m.Model); err != nil {
				return fmt.Errorf("writing new model %s: %w", m.Name, err)
			}
			result.Written++
			hasNew = true
		}
		for _, u := range cs.Updated {
			if _, err := writer.WriteModel(u.Model); err != nil {
				return fmt.Errorf("writing updated model %s: %w", u.Name, err)
			}
			result.Written++
		}
	}

	version, err := catalog.BumpVersion(p.cfg.CatalogPath, hasNew)
	if err != nil {
		return fmt.Errorf("bumping version: %w", err)
	}
	result.Version = version

	if err := catalog.GenerateManifest(p.cfg.CatalogPath); err != nil {
		return fmt.Errorf("generating manifest: %w", err)
	}

	slog.Info("catalog written",
		"written", result.Written,
		"removed", result.Removed,
		"version", version)
	return nil
}

func (p *Pipeline) storedFile(providerSlug, name string) string {
	pc, ok := p.catalog.Providers[providerSlug]
	if !ok {
		return ""
	}
	e, ok := pc.Models[name]
	if !ok {
		return ""
	}
	return e.File
}

func anyChanges(changesets []*diff.ChangeSet) bool {
	for _, cs := range changesets {
		if cs.HasChanges() {
			return true
		}
	}
	return false
}

// validateChanges checks the models about to be written, including files
// they would share with each other or with stored models left untouched.
func (p *Pipeline) validateChanges(changesets []*diff.ChangeSet) *validate.Result {
	var pending []presentation.ModelPresentation
	stored := make(map[string]string)

	for _, cs := range changesets {
		touched := make(map[string]bool)
		for _, m := range cs.New {
			pending = append(pending, m.Model)
			touched[m.Name] = true
		}
		for _, u := range cs.Updated {
			pending = append(pending, u.Model)
			touched[u.Name] = true
		}
		for _, m := range cs.Removed {
			touched[m.Name] = true
		}

		if pc, ok := p.catalog.Providers[cs.Provider]; ok {
			for name, e := range pc.Models {
				if !touched[name] {
					stored[e.File] = name
				}
			}
		}
	}

	result := validate.ValidateModels(pending)
	result.Issues = append(result.Issues, validate.ValidateAgainst(pending, stored).Issues...)
	return result
}

// assessRisk evaluates the changesets against the risk gates and returns
// the reasons the PR should be opened as a draft.
func assessRisk(changesets []*diff.ChangeSet) []string {
	var reasons []string
	changed, removed := 0, 0
	var flipped []string

	for _, cs := range changesets {
		changed += cs.TotalChanged()
		removed += len(cs.Removed)
		for _, u := range cs.Updated {
			if u.BecameUncensored() {
				flipped = append(flipped, u.Name)
			}
		}
	}

	if changed > maxChangedBeforeDraft {
		reasons = append(reasons, fmt.Sprintf("%d models changed", changed))
	}
	if removed > maxRemovedBeforeDraft {
		reasons = append(reasons, fmt.Sprintf("%d models removed", removed))
	}
	for _, name := range flipped {
		reasons = append(reasons, fmt.Sprintf("%s became uncensored", name))
	}
	return reasons
}
