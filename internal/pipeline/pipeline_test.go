package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/everstacklabs/presenter/internal/catalog"
	"github.com/everstacklabs/presenter/internal/config"
	"github.com/everstacklabs/presenter/internal/diff"
	"github.com/everstacklabs/presenter/internal/presentation"
	"github.com/everstacklabs/presenter/internal/source"
)

type stubSource struct {
	name   string
	models []presentation.ModelPresentation
	err    error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(context.Context) ([]presentation.ModelPresentation, error) {
	return s.models, s.err
}

func newTestPipeline(t *testing.T, models ...presentation.ModelPresentation) (*Pipeline, *stubSource, string) {
	t.Helper()
	stub := &stubSource{name: "stub-" + t.Name(), models: models}
	source.Register(stub)

	base := filepath.Join(t.TempDir(), "catalog")
	cfg := &config.Config{
		CatalogPath: base,
		Sources:     []string{stub.name},
	}
	return New(cfg), stub, base
}

var (
	openai    = presentation.ModelPresentation{Name: "openai", Description: "GPT-4o-mini", Provider: "azure", Uncensored: presentation.Bool(false)}
	deepseek  = presentation.ModelPresentation{Name: "deepseek-reasoning", Description: "DeepSeek R1", Provider: "DeepSeek", Reasoning: presentation.Bool(true)}
	evilModel = presentation.ModelPresentation{Name: "evil", Description: "Evil Mode", Provider: "scaleway", Uncensored: presentation.Bool(true)}
)

func TestSyncLifecycle(t *testing.T) {
	p, stub, base := newTestPipeline(t, openai, deepseek)
	ctx := context.Background()

	// 1. Fresh catalog: everything is new.
	res, err := p.Sync(ctx)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if res.Written != 2 || res.Removed != 0 {
		t.Errorf("first sync wrote %d, removed %d", res.Written, res.Removed)
	}
	if res.Version != "0.2.0" {
		t.Errorf("version = %q, want 0.2.0", res.Version)
	}
	for _, rel := range []string{
		"manifest.yaml",
		filepath.Join("providers", "azure", "models", "openai.yaml"),
		filepath.Join("providers", "deepseek", "models", "deepseek-reasoning.yaml"),
	} {
		if _, err := os.Stat(filepath.Join(base, rel)); err != nil {
			t.Errorf("expected %s: %v", rel, err)
		}
	}

	// 2. Same listing: nothing to do.
	res, err = p.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if !res.Skipped || res.SkipReason != "no changes" {
		t.Errorf("expected no-change skip, got %+v", res)
	}

	// 3. One update, one removal.
	updated := openai
	updated.Description = "GPT-4.1-nano"
	stub.models = []presentation.ModelPresentation{updated}

	res, err = p.Sync(ctx)
	if err != nil {
		t.Fatalf("third sync: %v", err)
	}
	if res.Written != 1 || res.Removed != 1 {
		t.Errorf("third sync wrote %d, removed %d", res.Written, res.Removed)
	}
	if res.Version != "0.2.1" {
		t.Errorf("version = %q, want 0.2.1", res.Version)
	}
	if _, err := os.Stat(filepath.Join(base, "providers", "deepseek", "models", "deepseek-reasoning.yaml")); !os.IsNotExist(err) {
		t.Error("removed model file should be deleted")
	}

	cat, err := catalog.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if got := cat.Models("azure")["openai"]; !presentation.Equal(got, updated) {
		t.Errorf("stored %+v, want %+v", got, updated)
	}
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	p, _, base := newTestPipeline(t, openai)
	p.cfg.DryRun = true

	res, err := p.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.SkipReason != "dry run" {
		t.Errorf("expected dry-run skip, got %+v", res)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Error("dry run should not create the catalog")
	}
}

func TestSyncSourceError(t *testing.T) {
	p, stub, _ := newTestPipeline(t)
	stub.err = errors.New("listing unavailable")

	_, err := p.Sync(context.Background())
	if err == nil || !strings.Contains(err.Error(), "listing unavailable") {
		t.Errorf("expected source error, got %v", err)
	}
}

func TestSyncUnknownSource(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	p.cfg.Sources = []string{"no-such-source"}

	if _, err := p.Diff(context.Background()); err == nil {
		t.Error("expected unknown source error")
	}
}

func TestDiffGroupsByProvider(t *testing.T) {
	p, _, _ := newTestPipeline(t, openai, deepseek, evilModel)

	changesets, err := p.Diff(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(changesets) != 3 {
		t.Fatalf("got %d changesets, want 3", len(changesets))
	}
	providers := []string{changesets[0].Provider, changesets[1].Provider, changesets[2].Provider}
	want := []string{"azure", "deepseek", "scaleway"}
	for i := range want {
		if providers[i] != want[i] {
			t.Errorf("providers = %v, want %v", providers, want)
			break
		}
	}
}

func TestDiffProviderFilter(t *testing.T) {
	p, _, _ := newTestPipeline(t, openai, deepseek)
	p.cfg.Providers = []string{"Azure"}

	changesets, err := p.Diff(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(changesets) != 1 || changesets[0].Provider != "azure" {
		t.Errorf("filter not applied: %+v", changesets)
	}
}

func TestSyncMovesModelWhenProviderChanges(t *testing.T) {
	p, stub, base := newTestPipeline(t, openai)
	if _, err := p.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}

	moved := openai
	moved.Provider = "scaleway"
	stub.models = []presentation.ModelPresentation{moved}

	res, err := p.Sync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Written != 1 || res.Removed != 1 {
		t.Errorf("wrote %d, removed %d", res.Written, res.Removed)
	}
	if _, err := os.Stat(filepath.Join(base, "providers", "azure", "models", "openai.yaml")); !os.IsNotExist(err) {
		t.Error("old location should be removed")
	}
	if _, err := os.Stat(filepath.Join(base, "providers", "scaleway", "models", "openai.yaml")); err != nil {
		t.Errorf("new location missing: %v", err)
	}
}

func TestSyncRejectsNamesSharingAFile(t *testing.T) {
	gpt4 := presentation.ModelPresentation{Name: "gpt-4", Description: "GPT-4", Provider: "acme"}
	spaced := presentation.ModelPresentation{Name: "GPT 4", Description: "GPT-4 again", Provider: "acme"}

	p, stub, base := newTestPipeline(t, gpt4, spaced)
	ctx := context.Background()
	path := filepath.Join(base, "providers", "acme", "models", "gpt-4.yaml")

	if _, err := p.Sync(ctx); err == nil || !strings.Contains(err.Error(), "gpt-4.yaml") {
		t.Fatalf("expected shared file error on a fresh catalog, got %v", err)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Fatal("rejected sync should not create the catalog")
	}

	stub.models = []presentation.ModelPresentation{gpt4}
	if _, err := p.Sync(ctx); err != nil {
		t.Fatal(err)
	}

	// Both names in one listing would share gpt-4.yaml.
	stub.models = []presentation.ModelPresentation{gpt4, spaced}
	if _, err := p.Sync(ctx); err == nil || !strings.Contains(err.Error(), "gpt-4.yaml") {
		t.Fatalf("expected shared file error, got %v", err)
	}

	cat, err := catalog.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Version != "0.2.0" || !presentation.Equal(cat.Models("acme")["gpt-4"], gpt4) {
		t.Errorf("rejected sync should leave the catalog untouched: %s %+v", cat.Version, cat.Models("acme"))
	}

	// Renaming hands the file over to the new name.
	stub.models = []presentation.ModelPresentation{spaced}
	res, err := p.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Written != 1 || res.Removed != 1 {
		t.Errorf("wrote %d, removed %d", res.Written, res.Removed)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("renamed model file missing: %v", err)
	}

	cat, err = catalog.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	if got := cat.Models("acme"); len(got) != 1 || !presentation.Equal(got["GPT 4"], spaced) {
		t.Errorf("catalog = %+v", got)
	}

	// The catalog has settled.
	res, err = p.Sync(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Skipped || res.SkipReason != "no changes" {
		t.Errorf("expected no changes, got %+v", res)
	}
}

func TestAssessRisk_LargeChangeset(t *testing.T) {
	cs := &diff.ChangeSet{}
	for i := 0; i < 26; i++ {
		cs.New = append(cs.New, diff.ModelChange{Name: "model"})
	}

	if reasons := assessRisk([]*diff.ChangeSet{cs}); len(reasons) != 1 {
		t.Errorf("expected draft for >25 changes, got %v", reasons)
	}
}

func TestAssessRisk_ManyRemovals(t *testing.T) {
	a := &diff.ChangeSet{Removed: []diff.ModelChange{{Name: "a"}, {Name: "b"}}}
	b := &diff.ChangeSet{Removed: []diff.ModelChange{{Name: "c"}, {Name: "d"}}}

	if reasons := assessRisk([]*diff.ChangeSet{a, b}); len(reasons) != 1 {
		t.Errorf("expected draft for >3 removals across providers, got %v", reasons)
	}
}

func TestAssessRisk_BecameUncensored(t *testing.T) {
	cs := &diff.ChangeSet{
		Updated: []diff.ModelUpdate{{
			Name:     "evil",
			Previous: presentation.ModelPresentation{Name: "evil"},
			Model:    evilModel,
		}},
	}

	reasons := assessRisk([]*diff.ChangeSet{cs})
	if len(reasons) != 1 || reasons[0] != "evil became uncensored" {
		t.Errorf("reasons = %v", reasons)
	}
}

func TestAssessRisk_NormalChangeset(t *testing.T) {
	cs := &diff.ChangeSet{
		New:     []diff.ModelChange{{Name: "a"}},
		Updated: []diff.ModelUpdate{{Name: "b"}},
		Removed: []diff.ModelChange{{Name: "c"}},
	}

	if reasons := assessRisk([]*diff.ChangeSet{cs}); len(reasons) != 0 {
		t.Errorf("expected non-draft for small changeset, got %v", reasons)
	}
}
