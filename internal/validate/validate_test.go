package validate

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/everstacklabs/presenter/internal/catalog"
	"github.com/everstacklabs/presenter/internal/presentation"
)

func validModel() presentation.ModelPresentation {
	return presentation.ModelPresentation{
		Name:        "openai",
		Description: "OpenAI GPT-4o-mini",
		Provider:    "azure",
		Uncensored:  presentation.Bool(false),
	}
}

func TestValidModelPassesAllChecks(t *testing.T) {
	m := validModel()
	r := ValidateModel(m, filepath.Join("providers", "azure", "models", "openai.yaml"))

	if r.HasErrors() {
		t.Errorf("expected no errors, got: %v", r.Errors())
	}
	if len(r.Warnings()) > 0 {
		t.Errorf("expected no warnings, got: %v", r.Warnings())
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*presentation.ModelPresentation)
		field    string
		severity Severity
	}{
		{"missing name", func(m *presentation.ModelPresentation) { m.Name = "" }, "name", SeverityError},
		{"blank name", func(m *presentation.ModelPresentation) { m.Name = "   " }, "name", SeverityError},
		{"missing description", func(m *presentation.ModelPresentation) { m.Description = "" }, "description", SeverityWarning},
		{"missing provider", func(m *presentation.ModelPresentation) { m.Provider = "" }, "provider", SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(&m)
			r := ValidateModel(m, "")

			found := false
			for _, i := range r.Issues {
				if i.Field == tt.field && i.Severity == tt.severity {
					found = true
				}
			}
			if !found {
				t.Errorf("expected issue on %q with severity %d, got %v", tt.field, tt.severity, r.Issues)
			}
		})
	}
}

func TestFileLocationMismatch(t *testing.T) {
	m := validModel()

	r := ValidateModel(m, filepath.Join("providers", "openai", "models", "openai.yaml"))
	if r.HasErrors() {
		t.Errorf("location mismatch should only warn, got %v", r.Errors())
	}
	if w := r.Warnings(); len(w) != 1 || w[0].Field != "provider" {
		t.Errorf("expected provider warning, got %v", w)
	}

	r = ValidateModel(m, filepath.Join("providers", "azure", "models", "gpt.yaml"))
	if w := r.Warnings(); len(w) != 1 || w[0].Field != "name" {
		t.Errorf("expected name warning, got %v", w)
	}
}

func TestValidateModelsDuplicates(t *testing.T) {
	r := ValidateModels([]presentation.ModelPresentation{validModel(), validModel()})
	if !r.HasErrors() {
		t.Fatal("expected duplicate error")
	}
	if e := r.Errors(); e[0].Message != "duplicate model name" {
		t.Errorf("unexpected error: %v", e)
	}
}

func TestValidateModelsSharedFile(t *testing.T) {
	tests := []struct {
		name    string
		models  []presentation.ModelPresentation
		wantErr bool
	}{
		{"names sharing a file", []presentation.ModelPresentation{
			{Name: "GPT 4", Description: "d", Provider: "acme"},
			{Name: "gpt-4", Description: "d", Provider: "acme"},
		}, true},
		{"same slug under two providers", []presentation.ModelPresentation{
			{Name: "GPT 4", Description: "d", Provider: "acme"},
			{Name: "gpt-4", Description: "d", Provider: "other"},
		}, false},
		{"distinct files", []presentation.ModelPresentation{
			{Name: "gpt-4", Description: "d", Provider: "acme"},
			{Name: "gpt-4o", Description: "d", Provider: "acme"},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ValidateModels(tt.models)
			if r.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors = %v, want %v: %v", r.HasErrors(), tt.wantErr, r.Issues)
			}
			if tt.wantErr && !strings.Contains(r.Errors()[0].Message, "gpt-4.yaml") {
				t.Errorf("error should name the file: %v", r.Errors())
			}
		})
	}
}

func TestValidateAgainstStoredFiles(t *testing.T) {
	stored := map[string]string{
		filepath.Join("providers", "acme", "models", "gpt-4.yaml"): "gpt-4",
	}

	clash := []presentation.ModelPresentation{{Name: "GPT 4", Provider: "acme"}}
	if r := ValidateAgainst(clash, stored); !r.HasErrors() {
		t.Error("expected error for a file held by another name")
	}

	same := []presentation.ModelPresentation{{Name: "gpt-4", Provider: "acme"}}
	if r := ValidateAgainst(same, stored); r.HasErrors() {
		t.Errorf("same name should not conflict: %v", r.Issues)
	}
}

func TestValidateCatalogReportsConflicts(t *testing.T) {
	cat := &catalog.Catalog{
		Providers: map[string]*catalog.ProviderCatalog{},
		Conflicts: []catalog.Conflict{{
			Provider: "acme",
			Name:     "GPT 4",
			Files:    []string{"providers/acme/models/a.yaml", "providers/acme/models/b.yaml"},
		}},
	}

	r := ValidateCatalog(cat)
	if !r.HasErrors() {
		t.Fatal("expected conflict error")
	}
	if msg := r.Errors()[0].Message; !strings.Contains(msg, "a.yaml") || !strings.Contains(msg, "b.yaml") {
		t.Errorf("error should list both files: %q", msg)
	}
}

func TestValidateCatalog(t *testing.T) {
	base := t.TempDir()
	if err := catalog.Init(base); err != nil {
		t.Fatal(err)
	}
	w := catalog.NewWriter(base)
	for _, m := range []presentation.ModelPresentation{
		validModel(),
		{Name: "nodesc", Provider: "azure"},
	} {
		if _, err := w.WriteModel(m); err != nil {
			t.Fatal(err)
		}
	}

	cat, err := catalog.Load(base)
	if err != nil {
		t.Fatal(err)
	}
	r := ValidateCatalog(cat)
	if r.HasErrors() {
		t.Errorf("unexpected errors: %v", r.Errors())
	}
	if len(r.Warnings()) != 1 {
		t.Errorf("expected one warning, got %v", r.Warnings())
	}
}

func TestFormatResult(t *testing.T) {
	if got := FormatResult(&Result{}); got != "Validation passed: no issues found." {
		t.Errorf("FormatResult(empty) = %q", got)
	}

	r := &Result{Issues: []Issue{
		{SeverityError, "a.yaml", "name", "required field is empty"},
		{SeverityWarning, "b.yaml", "description", "required field is empty"},
	}}
	out := FormatResult(r)
	if !strings.Contains(out, "Errors (1):") || !strings.Contains(out, "Warnings (1):") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] a.yaml: name: required field is empty") {
		t.Errorf("issue line missing:\n%s", out)
	}
}
