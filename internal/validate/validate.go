package validate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/everstacklabs/presenter/internal/catalog"
	"github.com/everstacklabs/presenter/internal/presentation"
)

// Severity classifies validation issues.
type Severity int

const (
	SeverityError   Severity = iota // Blocks sync
	SeverityWarning                 // Reported but doesn't block
)

// Issue represents a single validation problem.
type Issue struct {
	Severity Severity
	Model    string
	Field    string
	Message  string
}

func (i Issue) String() string {
	sev := "ERROR"
	if i.Severity == SeverityWarning {
		sev = "WARN"
	}
	return fmt.Sprintf("[%s] %s: %s: %s", sev, i.Model, i.Field, i.Message)
}

// Result holds all validation issues.
type Result struct {
	Issues []Issue
}

// HasErrors returns true if there are any blocking errors.
func (r *Result) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity issues.
func (r *Result) Errors() []Issue {
	return r.filter(SeverityError)
}

// Warnings returns only warning-severity issues.
func (r *Result) Warnings() []Issue {
	return r.filter(SeverityWarning)
}

func (r *Result) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

func (r *Result) add(sev Severity, model, field, msg string) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Model: model, Field: field, Message: msg})
}

// ValidateModel checks a single presentation. file is the catalog-relative
// path it was read from, or "" for models not yet written.
func ValidateModel(m presentation.ModelPresentation, file string) *Result {
	r := &Result{}

	ref := m.Name
	if file != "" {
		ref = file
	}

	if strings.TrimSpace(m.Name) == "" {
		r.add(SeverityError, ref, presentation.KeyName, "required field is empty")
	}
	if strings.TrimSpace(m.Description) == "" {
		r.add(SeverityWarning, ref, presentation.KeyDescription, "required field is empty")
	}
	if strings.TrimSpace(m.Provider) == "" {
		r.add(SeverityWarning, ref, presentation.KeyProvider, "required field is empty")
	}

	if file == "" {
		return r
	}

	// providers/<provider>/models/<name>.yaml
	if want := catalog.ModelPath(m); filepath.Clean(file) != want {
		dir := filepath.Base(filepath.Dir(filepath.Dir(file)))
		if dir != catalog.ProviderSlug(m.Provider) {
			r.add(SeverityWarning, ref, presentation.KeyProvider,
				fmt.Sprintf("provider %q belongs in directory %q, found in %q", m.Provider, catalog.ProviderSlug(m.Provider), dir))
		}
		if base := filepath.Base(file); base != catalog.ModelFile(m.Name) {
			r.add(SeverityWarning, ref, presentation.KeyName,
				fmt.Sprintf("filename %q does not match name %q (expected %q)", base, m.Name, catalog.ModelFile(m.Name)))
		}
	}

	return r
}

// ValidateModels validates presentations that have not been written yet. It
// reports duplicate names and distinct names that would share a file.
func ValidateModels(models []presentation.ModelPresentation) *Result {
	r := &Result{}
	seen := make(map[string]bool, len(models))
	paths := make(map[string]string, len(models))
	for _, m := range models {
		if seen[m.Name] && m.Name != "" {
			r.add(SeverityError, m.Name, presentation.KeyName, "duplicate model name")
		}
		seen[m.Name] = true

		path := catalog.ModelPath(m)
		if other, ok := paths[path]; ok && other != m.Name {
			r.add(SeverityError, m.Name, presentation.KeyName,
				fmt.Sprintf("file %s is also used by %q", path, other))
		} else if !ok {
			paths[path] = m.Name
		}

		r.Issues = append(r.Issues, ValidateModel(m, "").Issues...)
	}
	return r
}

// ValidateAgainst reports pending models whose file already holds a stored
// model with another name. stored maps catalog-relative files to model names.
func ValidateAgainst(pending []presentation.ModelPresentation, stored map[string]string) *Result {
	r := &Result{}
	for _, m := range pending {
		path := catalog.ModelPath(m)
		if other, ok := stored[path]; ok && other != m.Name {
			r.add(SeverityError, m.Name, presentation.KeyName,
				fmt.Sprintf("file %s already holds %q", path, other))
		}
	}
	return r
}

// ValidateCatalog validates all models in a catalog, in a stable order.
func ValidateCatalog(cat *catalog.Catalog) *Result {
	r := &Result{}
	for _, s := range cat.ProviderSlugs() {
		pc := cat.Providers[s]
		names := make([]string, 0, len(pc.Models))
		for name := range pc.Models {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			e := pc.Models[name]
			r.Issues = append(r.Issues, ValidateModel(e.Model, e.File).Issues...)
		}
	}
	for _, c := range cat.Conflicts {
		r.add(SeverityError, c.Name, presentation.KeyName,
			fmt.Sprintf("declared by %d files: %s", len(c.Files), strings.Join(c.Files, ", ")))
	}
	return r
}

// FormatResult formats validation results for display.
func FormatResult(r *Result) string {
	if len(r.Issues) == 0 {
		return "Validation passed: no issues found."
	}

	var b strings.Builder
	errors := r.Errors()
	warnings := r.Warnings()

	if len(errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(errors))
		for _, e := range errors {
			fmt.Fprintf(&b, "  %s\n", e)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "  %s\n", w)
		}
	}

	return b.String()
}
