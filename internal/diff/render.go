package diff

import (
	"fmt"
	"strings"
)

// RenderSummary renders a changeset for terminal output.
func RenderSummary(cs *ChangeSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Provider: %s\n", cs.Provider)
	if !cs.HasChanges() {
		fmt.Fprintf(&b, "  no changes (%d unchanged)\n", cs.Unchanged)
		return b.String()
	}

	for _, m := range cs.New {
		fmt.Fprintf(&b, "  + %s\n", m.Model.Label())
	}
	for _, u := range cs.Updated {
		fmt.Fprintf(&b, "  ~ %s\n", u.Name)
		for _, c := range u.Changes {
			fmt.Fprintf(&b, "      %s: %q -> %q\n", c.Field, c.OldValue, c.NewValue)
		}
	}
	for _, m := range cs.Removed {
		fmt.Fprintf(&b, "  - %s\n", m.Name)
	}
	fmt.Fprintf(&b, "  %d new, %d updated, %d removed, %d unchanged\n",
		len(cs.New), len(cs.Updated), len(cs.Removed), cs.Unchanged)

	return b.String()
}

// RenderPRBody renders the pull request description for a set of changesets.
func RenderPRBody(changesets []*ChangeSet) string {
	var b strings.Builder

	b.WriteString("## Model presentation catalog update\n\n")
	b.WriteString("| Provider | New | Updated | Removed |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, cs := range changesets {
		if !cs.HasChanges() {
			continue
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", cs.Provider, len(cs.New), len(cs.Updated), len(cs.Removed))
	}

	for _, cs := range changesets {
		if !cs.HasChanges() {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", cs.Provider)
		for _, m := range cs.New {
			fmt.Fprintf(&b, "- **new** `%s`: %s\n", m.Name, m.Model.Description)
		}
		for _, u := range cs.Updated {
			parts := make([]string, 0, len(u.Changes))
			for _, c := range u.Changes {
				parts = append(parts, fmt.Sprintf("%s `%s` → `%s`", c.Field, c.OldValue, c.NewValue))
			}
			fmt.Fprintf(&b, "- **updated** `%s`: %s\n", u.Name, strings.Join(parts, ", "))
		}
		for _, m := range cs.Removed {
			fmt.Fprintf(&b, "- **removed** `%s`\n", m.Name)
		}
	}

	return b.String()
}
