package diff

import (
	"sort"

	"github.com/everstacklabs/presenter/internal/presentation"
)

// Compute compares fetched models against the stored models of a provider.
// Stored models missing from the fetch are reported as removed.
func Compute(provider string, fetched []presentation.ModelPresentation, existing map[string]presentation.ModelPresentation) *ChangeSet {
	cs := &ChangeSet{Provider: provider}

	seen := make(map[string]bool, len(fetched))
	for _, f := range fetched {
		seen[f.Name] = true

		old, ok := existing[f.Name]
		if !ok {
			cs.New = append(cs.New, ModelChange{Name: f.Name, Model: f})
			continue
		}

		if changes := FieldChanges(old, f); len(changes) > 0 {
			cs.Updated = append(cs.Updated, ModelUpdate{
				Name:     f.Name,
				Previous: old,
				Model:    f,
				Changes:  changes,
			})
		} else {
			cs.Unchanged++
		}
	}

	for name, m := range existing {
		if !seen[name] {
			cs.Removed = append(cs.Removed, ModelChange{Name: name, Model: m})
		}
	}

	sort.Slice(cs.New, func(i, j int) bool { return cs.New[i].Name < cs.New[j].Name })
	sort.Slice(cs.Updated, func(i, j int) bool { return cs.Updated[i].Name < cs.Updated[j].Name })
	sort.Slice(cs.Removed, func(i, j int) bool { return cs.Removed[i].Name < cs.Removed[j].Name })

	return cs
}

// FieldChanges lists the fields that differ between two records with the same name.
// An absent flag and an explicit false are different values.
func FieldChanges(old, cur presentation.ModelPresentation) []FieldChange {
	var changes []FieldChange

	if old.Description != cur.Description {
		changes = append(changes, FieldChange{presentation.KeyDescription, old.Description, cur.Description})
	}
	if old.Provider != cur.Provider {
		changes = append(changes, FieldChange{presentation.KeyProvider, old.Provider, cur.Provider})
	}
	if !presentation.FlagEqual(old.Uncensored, cur.Uncensored) {
		changes = append(changes, FieldChange{presentation.KeyUncensored,
			presentation.FlagString(old.Uncensored), presentation.FlagString(cur.Uncensored)})
	}
	if !presentation.FlagEqual(old.Reasoning, cur.Reasoning) {
		changes = append(changes, FieldChange{presentation.KeyReasoning,
			presentation.FlagString(old.Reasoning), presentation.FlagString(cur.Reasoning)})
	}

	return changes
}

// BecameUncensored reports whether an update flips a model to uncensored.
func (u ModelUpdate) BecameUncensored() bool {
	return u.Model.IsUncensored() && !u.Previous.IsUncensored()
}
