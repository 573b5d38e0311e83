package diff

import "github.com/everstacklabs/presenter/internal/presentation"

// ChangeSet is the difference between fetched and stored models for one provider.
type ChangeSet struct {
	Provider  string
	New       []ModelChange
	Updated   []ModelUpdate
	Removed   []ModelChange
	Unchanged int
}

// ModelChange is an added or removed model.
type ModelChange struct {
	Name  string
	Model presentation.ModelPresentation
}

// ModelUpdate is a stored model whose fetched fields differ.
type ModelUpdate struct {
	Name     string
	Previous presentation.ModelPresentation
	Model    presentation.ModelPresentation
	Changes  []FieldChange
}

// FieldChange records one field that differs. Flag values are rendered
// as "true", "false" or "unset".
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// HasChanges reports whether the changeset has any modifications.
func (cs *ChangeSet) HasChanges() bool {
	return len(cs.New) > 0 || len(cs.Updated) > 0 || len(cs.Removed) > 0
}

// TotalChanged returns the count of new + updated models.
func (cs *ChangeSet) TotalChanged() int {
	return len(cs.New) + len(cs.Updated)
}
