package presentation

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	reasoningIcon  = "💭"
	uncensoredIcon = "🔞"

	// iconColumn is the width, in terminal cells, reserved for icons in a label.
	// Both icons are double-width.
	iconColumn = 12
)

// LabelParts splits a menu label into its icon prefix and descriptive text.
type LabelParts struct {
	Icons string
	Text  string
}

// LabelParts returns the icon and text parts of the model's menu label.
func (m ModelPresentation) LabelParts() LabelParts {
	var icons strings.Builder
	if m.IsReasoning() {
		icons.WriteString(reasoningIcon)
	}
	if m.IsUncensored() {
		icons.WriteString(uncensoredIcon)
	}

	return LabelParts{
		Icons: icons.String(),
		Text:  fmt.Sprintf("%s (%s, by: %s)", m.Name, m.Description, m.Provider),
	}
}

// Label renders the model as a single menu line with icons aligned to a fixed column.
func (m ModelPresentation) Label() string {
	parts := m.LabelParts()
	pad := iconColumn - runewidth.StringWidth(parts.Icons)
	if pad < 0 {
		pad = 0
	}
	return parts.Icons + strings.Repeat(" ", pad) + " " + parts.Text
}

// DefaultIndex returns the position of the first model not explicitly
// flagged uncensored, or -1.
func DefaultIndex(models []ModelPresentation) int {
	for i, m := range models {
		if !m.IsUncensored() {
			return i
		}
	}
	return -1
}

// DefaultSelection returns the first model not explicitly flagged uncensored.
func DefaultSelection(models []ModelPresentation) (ModelPresentation, bool) {
	i := DefaultIndex(models)
	if i < 0 {
		return ModelPresentation{}, false
	}
	return models[i], true
}
