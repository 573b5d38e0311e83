package presentation

// ModelPresentation is the display record for a single model.
// Required text fields hold "" when the source omitted them; optional flags
// are nil when absent so that "unset" stays distinguishable from false.
type ModelPresentation struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Provider    string `json:"provider" yaml:"provider"`
	Uncensored  *bool  `json:"uncensored,omitempty" yaml:"uncensored,omitempty"`
	Reasoning   *bool  `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// IsUncensored reports whether the model is explicitly flagged uncensored.
func (m ModelPresentation) IsUncensored() bool {
	return m.Uncensored != nil && *m.Uncensored
}

// IsReasoning reports whether the model is explicitly flagged as a reasoning model.
func (m ModelPresentation) IsReasoning() bool {
	return m.Reasoning != nil && *m.Reasoning
}

// Bool returns a pointer to b, for building optional flags.
func Bool(b bool) *bool {
	return &b
}

// Equal compares two records field by field, treating absent and false as different.
func Equal(a, b ModelPresentation) bool {
	return a.Name == b.Name &&
		a.Description == b.Description &&
		a.Provider == b.Provider &&
		FlagEqual(a.Uncensored, b.Uncensored) &&
		FlagEqual(a.Reasoning, b.Reasoning)
}

// FlagEqual compares two optional flags.
func FlagEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FlagString renders an optional flag as "true", "false" or "unset".
func FlagString(f *bool) string {
	if f == nil {
		return "unset"
	}
	if *f {
		return "true"
	}
	return "false"
}
