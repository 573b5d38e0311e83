package source

import (
	"context"
	"sort"

	"github.com/everstacklabs/presenter/internal/presentation"
)

// Source produces model presentations from some listing.
type Source interface {
	// Name returns the source name used in configuration (e.g., "pollinations").
	Name() string
	// Fetch returns the normalized models of the listing.
	Fetch(ctx context.Context) ([]presentation.ModelPresentation, error)
}

// Merge combines listings. A later model replaces an earlier one with the
// same name; the result is sorted by name.
func Merge(lists ...[]presentation.ModelPresentation) []presentation.ModelPresentation {
	byName := make(map[string]presentation.ModelPresentation)
	for _, list := range lists {
		for _, m := range list {
			byName[m.Name] = m
		}
	}

	merged := make([]presentation.ModelPresentation, 0, len(byName))
	for _, m := range byName {
		merged = append(merged, m)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Name < merged[j].Name
	})
	return merged
}
