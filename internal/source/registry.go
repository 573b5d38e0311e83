package source

import (
	"fmt"
	"sort"
	"sync"
)

var (
	mu      sync.RWMutex
	sources = make(map[string]Source)
)

// Register adds a source to the global registry.
func Register(s Source) {
	mu.Lock()
	defer mu.Unlock()
	sources[s.Name()] = s
}

// Get returns a source by name.
func Get(name string) (Source, error) {
	mu.RLock()
	defer mu.RUnlock()
	s, ok := sources[name]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", name)
	}
	return s, nil
}

// List returns all registered source names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
