package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// BumpVersion increments the catalog version in place: MINOR when models
// were added, PATCH otherwise. It returns the new version.
func BumpVersion(basePath string, hasNew bool) (string, error) {
	versionPath := filepath.Join(basePath, versionFile)
	data, err := os.ReadFile(versionPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", versionFile, err)
	}

	next, err := bumpSemver(strings.TrimSpace(string(data)), hasNew)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(versionPath, []byte(next+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", versionFile, err)
	}
	return next, nil
}

func bumpSemver(version string, hasNew bool) (string, error) {
	v, err := semver.StrictNewVersion(version)
	if err != nil {
		return "", fmt.Errorf("invalid catalog version %q: %w", version, err)
	}

	var next semver.Version
	if hasNew {
		next = v.IncMinor()
	} else {
		next = v.IncPatch()
	}
	return next.String(), nil
}
