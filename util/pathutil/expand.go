// Package pathutil expands user-supplied paths from flags and config files.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expand resolves a leading ~ and environment variables, then makes the
// path absolute.
func Expand(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ExpandAll expands every path, stopping at the first failure.
func ExpandAll(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		expanded, err := Expand(p)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded)
	}
	return out, nil
}
