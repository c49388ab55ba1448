package driver

import (
	"fmt"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover lists the files under dir matching any include pattern and
// no exclude pattern. Paths are slash-separated, relative to dir
// and sorted.
func Discover(dir string, include, exclude []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source directory: %s is not a directory", dir)
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			if excluded(m, exclude) {
				continue
			}
			files = append(files, m)
		}
	}
	slices.Sort(files)
	return files, nil
}

// Matches reports whether the slash-separated relative path rel
// would be discovered.
func Matches(rel string, include, exclude []string) bool {
	for _, p := range include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return !excluded(rel, exclude)
		}
	}
	return false
}

func excluded(rel string, exclude []string) bool {
	for _, p := range exclude {
		// Patterns are validated when the configuration is loaded.
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
