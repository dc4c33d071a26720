package github

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// FileFilter selects repository blobs by glob pattern.
// A path is kept when it matches any Include pattern and no Exclude pattern.
type FileFilter struct {
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// DefaultFileFilter keeps hand-written Dart sources under lib/.
func DefaultFileFilter() FileFilter {
	return FileFilter{
		Include: []string{"lib/**/*.dart"},
		Exclude: []string{"**/*.g.dart", "**/*.freezed.dart"},
	}
}

// Validate checks that every pattern is well formed.
func (f FileFilter) Validate() error {
	for _, p := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid file pattern: %q", p)
		}
	}
	return nil
}

// Match reports whether path passes the filter.
func (f FileFilter) Match(path string) bool {
	included := len(f.Include) == 0
	for _, p := range f.Include {
		if ok, _ := doublestar.Match(p, path); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range f.Exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return false
		}
	}
	return true
}

// Files returns the sorted paths of blob entries that pass the filter.
func Files(entries []TreeEntry, filter FileFilter) []string {
	var files []string
	for _, e := range entries {
		if e.Type != "blob" {
			continue
		}
		if filter.Match(e.Path) {
			files = append(files, e.Path)
		}
	}
	sort.Strings(files)
	return files
}
