package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileFilter_Match(t *testing.T) {
	filter := DefaultFileFilter()

	tests := []struct {
		path     string
		expected bool
	}{
		{"lib/a.dart", true},
		{"lib/b/c.dart", true},
		{"lib/b/d.g.dart", false},
		{"lib/model.freezed.dart", false},
		{"test/a_test.dart", false},
		{"lib/readme.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, filter.Match(tt.path))
		})
	}
}

func TestFileFilter_EmptyIncludeKeepsEverything(t *testing.T) {
	filter := FileFilter{Exclude: []string{"**/*.md"}}

	assert.True(t, filter.Match("src/main.go"))
	assert.False(t, filter.Match("docs/readme.md"))
}

func TestFileFilter_Validate(t *testing.T) {
	assert.NoError(t, DefaultFileFilter().Validate())
	assert.Error(t, FileFilter{Include: []string{"lib/[a"}}.Validate())
}

func TestFiles(t *testing.T) {
	entries := []TreeEntry{
		{Path: "lib/b/d.g.dart", Type: "blob"},
		{Path: "lib/b/c.dart", Type: "blob"},
		{Path: "lib/b", Type: "tree"},
		{Path: "lib/a.dart", Type: "blob"},
		{Path: "lib/sub.dart", Type: "commit"},
	}

	files := Files(entries, DefaultFileFilter())

	assert.Equal(t, []string{"lib/a.dart", "lib/b/c.dart"}, files)
}
