package tree

import "strings"

// Source is anything that can be normalized into a Leaf.
type Source interface {
	Leaf() Leaf
}

// PathLeaf is a filesystem-style source: a '/'-separated repository path.
type PathLeaf struct {
	Path string
}

// Leaf uses the full path as identifier and search text and the last
// segment as display name.
func (p PathLeaf) Leaf() Leaf {
	segments := strings.Split(p.Path, Separator)
	return Leaf{
		ID:          p.Path,
		DisplayName: segments[len(segments)-1],
		Path:        segments,
		Keywords:    []string{p.Path},
	}
}

// CatalogLeaf is a test case inside a test-management folder.
type CatalogLeaf struct {
	FolderID   string
	FolderName string
	Key        string
	Name       string
	Status     string
}

// Leaf places the test under its folder id, labels the folder by name and
// matches on both the key and the name.
func (c CatalogLeaf) Leaf() Leaf {
	return Leaf{
		ID:           c.Key,
		DisplayName:  c.Name,
		Path:         []string{c.FolderID, c.Key},
		FolderLabels: []string{c.FolderName},
		Keywords:     []string{c.Key, c.Name},
	}
}

// CatalogFolder is a test-management folder, listed even when it holds no
// tests.
type CatalogFolder struct {
	ID   string
	Name string
}

// Folder keys the folder by id and labels it by name.
func (c CatalogFolder) Folder() Folder {
	return Folder{Path: []string{c.ID}, Labels: []string{c.Name}}
}

// Normalize converts sources to leaves, preserving order.
func Normalize(sources []Source) []Leaf {
	leaves := make([]Leaf, 0, len(sources))
	for _, s := range sources {
		leaves = append(leaves, s.Leaf())
	}
	return leaves
}

// PathLeaves is a convenience for the common filesystem case.
func PathLeaves(paths []string) []Leaf {
	leaves := make([]Leaf, 0, len(paths))
	for _, p := range paths {
		leaves = append(leaves, PathLeaf{Path: p}.Leaf())
	}
	return leaves
}
