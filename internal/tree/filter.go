package tree

import "strings"

// RowKind identifies a rendered row.
type RowKind int

const (
	RowFolder RowKind = iota
	RowLeaf
)

// Row is one line of the flattened, filtered tree projection.
type Row struct {
	Kind     RowKind
	Depth    int
	Node     *Node // set for folders
	Leaf     Leaf  // set for leaves
	Expanded bool
	Total    int
}

// ID returns the folder path for folder rows and the leaf identifier otherwise.
func (r Row) ID() string {
	if r.Kind == RowFolder {
		return r.Node.Path
	}
	return r.Leaf.ID
}

// Matches reports whether any of the leaf's keywords contains query,
// ignoring case. An empty query matches everything.
func Matches(leaf Leaf, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, field := range leaf.Keywords {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// IsNodeVisible reports whether node has at least one matching leaf in its
// subtree.
func IsNodeVisible(node *Node, query string) bool {
	if query == "" {
		return true
	}
	if node == nil {
		return false
	}
	for _, l := range node.Leaves {
		if Matches(l, query) {
			return true
		}
	}
	for _, child := range node.Children {
		if IsNodeVisible(child, query) {
			return true
		}
	}
	return false
}

// VisibleRows flattens t for display. Folders come before leaves, both sorted.
// A folder's contents appear only when it is expanded; an active query hides
// folders and leaves without matches but never reorders what remains.
func VisibleRows(t *Tree, expanded map[string]bool, query string) []Row {
	if t == nil || t.Root == nil {
		return nil
	}
	var rows []Row
	appendRows(&rows, t.Root, 0, expanded, query)
	return rows
}

func appendRows(rows *[]Row, node *Node, depth int, expanded map[string]bool, query string) {
	for _, child := range SortedChildren(node) {
		if !IsNodeVisible(child, query) {
			continue
		}
		open := expanded[child.Path]
		*rows = append(*rows, Row{
			Kind:     RowFolder,
			Depth:    depth,
			Node:     child,
			Expanded: open,
			Total:    CountLeaves(child),
		})
		if open {
			appendRows(rows, child, depth+1, expanded, query)
		}
	}
	for _, l := range SortedLeaves(node) {
		if !Matches(l, query) {
			continue
		}
		*rows = append(*rows, Row{Kind: RowLeaf, Depth: depth, Leaf: l})
	}
}

// ToggleExpand returns a new expansion set with path set to expand.
func ToggleExpand(expanded map[string]bool, path string, expand bool) map[string]bool {
	result := make(map[string]bool, len(expanded)+1)
	for k, v := range expanded {
		if v {
			result[k] = true
		}
	}
	if expand {
		result[path] = true
	} else {
		delete(result, path)
	}
	return result
}

// ExpandAll expands every folder in t.
func ExpandAll(t *Tree) map[string]bool {
	result := make(map[string]bool)
	if t == nil {
		return result
	}
	for _, p := range Folders(t.Root) {
		result[p] = true
	}
	return result
}

// CollapseAll returns an expansion set holding only the given defaults.
func CollapseAll(defaults ...string) map[string]bool {
	result := make(map[string]bool, len(defaults))
	for _, p := range defaults {
		result[p] = true
	}
	return result
}
