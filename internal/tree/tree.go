// Package tree builds a folder hierarchy from flat leaf identifiers and
// derives selection and filter state over it.
//
// Everything here is a pure function over values: builders never mutate
// their input, selection helpers return new maps. Callers rebuild the tree
// whenever the upstream flat list changes.
package tree

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Separator joins path segments into node paths.
const Separator = "/"

// Leaf is a selectable item at the bottom of the hierarchy.
type Leaf struct {
	ID          string
	DisplayName string
	// Path holds folder segments followed by the leaf's own name.
	Path []string
	// FolderLabels optionally names the folders in Path (same index).
	// Catalog sources key folders by id but show them by name.
	FolderLabels []string
	// Keywords are the fields a search query is matched against.
	Keywords []string
}

// Node is a folder in the hierarchy.
type Node struct {
	Path     string
	Name     string
	Label    string
	Children map[string]*Node
	Leaves   []Leaf
}

// DisplayName returns the label if one was provided, otherwise the segment name.
func (n *Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Tree is the root node plus an identifier index.
type Tree struct {
	Root  *Node
	index map[string]Leaf
	count int
}

func newNode(name, path string) *Node {
	return &Node{
		Name:     name,
		Path:     path,
		Children: make(map[string]*Node),
	}
}

// Folder is a folder that exists whether or not any leaf lands in it.
type Folder struct {
	Path []string
	// Labels optionally names the segments in Path (same index).
	Labels []string
}

// Build creates a tree from leaves and explicit folders. Segments are matched
// exactly; a leaf with a single segment lands on the root and duplicate paths
// are kept as separate leaves. Folders are created even when empty.
func Build(leaves []Leaf, folders ...Folder) *Tree {
	root := newNode("", "")
	t := &Tree{
		Root:  root,
		index: make(map[string]Leaf, len(leaves)),
	}

	for _, f := range folders {
		ensureFolder(root, f.Path, f.Labels)
	}
	for _, leaf := range leaves {
		current := root
		if len(leaf.Path) > 1 {
			current = ensureFolder(root, leaf.Path[:len(leaf.Path)-1], leaf.FolderLabels)
		}
		current.Leaves = append(current.Leaves, copyLeaf(leaf))
		t.index[leaf.ID] = current.Leaves[len(current.Leaves)-1]
		t.count++
	}

	return t
}

// ensureFolder walks path from root, creating missing nodes. A label is
// applied to a node that does not have one yet.
func ensureFolder(root *Node, path, labels []string) *Node {
	current := root
	for i, segment := range path {
		child, ok := current.Children[segment]
		if !ok {
			child = newNode(segment, strings.Join(path[:i+1], Separator))
			current.Children[segment] = child
		}
		if child.Label == "" && i < len(labels) {
			child.Label = labels[i]
		}
		current = child
	}
	return current
}

func copyLeaf(l Leaf) Leaf {
	l.Path = append([]string(nil), l.Path...)
	l.FolderLabels = append([]string(nil), l.FolderLabels...)
	l.Keywords = append([]string(nil), l.Keywords...)
	return l
}

// Leaf looks up a leaf by identifier.
func (t *Tree) Leaf(id string) (Leaf, bool) {
	if t == nil {
		return Leaf{}, false
	}
	l, ok := t.index[id]
	return l, ok
}

// Len returns the number of leaves the tree was built from.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return t.count
}

// Node resolves a folder by its joined path. The empty path is the root.
func (t *Tree) Node(path string) (*Node, bool) {
	if t == nil || t.Root == nil {
		return nil, false
	}
	if path == "" {
		return t.Root, true
	}
	current := t.Root
	for _, segment := range strings.Split(path, Separator) {
		child, ok := current.Children[segment]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// CountLeaves sums leaves over the node and all descendants.
func CountLeaves(node *Node) int {
	if node == nil {
		return 0
	}
	count := len(node.Leaves)
	for _, child := range node.Children {
		count += CountLeaves(child)
	}
	return count
}

// CollectLeafIdentifiers returns every leaf identifier under node, inclusive.
func CollectLeafIdentifiers(node *Node) map[string]bool {
	ids := make(map[string]bool)
	collectInto(node, ids)
	return ids
}

func collectInto(node *Node, ids map[string]bool) {
	if node == nil {
		return
	}
	for _, l := range node.Leaves {
		ids[l.ID] = true
	}
	for _, child := range node.Children {
		collectInto(child, ids)
	}
}

// Folders returns the path of every folder below node.
func Folders(node *Node) []string {
	var paths []string
	for _, child := range SortedChildren(node) {
		paths = append(paths, child.Path)
		paths = append(paths, Folders(child)...)
	}
	return paths
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.English, collate.IgnoreCase)
)

// Compare orders two display strings the way folder and leaf lists are shown.
func Compare(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()
	if c := collator.CompareString(a, b); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortedChildren returns node's children ordered by display name.
func SortedChildren(node *Node) []*Node {
	if node == nil {
		return nil
	}
	children := make([]*Node, 0, len(node.Children))
	for _, child := range node.Children {
		children = append(children, child)
	}
	slices.SortStableFunc(children, func(a, b *Node) int {
		if c := Compare(a.DisplayName(), b.DisplayName()); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return children
}

// SortedLeaves returns node's direct leaves ordered by display name.
// Equal names keep their insertion order.
func SortedLeaves(node *Node) []Leaf {
	if node == nil {
		return nil
	}
	leaves := append([]Leaf(nil), node.Leaves...)
	slices.SortStableFunc(leaves, func(a, b Leaf) int {
		return Compare(a.DisplayName, b.DisplayName)
	})
	return leaves
}
