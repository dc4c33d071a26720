package tree

import "sort"

// Selection is the set of selected leaf identifiers. Functions in this file
// never mutate the selection they are given.
type Selection map[string]bool

// CheckState is the tri-state of a folder control.
type CheckState struct {
	Checked       bool
	Indeterminate bool
}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func (s Selection) clone(extra int) Selection {
	result := make(Selection, len(s)+extra)
	for k, v := range s {
		if v {
			result[k] = true
		}
	}
	return result
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	return s[id]
}

// Len returns the number of selected identifiers.
func (s Selection) Len() int {
	count := 0
	for _, v := range s {
		if v {
			count++
		}
	}
	return count
}

// IDs returns the selected identifiers in sorted order.
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id, v := range s {
		if v {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ToggleLeaf flips membership of exactly id.
func ToggleLeaf(sel Selection, id string) Selection {
	result := sel.clone(1)
	if result[id] {
		delete(result, id)
	} else {
		result[id] = true
	}
	return result
}

// ToggleFolder adds or removes every leaf under node. Identifiers outside the
// subtree keep their state.
func ToggleFolder(sel Selection, node *Node, setSelected bool) Selection {
	affected := CollectLeafIdentifiers(node)
	result := sel.clone(len(affected))
	for id := range affected {
		if setSelected {
			result[id] = true
		} else {
			delete(result, id)
		}
	}
	return result
}

// SelectAll selects every leaf in the tree.
func SelectAll(t *Tree) Selection {
	if t == nil {
		return Selection{}
	}
	return ToggleFolder(nil, t.Root, true)
}

// SelectNone returns an empty selection.
func SelectNone() Selection {
	return Selection{}
}

// Prune drops identifiers that have no leaf in t.
func Prune(sel Selection, t *Tree) Selection {
	result := make(Selection, len(sel))
	for id, v := range sel {
		if !v {
			continue
		}
		if _, ok := t.Leaf(id); ok {
			result[id] = true
		}
	}
	return result
}

// ComputeCheckState derives the tri-state for node. A folder without leaves
// is neither checked nor indeterminate.
func ComputeCheckState(node *Node, sel Selection) CheckState {
	total, selected := countSelected(node, sel)
	return CheckState{
		Checked:       total > 0 && selected == total,
		Indeterminate: selected > 0 && selected < total,
	}
}

// SelectedCount returns how many leaves under node are selected and how many
// there are in total.
func SelectedCount(node *Node, sel Selection) (selected, total int) {
	total, selected = countSelected(node, sel)
	return selected, total
}

func countSelected(node *Node, sel Selection) (total, selected int) {
	if node == nil {
		return 0, 0
	}
	for _, l := range node.Leaves {
		total++
		if sel[l.ID] {
			selected++
		}
	}
	for _, child := range node.Children {
		t, s := countSelected(child, sel)
		total += t
		selected += s
	}
	return total, selected
}
