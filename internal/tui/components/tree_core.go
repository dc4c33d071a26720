package components

import "github.com/devices-agents/agentboard/internal/tree"

// This file contains pure functions for list navigation.
// These functions take values and return values - no mutation, no side effects.

// MoveCursor computes new cursor position within bounds.
func MoveCursor(cursor, delta, itemCount int) int {
	if itemCount == 0 {
		return 0
	}
	newCursor := cursor + delta
	if newCursor < 0 {
		return 0
	}
	if newCursor >= itemCount {
		return itemCount - 1
	}
	return newCursor
}

// AdjustOffset ensures cursor is visible within viewport.
func AdjustOffset(cursor, offset, visibleHeight int) int {
	if visibleHeight < 1 {
		visibleHeight = 1
	}
	if cursor < offset {
		return cursor
	}
	if cursor >= offset+visibleHeight {
		return cursor - visibleHeight + 1
	}
	return offset
}

// ParentRow returns the index of the nearest folder row above index with a
// smaller depth, or -1.
func ParentRow(rows []tree.Row, index int) int {
	if index <= 0 || index >= len(rows) {
		return -1
	}
	depth := rows[index].Depth
	for i := index - 1; i >= 0; i-- {
		if rows[i].Kind == tree.RowFolder && rows[i].Depth < depth {
			return i
		}
	}
	return -1
}

// RowIndex finds the row with id, or -1.
func RowIndex(rows []tree.Row, id string) int {
	for i, r := range rows {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

// CheckBox renders a tri-state box.
func CheckBox(state tree.CheckState) string {
	switch {
	case state.Checked:
		return "[x]"
	case state.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}
