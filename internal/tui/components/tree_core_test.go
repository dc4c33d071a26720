package components

import (
	"testing"

	"github.com/devices-agents/agentboard/internal/tree"
	"github.com/stretchr/testify/assert"
)

func TestMoveCursor(t *testing.T) {
	tests := []struct {
		name                 string
		cursor, delta, count int
		expected             int
	}{
		{"down", 0, 1, 5, 1},
		{"up", 3, -1, 5, 2},
		{"clamps top", 0, -1, 5, 0},
		{"clamps bottom", 4, 1, 5, 4},
		{"empty list", 3, 1, 0, 0},
		{"big jump", 1, 100, 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MoveCursor(tt.cursor, tt.delta, tt.count))
		})
	}
}

func TestAdjustOffset(t *testing.T) {
	tests := []struct {
		name                   string
		cursor, offset, height int
		expected               int
	}{
		{"visible", 3, 0, 10, 0},
		{"above", 2, 5, 10, 2},
		{"below", 12, 0, 10, 3},
		{"zero height", 4, 0, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AdjustOffset(tt.cursor, tt.offset, tt.height))
		})
	}
}

func TestParentRow(t *testing.T) {
	tr := tree.Build(tree.PathLeaves([]string{"lib/a.dart", "lib/b/c.dart"}))
	rows := tree.VisibleRows(tr, tree.ExpandAll(tr), "")
	// lib, lib/b, lib/b/c.dart, lib/a.dart
	assert.Equal(t, -1, ParentRow(rows, 0))
	assert.Equal(t, 0, ParentRow(rows, 1))
	assert.Equal(t, 1, ParentRow(rows, 2))
	assert.Equal(t, 0, ParentRow(rows, 3))
	assert.Equal(t, -1, ParentRow(rows, 99))

	assert.Equal(t, 2, RowIndex(rows, "lib/b/c.dart"))
	assert.Equal(t, -1, RowIndex(rows, "missing"))
}

func TestCheckBox(t *testing.T) {
	assert.Equal(t, "[x]", CheckBox(tree.CheckState{Checked: true}))
	assert.Equal(t, "[-]", CheckBox(tree.CheckState{Indeterminate: true}))
	assert.Equal(t, "[ ]", CheckBox(tree.CheckState{}))
}
