package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/devices-agents/agentboard/internal/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPicker(current string) *BranchPicker {
	p := NewBranchPicker(current)
	p.SetSize(40, 20)
	p.Focus()
	p.SetBranches([]string{"main", "develop", "alpha", "feature/login", "zeta"})
	return p
}

func sendPicker(p *BranchPicker, keys ...tea.KeyMsg) (*BranchPicker, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var updated tui.Component
		updated, cmd = p.Update(k)
		p = updated.(*BranchPicker)
	}
	return p, cmd
}

func TestBranchPicker_Groups(t *testing.T) {
	p := newPicker("main")

	groups := p.Groups()

	assert.Equal(t, []string{"main", "develop"}, groups[GroupDefault])
	assert.Equal(t, []string{"alpha", "feature/login", "zeta"}, groups[GroupAll])
	assert.Equal(t, []string{"main", "develop", "alpha", "feature/login", "zeta"}, p.Visible())
}

func TestBranchPicker_NoDefaultGroupWithoutDefaults(t *testing.T) {
	p := NewBranchPicker("x")
	p.SetBranches([]string{"x", "y"})

	_, ok := p.Groups()[GroupDefault]

	assert.False(t, ok)
}

func TestBranchPicker_CursorStartsOnCurrent(t *testing.T) {
	p := newPicker("feature/login")

	assert.Equal(t, 3, p.Cursor())
}

func TestBranchPicker_Select(t *testing.T) {
	p := newPicker("main")

	p, cmd := sendPicker(p, runes("j"), runes("j"), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, BranchSelectedMsg{Branch: "alpha"}, cmd())
	assert.Equal(t, "alpha", p.Current())
}

func TestBranchPicker_Filter(t *testing.T) {
	t.Run("filters across groups", func(t *testing.T) {
		p := newPicker("main")

		p, _ = sendPicker(p, runes("/"), runes("E"))

		assert.Equal(t, []string{"develop", "feature/login", "zeta"}, p.Visible())
		assert.Equal(t, 0, p.Cursor())
	})

	t.Run("enter leaves filter mode then selects", func(t *testing.T) {
		p := newPicker("main")

		p, cmd := sendPicker(p, runes("/"), runes("log"), tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd)
		assert.False(t, p.IsSearching())

		_, cmd = sendPicker(p, tea.KeyMsg{Type: tea.KeyEnter})
		require.NotNil(t, cmd)
		assert.Equal(t, BranchSelectedMsg{Branch: "feature/login"}, cmd())
	})

	t.Run("esc clears the filter", func(t *testing.T) {
		p := newPicker("main")
		p, _ = sendPicker(p, runes("/"), runes("zz"), tea.KeyMsg{Type: tea.KeyEsc})
		require.Empty(t, p.Visible())

		p, _ = sendPicker(p, tea.KeyMsg{Type: tea.KeyEsc})

		assert.Len(t, p.Visible(), 5)
	})

	t.Run("enter with no matches does nothing", func(t *testing.T) {
		p := newPicker("main")
		p, _ = sendPicker(p, runes("/"), runes("zz"), tea.KeyMsg{Type: tea.KeyEnter})

		_, cmd := sendPicker(p, tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
	})
}

func TestBranchPicker_Navigation(t *testing.T) {
	p := newPicker("main")

	p, _ = sendPicker(p, runes("G"))
	assert.Equal(t, 4, p.Cursor())

	p, _ = sendPicker(p, runes("j"))
	assert.Equal(t, 4, p.Cursor())

	p, _ = sendPicker(p, runes("g"), runes("g"))
	assert.Equal(t, 0, p.Cursor())
}

func TestBranchPicker_View(t *testing.T) {
	t.Run("groups and marker", func(t *testing.T) {
		view := newPicker("develop").View()

		assert.Contains(t, view, "Branch: develop")
		assert.Contains(t, view, GroupDefault)
		assert.Contains(t, view, GroupAll)
		assert.Contains(t, view, "✓ develop")
	})

	t.Run("loading and empty", func(t *testing.T) {
		p := NewBranchPicker("main")
		p.SetSize(40, 10)
		assert.Contains(t, p.View(), "No branches found")

		p.SetLoading(true)
		assert.Contains(t, p.View(), "Loading branches...")
	})
}
