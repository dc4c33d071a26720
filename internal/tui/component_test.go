package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestBaseComponent(t *testing.T) {
	t.Run("creates with title", func(t *testing.T) {
		c := NewBaseComponent("Files")
		assert.Equal(t, "Files", c.Title())
		assert.Equal(t, ThemeDark, c.Styles().Theme)
	})

	t.Run("focus and blur", func(t *testing.T) {
		c := NewBaseComponent("Files")
		assert.False(t, c.Focused())
		c.Focus()
		assert.True(t, c.Focused())
		c.Blur()
		assert.False(t, c.Focused())
	})

	t.Run("tracks dimensions", func(t *testing.T) {
		c := NewBaseComponent("Files")
		assert.Equal(t, 0, c.Width())
		c.SetSize(80, 24)
		assert.Equal(t, 80, c.Width())
		assert.Equal(t, 24, c.Height())
	})
}

func TestBaseComponent_Update(t *testing.T) {
	c := NewBaseComponent("Files")

	updated, _ := c.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	base := updated.(*BaseComponent)
	assert.Equal(t, 120, base.Width())
	assert.Equal(t, 40, base.Height())

	c.Update(FocusMsg{})
	assert.True(t, c.Focused())
	c.Update(BlurMsg{})
	assert.False(t, c.Focused())

	c.Update(ThemeMsg{Styles: StylesFor(ThemeLight)})
	assert.Equal(t, ThemeLight, c.Styles().Theme)
}

func TestComponentList(t *testing.T) {
	a := NewBaseComponent("A")
	b := NewBaseComponent("B")
	c := NewBaseComponent("C")

	list := NewComponentList()
	assert.Nil(t, list.Focused())
	list.FocusNext()
	assert.Equal(t, -1, list.FocusIndex())

	list.Add(a)
	list.Add(b)
	list.Add(c)
	assert.Equal(t, 3, list.Len())

	list.FocusFirst()
	assert.True(t, a.Focused())

	list.FocusNext()
	assert.False(t, a.Focused())
	assert.True(t, b.Focused())

	list.FocusPrev()
	list.FocusPrev()
	assert.Equal(t, 2, list.FocusIndex())
	assert.Equal(t, "C", list.Focused().Title())

	list.FocusNext()
	assert.Equal(t, 0, list.FocusIndex())

	list.SetFocusIndex(5)
	assert.Equal(t, 0, list.FocusIndex())
	assert.Nil(t, list.Get(-1))
}

func TestStylesFor(t *testing.T) {
	assert.Equal(t, ThemeLight, StylesFor("light").Theme)
	assert.Equal(t, ThemeDark, StylesFor("dark").Theme)
	assert.Equal(t, ThemeDark, StylesFor("neon").Theme)
	assert.NotEqual(t, StylesFor("light").Accent, StylesFor("dark").Accent)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 6, "hello…"},
		{"hello", 1, "h"},
		{"hello", 0, ""},
		{"déjà vu", 4, "déj…"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.width))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab  ", PadRight("ab", 4))
	assert.Equal(t, "abcd", PadRight("abcd", 4))
	assert.Equal(t, "abc…", PadRight("abcdef", 4))
}

func TestRenderTitle(t *testing.T) {
	out := RenderTitle(StylesFor(ThemeDark), "Files", 20, true)
	assert.Contains(t, out, "Files")
}
