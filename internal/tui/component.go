package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// Focused returns true if the component is focused.
	Focused() bool

	// Focus sets the component as focused.
	Focus()

	// Blur removes focus from the component.
	Blur()

	// SetSize sets the component dimensions.
	SetSize(width, height int)

	// Width returns the component width.
	Width() int

	// Height returns the component height.
	Height() int
}

// Messages

// FocusMsg is sent when a component should gain focus.
type FocusMsg struct{}

// BlurMsg is sent when a component should lose focus.
type BlurMsg struct{}

// ThemeMsg switches every component to a new palette.
type ThemeMsg struct {
	Styles Styles
}

// BaseComponent provides common functionality for components.
type BaseComponent struct {
	title   string
	focused bool
	width   int
	height  int
	styles  Styles
}

// NewBaseComponent creates a new base component.
func NewBaseComponent(title string) *BaseComponent {
	return &BaseComponent{
		title:  title,
		styles: StylesFor(ThemeDark),
	}
}

// Init initializes the component.
func (c *BaseComponent) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (c *BaseComponent) Update(msg tea.Msg) (Component, tea.Cmd) {
	c.HandleCommon(msg)
	return c, nil
}

// HandleCommon applies size, focus and theme messages. Components embedding
// BaseComponent call it before their own handling.
func (c *BaseComponent) HandleCommon(msg tea.Msg) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
	case FocusMsg:
		c.focused = true
	case BlurMsg:
		c.focused = false
	case ThemeMsg:
		c.styles = msg.Styles
	}
}

// View renders the component.
func (c *BaseComponent) View() string {
	return RenderBorder(c.styles, "[ "+c.title+" ]", c.width, c.height, c.focused)
}

// Title returns the component title.
func (c *BaseComponent) Title() string {
	return c.title
}

// SetTitle replaces the title.
func (c *BaseComponent) SetTitle(title string) {
	c.title = title
}

// Focused returns true if focused.
func (c *BaseComponent) Focused() bool {
	return c.focused
}

// Focus sets the component as focused.
func (c *BaseComponent) Focus() {
	c.focused = true
}

// Blur removes focus.
func (c *BaseComponent) Blur() {
	c.focused = false
}

// SetSize sets dimensions.
func (c *BaseComponent) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *BaseComponent) Width() int {
	return c.width
}

// Height returns the height.
func (c *BaseComponent) Height() int {
	return c.height
}

// Styles returns the active palette.
func (c *BaseComponent) Styles() Styles {
	return c.styles
}

// SetStyles replaces the palette.
func (c *BaseComponent) SetStyles(s Styles) {
	c.styles = s
}

// ComponentList manages a list of components with focus cycling.
type ComponentList struct {
	components []Component
	focusIndex int
}

// NewComponentList creates a new component list.
func NewComponentList() *ComponentList {
	return &ComponentList{
		components: make([]Component, 0),
		focusIndex: -1,
	}
}

// Add adds a component to the list.
func (cl *ComponentList) Add(c Component) {
	cl.components = append(cl.components, c)
}

// Len returns the number of components.
func (cl *ComponentList) Len() int {
	return len(cl.components)
}

// Get returns a component by index.
func (cl *ComponentList) Get(index int) Component {
	if index < 0 || index >= len(cl.components) {
		return nil
	}
	return cl.components[index]
}

// FocusFirst focuses the first component.
func (cl *ComponentList) FocusFirst() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus(0)
}

// FocusNext cycles focus to the next component.
func (cl *ComponentList) FocusNext() {
	if len(cl.components) == 0 {
		return
	}
	cl.setFocus((cl.focusIndex + 1) % len(cl.components))
}

// FocusPrev cycles focus to the previous component.
func (cl *ComponentList) FocusPrev() {
	if len(cl.components) == 0 {
		return
	}
	prev := cl.focusIndex - 1
	if prev < 0 {
		prev = len(cl.components) - 1
	}
	cl.setFocus(prev)
}

// FocusIndex returns the current focus index.
func (cl *ComponentList) FocusIndex() int {
	return cl.focusIndex
}

// SetFocusIndex sets focus to a specific index.
func (cl *ComponentList) SetFocusIndex(index int) {
	if index < 0 || index >= len(cl.components) {
		return
	}
	cl.setFocus(index)
}

// Focused returns the currently focused component.
func (cl *ComponentList) Focused() Component {
	return cl.Get(cl.focusIndex)
}

func (cl *ComponentList) setFocus(index int) {
	if c := cl.Get(cl.focusIndex); c != nil {
		c.Blur()
	}
	cl.focusIndex = index
	if c := cl.Get(index); c != nil {
		c.Focus()
	}
}

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Styles is one palette.
type Styles struct {
	Theme     string
	Accent    lipgloss.Color
	Muted     lipgloss.Color
	Border    lipgloss.Color
	Text      lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	TitleText lipgloss.Color
	TitleBg   lipgloss.Color
}

// StylesFor returns the palette for theme. Unknown names get the dark one.
func StylesFor(theme string) Styles {
	if theme == ThemeLight {
		return Styles{
			Theme:     ThemeLight,
			Accent:    lipgloss.Color("25"),
			Muted:     lipgloss.Color("245"),
			Border:    lipgloss.Color("250"),
			Text:      lipgloss.Color("235"),
			Success:   lipgloss.Color("28"),
			Error:     lipgloss.Color("160"),
			Warning:   lipgloss.Color("130"),
			TitleText: lipgloss.Color("231"),
			TitleBg:   lipgloss.Color("25"),
		}
	}
	return Styles{
		Theme:     ThemeDark,
		Accent:    lipgloss.Color("62"),
		Muted:     lipgloss.Color("240"),
		Border:    lipgloss.Color("240"),
		Text:      lipgloss.Color("252"),
		Success:   lipgloss.Color("42"),
		Error:     lipgloss.Color("203"),
		Warning:   lipgloss.Color("214"),
		TitleText: lipgloss.Color("229"),
		TitleBg:   lipgloss.Color("62"),
	}
}

// Fg returns a style with the given foreground.
func Fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// RenderTitle renders a title bar.
func RenderTitle(s Styles, title string, width int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(width).
		Bold(true).
		Padding(0, 1)

	if focused {
		style = style.Foreground(s.TitleText).Background(s.TitleBg)
	} else {
		style = style.Foreground(s.Text).Background(s.Muted)
	}

	return style.Render(Truncate(title, max(width-2, 0)))
}

// RenderBorder renders content with a border. width and height include the
// border itself.
func RenderBorder(s Styles, content string, width, height int, focused bool) string {
	style := lipgloss.NewStyle().
		Width(max(width-2, 0)).
		Height(max(height-2, 0)).
		BorderStyle(lipgloss.RoundedBorder())

	if focused {
		style = style.BorderForeground(s.Accent)
	} else {
		style = style.BorderForeground(s.Border)
	}

	return style.Render(content)
}

// Truncate shortens s to width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}

// PadRight pads s with spaces to width runes, truncating longer input.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}
