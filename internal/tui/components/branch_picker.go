package components

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devices-agents/agentboard/internal/github"
	"github.com/devices-agents/agentboard/internal/tui"
)

// BranchSelectedMsg is sent when the user picks a branch.
type BranchSelectedMsg struct {
	Branch string
}

// Branch group headings.
const (
	GroupDefault = "Default"
	GroupAll     = "All Branches"
)

type branchItem struct {
	group  string
	branch string
}

// BranchPicker lists branches in a Default and an All Branches group.
type BranchPicker struct {
	focused bool
	width   int
	height  int
	styles  tui.Styles

	branches []string
	current  string
	loading  bool

	items     []branchItem
	cursor    int
	offset    int
	query     string
	searching bool
	gPressed  bool
}

// NewBranchPicker creates a picker showing current as the active branch.
func NewBranchPicker(current string) *BranchPicker {
	return &BranchPicker{
		current: current,
		styles:  tui.StylesFor(tui.ThemeDark),
	}
}

// Init initializes the component.
func (p *BranchPicker) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *BranchPicker) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.SetSize(msg.Width, msg.Height)
	case tui.FocusMsg:
		p.focused = true
	case tui.BlurMsg:
		p.Blur()
	case tui.ThemeMsg:
		p.styles = msg.Styles
	case tea.KeyMsg:
		if p.focused {
			return p.handleKeyMsg(msg)
		}
	}
	return p, nil
}

func (p *BranchPicker) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if p.searching {
		p.handleSearchInput(msg)
		return p, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		if p.query != "" {
			p.setQuery("")
		}
	case tea.KeyUp:
		p.moveCursor(-1)
	case tea.KeyDown:
		p.moveCursor(1)
	case tea.KeyEnter:
		p.gPressed = false
		return p, p.selectCurrent()
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "/":
			p.searching = true
		case "j":
			p.moveCursor(1)
		case "k":
			p.moveCursor(-1)
		case "G":
			p.cursor = max(len(p.items)-1, 0)
			p.offset = AdjustOffset(p.cursor, p.offset, p.itemRows())
		case "g":
			if p.gPressed {
				p.cursor, p.offset = 0, 0
				p.gPressed = false
			} else {
				p.gPressed = true
			}
			return p, nil
		}
	}
	p.gPressed = false
	return p, nil
}

func (p *BranchPicker) handleSearchInput(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		p.searching = false
	case tea.KeyBackspace:
		if q := []rune(p.query); len(q) > 0 {
			p.setQuery(string(q[:len(q)-1]))
		}
	case tea.KeyCtrlU:
		p.setQuery("")
	case tea.KeyRunes:
		p.setQuery(p.query + string(msg.Runes))
	}
}

func (p *BranchPicker) selectCurrent() tea.Cmd {
	if p.cursor < 0 || p.cursor >= len(p.items) {
		return nil
	}
	branch := p.items[p.cursor].branch
	p.current = branch
	return func() tea.Msg {
		return BranchSelectedMsg{Branch: branch}
	}
}

func (p *BranchPicker) setQuery(q string) {
	p.query = q
	p.rebuild()
	p.cursor, p.offset = 0, 0
}

func (p *BranchPicker) moveCursor(delta int) {
	p.cursor = MoveCursor(p.cursor, delta, len(p.items))
	p.offset = AdjustOffset(p.cursor, p.offset, p.itemRows())
}

// rebuild recomputes the grouped items from branches and the query.
func (p *BranchPicker) rebuild() {
	defaults := github.DefaultBranches(p.branches)
	q := strings.ToLower(p.query)
	keep := func(b string) bool {
		return q == "" || strings.Contains(strings.ToLower(b), q)
	}

	p.items = p.items[:0]
	for _, b := range defaults {
		if keep(b) {
			p.items = append(p.items, branchItem{group: GroupDefault, branch: b})
		}
	}
	for _, b := range p.branches {
		if slices.Contains(defaults, b) || !keep(b) {
			continue
		}
		p.items = append(p.items, branchItem{group: GroupAll, branch: b})
	}
}

// SetBranches replaces the list. The cursor lands on the current branch when
// it is present.
func (p *BranchPicker) SetBranches(branches []string) {
	p.branches = append([]string(nil), branches...)
	p.loading = false
	p.rebuild()
	p.cursor, p.offset = 0, 0
	for i, it := range p.items {
		if it.branch == p.current {
			p.cursor = i
			break
		}
	}
	p.offset = AdjustOffset(p.cursor, 0, p.itemRows())
}

// Branches returns the full, unfiltered list.
func (p *BranchPicker) Branches() []string { return p.branches }

// Visible returns the branches that pass the filter, in display order.
func (p *BranchPicker) Visible() []string {
	out := make([]string, len(p.items))
	for i, it := range p.items {
		out[i] = it.branch
	}
	return out
}

// Groups returns the visible branches keyed by group heading.
func (p *BranchPicker) Groups() map[string][]string {
	groups := make(map[string][]string)
	for _, it := range p.items {
		groups[it.group] = append(groups[it.group], it.branch)
	}
	return groups
}

// Current returns the active branch.
func (p *BranchPicker) Current() string { return p.current }

// SetCurrent marks branch as active.
func (p *BranchPicker) SetCurrent(branch string) { p.current = branch }

// Cursor returns the cursor position.
func (p *BranchPicker) Cursor() int { return p.cursor }

// Query returns the filter text.
func (p *BranchPicker) Query() string { return p.query }

// IsSearching reports whether keystrokes go to the filter.
func (p *BranchPicker) IsSearching() bool { return p.searching }

// SetLoading shows a loading placeholder until SetBranches is called.
func (p *BranchPicker) SetLoading(loading bool) { p.loading = loading }

// Loading reports whether a fetch is in flight.
func (p *BranchPicker) Loading() bool { return p.loading }

// View renders the component.
func (p *BranchPicker) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := max(p.width-2, 1)
	title := fmt.Sprintf("Branch: %s", p.current)
	parts := []string{tui.RenderTitle(p.styles, title, innerWidth, p.focused)}

	switch {
	case p.searching:
		parts = append(parts, tui.Fg(p.styles.Accent).Render(tui.Truncate("/ "+p.query+"▌", innerWidth)))
	case p.query != "":
		parts = append(parts, tui.Fg(p.styles.Text).Render(tui.Truncate("/ "+p.query, innerWidth)))
	default:
		parts = append(parts, tui.Fg(p.styles.Muted).Render("/ search branches..."))
	}

	height := p.contentHeight()
	var lines []string
	if len(p.items) == 0 {
		text := "No branches found. Press r to fetch"
		if p.loading {
			text = "Loading branches..."
		}
		lines = append(lines, tui.Fg(p.styles.Muted).Render(tui.Truncate(text, innerWidth)))
	}

	prevGroup := ""
	if p.offset > 0 {
		prevGroup = p.items[p.offset-1].group
	}
	for i := p.offset; i < len(p.items) && len(lines) < height; i++ {
		it := p.items[i]
		if it.group != prevGroup {
			lines = append(lines, tui.Fg(p.styles.Muted).Bold(true).Render(it.group))
			prevGroup = it.group
			if len(lines) >= height {
				break
			}
		}
		lines = append(lines, p.renderItem(it, i == p.cursor, innerWidth))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	parts = append(parts, lines...)

	return tui.RenderBorder(p.styles, strings.Join(parts, "\n"), p.width, p.height, p.focused)
}

func (p *BranchPicker) renderItem(it branchItem, selected bool, width int) string {
	mark := " "
	if it.branch == p.current {
		mark = "✓"
	}
	line := tui.PadRight(fmt.Sprintf(" %s %s", mark, it.branch), width)

	style := lipgloss.NewStyle().Foreground(p.styles.Text)
	if selected && p.focused {
		style = style.Foreground(p.styles.TitleText).Background(p.styles.Accent)
	} else if selected {
		style = style.Reverse(true)
	}
	return style.Render(line)
}

// contentHeight leaves room for the border, title and filter line.
func (p *BranchPicker) contentHeight() int {
	return max(p.height-4, 1)
}

// itemRows is the scroll window for items; up to two group headings share
// the content area.
func (p *BranchPicker) itemRows() int {
	return max(p.contentHeight()-2, 1)
}

// Title returns the component title.
func (p *BranchPicker) Title() string { return "Branches" }

// Focused returns true if focused.
func (p *BranchPicker) Focused() bool { return p.focused }

// Focus sets the component as focused.
func (p *BranchPicker) Focus() { p.focused = true }

// Blur removes focus.
func (p *BranchPicker) Blur() {
	p.focused = false
	p.searching = false
}

// SetSize sets dimensions.
func (p *BranchPicker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the width.
func (p *BranchPicker) Width() int { return p.width }

// Height returns the height.
func (p *BranchPicker) Height() int { return p.height }
