package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devices-agents/agentboard/internal/tree"
	"github.com/devices-agents/agentboard/internal/tui"
)

// SelectionChangedMsg is sent whenever the set of selected leaves changes.
type SelectionChangedMsg struct {
	Count int
}

// SelectionTree is a checkbox tree over a flat list of leaves.
type SelectionTree struct {
	title   string
	unit    string
	focused bool
	width   int
	height  int
	styles  tui.Styles

	tree            *tree.Tree
	selection       tree.Selection
	expanded        map[string]bool
	defaultExpanded []string

	cursor    int
	offset    int
	query     string
	searching bool
	gPressed  bool

	loading   bool
	notice    string
	emptyText string
}

// NewSelectionTree creates an empty tree. unit names one leaf in counts
// ("files", "tests"); defaultExpanded are the folders open initially and
// after collapse-all.
func NewSelectionTree(title, unit string, defaultExpanded ...string) *SelectionTree {
	return &SelectionTree{
		title:           title,
		unit:            unit,
		styles:          tui.StylesFor(tui.ThemeDark),
		tree:            tree.Build(nil),
		selection:       tree.SelectNone(),
		expanded:        tree.CollapseAll(defaultExpanded...),
		defaultExpanded: defaultExpanded,
		emptyText:       "Nothing loaded",
	}
}

// Init initializes the component.
func (c *SelectionTree) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (c *SelectionTree) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.SetSize(msg.Width, msg.Height)
	case tui.FocusMsg:
		c.focused = true
	case tui.BlurMsg:
		c.focused = false
		c.searching = false
	case tui.ThemeMsg:
		c.styles = msg.Styles
	case tea.KeyMsg:
		if c.focused {
			return c.handleKeyMsg(msg)
		}
	}
	return c, nil
}

func (c *SelectionTree) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if c.searching {
		return c.handleSearchInput(msg)
	}

	before := c.selection.Len()
	switch msg.Type {
	case tea.KeyEsc:
		if c.query != "" {
			c.setQuery("")
		}
	case tea.KeyUp:
		c.moveCursor(-1)
	case tea.KeyDown:
		c.moveCursor(1)
	case tea.KeyRight:
		c.expandCurrent()
	case tea.KeyLeft:
		c.collapseCurrent()
	case tea.KeyEnter:
		c.activateCurrent()
	case tea.KeySpace:
		c.toggleCurrent()
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "/":
			c.searching = true
		case "j":
			c.moveCursor(1)
		case "k":
			c.moveCursor(-1)
		case "l":
			c.expandCurrent()
		case "h":
			c.collapseCurrent()
		case "a":
			c.SelectAll()
		case "n":
			c.ClearSelection()
		case "E":
			c.ExpandAll()
		case "C":
			c.CollapseAll()
		case "G":
			c.cursor = max(len(c.Rows())-1, 0)
			c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
		case "g":
			if c.gPressed {
				c.cursor, c.offset = 0, 0
				c.gPressed = false
			} else {
				c.gPressed = true
			}
			return c, nil
		}
	}
	c.gPressed = false

	if c.selection.Len() != before {
		return c, c.changed()
	}
	return c, nil
}

func (c *SelectionTree) handleSearchInput(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		c.searching = false
	case tea.KeyBackspace:
		if q := []rune(c.query); len(q) > 0 {
			c.setQuery(string(q[:len(q)-1]))
		}
	case tea.KeyCtrlU:
		c.setQuery("")
	case tea.KeySpace:
		c.setQuery(c.query + " ")
	case tea.KeyRunes:
		c.setQuery(c.query + string(msg.Runes))
	}
	return c, nil
}

func (c *SelectionTree) changed() tea.Cmd {
	count := c.selection.Len()
	return func() tea.Msg {
		return SelectionChangedMsg{Count: count}
	}
}

func (c *SelectionTree) setQuery(q string) {
	c.query = q
	c.cursor, c.offset = 0, 0
}

func (c *SelectionTree) moveCursor(delta int) {
	c.cursor = MoveCursor(c.cursor, delta, len(c.Rows()))
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

func (c *SelectionTree) current() (tree.Row, bool) {
	rows := c.Rows()
	if c.cursor < 0 || c.cursor >= len(rows) {
		return tree.Row{}, false
	}
	return rows[c.cursor], true
}

func (c *SelectionTree) expandCurrent() {
	row, ok := c.current()
	if !ok || row.Kind != tree.RowFolder {
		return
	}
	if row.Expanded {
		c.moveCursor(1)
		return
	}
	c.expanded = tree.ToggleExpand(c.expanded, row.Node.Path, true)
}

func (c *SelectionTree) collapseCurrent() {
	row, ok := c.current()
	if !ok {
		return
	}
	if row.Kind == tree.RowFolder && row.Expanded {
		c.expanded = tree.ToggleExpand(c.expanded, row.Node.Path, false)
		return
	}
	if parent := ParentRow(c.Rows(), c.cursor); parent >= 0 {
		c.cursor = parent
		c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
	}
}

// activateCurrent opens or closes a folder, or toggles a leaf.
func (c *SelectionTree) activateCurrent() {
	row, ok := c.current()
	if !ok {
		return
	}
	if row.Kind == tree.RowFolder {
		c.expanded = tree.ToggleExpand(c.expanded, row.Node.Path, !row.Expanded)
		return
	}
	c.selection = tree.ToggleLeaf(c.selection, row.Leaf.ID)
}

// toggleCurrent flips the selection of the leaf or whole folder at the cursor.
// A partially selected folder becomes fully selected.
func (c *SelectionTree) toggleCurrent() {
	row, ok := c.current()
	if !ok {
		return
	}
	if row.Kind == tree.RowFolder {
		state := tree.ComputeCheckState(row.Node, c.selection)
		c.selection = tree.ToggleFolder(c.selection, row.Node, !state.Checked)
		return
	}
	c.selection = tree.ToggleLeaf(c.selection, row.Leaf.ID)
}

// SetLeaves rebuilds the tree from leaves and folders. Selection and
// expansion start over; the cursor stays on the same row when it still
// exists.
func (c *SelectionTree) SetLeaves(leaves []tree.Leaf, folders ...tree.Folder) {
	var current string
	if rows := c.Rows(); c.cursor < len(rows) {
		current = rows[c.cursor].ID()
	}

	c.tree = tree.Build(leaves, folders...)
	c.selection = tree.SelectNone()
	c.expanded = tree.CollapseAll(c.defaultExpanded...)
	c.loading = false

	rows := c.Rows()
	if i := RowIndex(rows, current); i >= 0 {
		c.cursor = i
	} else {
		c.cursor = MoveCursor(c.cursor, 0, len(rows))
	}
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

// Clear empties the tree and the selection.
func (c *SelectionTree) Clear() {
	c.tree = tree.Build(nil)
	c.selection = tree.SelectNone()
	c.cursor, c.offset = 0, 0
}

// SelectAll selects every leaf.
func (c *SelectionTree) SelectAll() {
	c.selection = tree.SelectAll(c.tree)
}

// ClearSelection deselects everything.
func (c *SelectionTree) ClearSelection() {
	c.selection = tree.SelectNone()
}

// ExpandAll opens every folder.
func (c *SelectionTree) ExpandAll() {
	c.expanded = tree.ExpandAll(c.tree)
}

// CollapseAll closes every folder except the defaults.
func (c *SelectionTree) CollapseAll() {
	c.expanded = tree.CollapseAll(c.defaultExpanded...)
	c.cursor = MoveCursor(c.cursor, 0, len(c.Rows()))
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

// Rows returns the visible rows.
func (c *SelectionTree) Rows() []tree.Row {
	return tree.VisibleRows(c.tree, c.expanded, c.query)
}

// Tree returns the current tree.
func (c *SelectionTree) Tree() *tree.Tree { return c.tree }

// Selection returns the current selection.
func (c *SelectionTree) Selection() tree.Selection { return c.selection }

// SelectedIDs returns the selected identifiers, sorted.
func (c *SelectionTree) SelectedIDs() []string { return c.selection.IDs() }

// Expanded returns the expansion set.
func (c *SelectionTree) Expanded() map[string]bool { return c.expanded }

// Cursor returns the cursor row.
func (c *SelectionTree) Cursor() int { return c.cursor }

// SetCursor moves the cursor, clamped to the visible rows.
func (c *SelectionTree) SetCursor(pos int) {
	c.cursor = MoveCursor(pos, 0, len(c.Rows()))
	c.offset = AdjustOffset(c.cursor, c.offset, c.contentHeight())
}

// Query returns the search query.
func (c *SelectionTree) Query() string { return c.query }

// IsSearching reports whether keystrokes go to the search box.
func (c *SelectionTree) IsSearching() bool { return c.searching }

// SetLoading shows a loading placeholder until SetLeaves is called.
func (c *SelectionTree) SetLoading(loading bool) { c.loading = loading }

// SetNotice sets a persistent message shown under the tree. Empty clears it.
func (c *SelectionTree) SetNotice(notice string) { c.notice = notice }

// Notice returns the current notice.
func (c *SelectionTree) Notice() string { return c.notice }

// SetEmptyText sets the placeholder shown when there is nothing to list.
func (c *SelectionTree) SetEmptyText(text string) { c.emptyText = text }

// View renders the component.
func (c *SelectionTree) View() string {
	if c.width == 0 || c.height == 0 {
		return ""
	}

	innerWidth := max(c.width-2, 1)
	header := tui.RenderTitle(c.styles, c.header(), innerWidth, c.focused)
	parts := []string{header, c.renderSearchBar(innerWidth)}

	rows := c.Rows()
	height := c.contentHeight()
	var lines []string
	switch {
	case c.loading:
		lines = append(lines, tui.Fg(c.styles.Muted).Render("Loading..."))
	case c.tree.Len() == 0 && len(c.tree.Root.Children) == 0:
		lines = append(lines, tui.Fg(c.styles.Muted).Render(c.emptyText))
	case len(rows) == 0:
		lines = append(lines, tui.Fg(c.styles.Muted).Render("No matches"))
	}
	for i := c.offset; i < len(rows) && len(lines) < height; i++ {
		lines = append(lines, c.renderRow(rows[i], i == c.cursor, innerWidth))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	parts = append(parts, lines...)

	if c.notice != "" {
		parts = append(parts, tui.Fg(c.styles.Warning).Render(tui.Truncate("! "+c.notice, innerWidth)))
	}

	return tui.RenderBorder(c.styles, strings.Join(parts, "\n"), c.width, c.height, c.focused)
}

func (c *SelectionTree) header() string {
	selected, total := tree.SelectedCount(c.tree.Root, c.selection)
	return fmt.Sprintf("%s  %d/%d %s selected", c.title, selected, total, c.unit)
}

func (c *SelectionTree) renderSearchBar(width int) string {
	switch {
	case c.searching:
		return tui.Fg(c.styles.Accent).Render(tui.Truncate("/ "+c.query+"▌", width))
	case c.query != "":
		return tui.Fg(c.styles.Text).Render(tui.Truncate("/ "+c.query+"  (esc to clear)", width))
	default:
		return tui.Fg(c.styles.Muted).Render("/ search...")
	}
}

func (c *SelectionTree) renderRow(row tree.Row, selected bool, width int) string {
	indent := strings.Repeat("  ", row.Depth)

	var line string
	if row.Kind == tree.RowFolder {
		arrow := "▸"
		if row.Expanded {
			arrow = "▾"
		}
		state := tree.ComputeCheckState(row.Node, c.selection)
		count, _ := tree.SelectedCount(row.Node, c.selection)
		line = fmt.Sprintf("%s%s %s %s (%d/%d)", indent, arrow, CheckBox(state), row.Node.DisplayName(), count, row.Total)
	} else {
		state := tree.CheckState{Checked: c.selection.Has(row.Leaf.ID)}
		name := row.Leaf.DisplayName
		if row.Leaf.ID != name && !strings.HasSuffix(row.Leaf.ID, name) {
			name = row.Leaf.ID + "  " + name
		}
		line = fmt.Sprintf("%s  %s %s", indent, CheckBox(state), name)
	}
	line = tui.PadRight(line, width)

	style := lipgloss.NewStyle().Foreground(c.styles.Text)
	if row.Kind == tree.RowFolder {
		style = style.Bold(true)
	}
	if selected && c.focused {
		style = style.Foreground(c.styles.TitleText).Background(c.styles.Accent)
	} else if selected {
		style = style.Reverse(true)
	}
	return style.Render(line)
}

// contentHeight is the number of tree rows that fit: the border, header and
// search bar take four lines, the notice one more.
func (c *SelectionTree) contentHeight() int {
	h := c.height - 4
	if c.notice != "" {
		h--
	}
	return max(h, 1)
}

// Title returns the component title.
func (c *SelectionTree) Title() string { return c.title }

// Focused returns true if focused.
func (c *SelectionTree) Focused() bool { return c.focused }

// Focus sets the component as focused.
func (c *SelectionTree) Focus() { c.focused = true }

// Blur removes focus.
func (c *SelectionTree) Blur() {
	c.focused = false
	c.searching = false
}

// SetSize sets dimensions.
func (c *SelectionTree) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *SelectionTree) Width() int { return c.width }

// Height returns the height.
func (c *SelectionTree) Height() int { return c.height }

// SetStyles replaces the palette.
func (c *SelectionTree) SetStyles(s tui.Styles) { c.styles = s }
