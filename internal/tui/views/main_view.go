package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devices-agents/agentboard/internal/agent"
	"github.com/devices-agents/agentboard/internal/app"
	"github.com/devices-agents/agentboard/internal/buildkite"
	"github.com/devices-agents/agentboard/internal/catalog"
	"github.com/devices-agents/agentboard/internal/credentials"
	"github.com/devices-agents/agentboard/internal/prefs"
	"github.com/devices-agents/agentboard/internal/tree"
	"github.com/devices-agents/agentboard/internal/tui"
	"github.com/devices-agents/agentboard/internal/tui/components"
)

// Pane represents which pane is focused.
type Pane int

const (
	PaneCredentials Pane = iota
	PaneBranches
	PaneTargets
)

// fetchTimeout bounds one background fetch, pagination included.
const fetchTimeout = 2 * time.Minute

// Results of background commands. gen is compared against the view's
// counter so that superseded fetches are dropped.
type (
	branchesLoadedMsg struct {
		gen      int
		branches []string
		err      error
	}
	filesLoadedMsg struct {
		gen    int
		branch string
		files  []string
		err    error
	}
	catalogLoadedMsg struct {
		gen     int
		catalog *catalog.Catalog
		err     error
	}
	triggeredMsg struct {
		agent agent.Agent
		build *buildkite.Build
		err   error
	}
)

// MainView is the agent dashboard: credentials and branches on the left,
// the active agent's target tree on the right.
type MainView struct {
	app    *app.App
	width  int
	height int

	agents      []agent.Agent
	active      int
	focusedPane Pane
	showHelp    bool
	theme       string
	styles      tui.Styles

	tokens  *components.TokenPanel
	picker  *components.BranchPicker
	files   *components.SelectionTree
	tests   *components.SelectionTree
	status  *components.StatusCard
	panes   *tui.ComponentList
	branch  string
	baseEnv map[string]string

	branchGen  int
	fileGen    int
	catalogGen int
	triggering bool
}

// NewMainView creates the dashboard over a.
func NewMainView(a *app.App) *MainView {
	ctx := context.Background()
	theme := a.Theme(ctx)

	v := &MainView{
		app:     a,
		agents:  a.Agents(),
		theme:   theme,
		styles:  tui.StylesFor(theme),
		tokens:  components.NewTokenPanel(agent.TokenSpecs),
		branch:  a.Branch(ctx),
		files:   components.NewSelectionTree("Files", "files", "lib"),
		tests:   components.NewSelectionTree("Tests", "tests"),
		status:  components.NewStatusCard(),
		baseEnv: a.Credentials(),
	}
	v.picker = components.NewBranchPicker(v.branch)
	v.files.SetEmptyText("No files loaded. Press f to fetch")
	v.tests.SetEmptyText("No tests in catalog")
	v.tokens.SetTokens(a.Tokens())

	v.panes = tui.NewComponentList()
	v.panes.Add(v.tokens)
	v.panes.Add(v.picker)
	v.panes.Add(v.files)
	v.applyStyles()
	v.focusPane(PaneTargets)
	return v
}

// Init loads the catalog and, when a GitHub token is available, the branch
// list and files for the persisted branch.
func (v *MainView) Init() tea.Cmd {
	cmds := []tea.Cmd{v.loadCatalog()}
	if v.app.Tokens().Has(agent.GitHubToken) {
		cmds = append(cmds, v.fetchBranches(), v.fetchFiles())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (v *MainView) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	cmd := v.update(msg)
	v.updatePaneSizes()
	return v, cmd
}

func (v *MainView) update(msg tea.Msg) tea.Cmd {
	if v.showHelp {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			if keyMsg.Type == tea.KeyCtrlC {
				return tea.Quit
			}
			if keyMsg.Type == tea.KeyEsc || string(keyMsg.Runes) == "?" {
				v.showHelp = false
			}
			return nil
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case components.CredentialsChangedMsg:
		hadGitHub := v.app.Tokens().Has(agent.GitHubToken)
		v.app.SetCredentials(credentials.Merge(v.baseEnv, msg.Vars))
		v.tokens.SetTokens(v.app.Tokens())
		if hadGitHub || !v.app.Tokens().Has(agent.GitHubToken) {
			return nil
		}
		return tea.Batch(v.fetchBranches(), v.fetchFiles())

	case components.BranchSelectedMsg:
		return v.selectBranch(msg.Branch)

	case branchesLoadedMsg:
		if msg.gen != v.branchGen {
			return nil
		}
		v.picker.SetLoading(false)
		if msg.err != nil {
			return v.status.Show(components.Status{Kind: components.StatusError, Message: msg.err.Error()})
		}
		v.picker.SetBranches(msg.branches)
		return nil

	case filesLoadedMsg:
		if msg.gen != v.fileGen || msg.branch != v.branch {
			return nil
		}
		v.files.SetLoading(false)
		if msg.err != nil {
			return v.status.Show(components.Status{Kind: components.StatusError, Message: msg.err.Error()})
		}
		v.files.SetLeaves(tree.PathLeaves(msg.files))
		return nil

	case catalogLoadedMsg:
		if msg.gen != v.catalogGen {
			return nil
		}
		v.tests.SetLoading(false)
		if msg.err != nil {
			v.tests.SetNotice(catalogNotice(msg.err, v.app.Config().Catalog))
			return nil
		}
		v.tests.SetNotice("")
		v.tests.SetLeaves(msg.catalog.Leaves(), msg.catalog.TreeFolders()...)
		return nil

	case triggeredMsg:
		v.triggering = false
		if msg.err != nil {
			return v.status.Show(components.Status{Kind: components.StatusError, Message: msg.err.Error()})
		}
		return v.status.Show(components.Status{
			Kind:    components.StatusSuccess,
			Message: "Pipeline triggered!",
			Detail:  fmt.Sprintf("%s build #%d", msg.agent.Name, msg.build.Number),
			URL:     msg.build.WebURL,
		})
	}

	// Status timeouts reach the card whichever pane has focus.
	v.status.Update(msg)
	return v.forwardToFocusedPane(msg)
}

func (v *MainView) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	// In INSERT mode every key goes to the focused pane; it handles Esc.
	if v.isEditing() {
		return v.forwardToFocusedPane(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		v.panes.FocusNext()
		v.focusedPane = Pane(v.panes.FocusIndex())
		return nil
	case tea.KeyShiftTab:
		v.panes.FocusPrev()
		v.focusedPane = Pane(v.panes.FocusIndex())
		return nil
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return tea.Quit
		case "?":
			v.showHelp = true
			return nil
		case "1", "2":
			v.setActive(int(msg.Runes[0] - '1'))
			return nil
		case "r":
			return v.fetchBranches()
		case "f":
			if v.activeAgent().Mode == agent.ModeTests {
				return v.loadCatalog()
			}
			return v.fetchFiles()
		case "t":
			return v.trigger()
		case "T":
			v.toggleTheme()
			return nil
		case "x", "y":
			if v.status.Visible() {
				v.status.Update(msg)
				return nil
			}
		}
	}

	return v.forwardToFocusedPane(msg)
}

func (v *MainView) isEditing() bool {
	return v.tokens.IsEditing() || v.picker.IsSearching() || v.files.IsSearching() || v.tests.IsSearching()
}

func (v *MainView) forwardToFocusedPane(msg tea.Msg) tea.Cmd {
	focused := v.panes.Focused()
	if focused == nil {
		return nil
	}
	_, cmd := focused.Update(msg)
	return cmd
}

func (v *MainView) focusPane(pane Pane) {
	v.focusedPane = pane
	v.panes.SetFocusIndex(int(pane))
}

// setActive switches the agent tab. The targets pane shows that agent's tree.
func (v *MainView) setActive(index int) {
	if index < 0 || index >= len(v.agents) {
		return
	}
	v.targets().Blur()
	v.active = index
	v.panes = tui.NewComponentList()
	v.panes.Add(v.tokens)
	v.panes.Add(v.picker)
	v.panes.Add(v.targets())
	v.focusPane(v.focusedPane)
}

func (v *MainView) activeAgent() agent.Agent {
	return v.agents[v.active]
}

func (v *MainView) targets() *components.SelectionTree {
	if v.activeAgent().Mode == agent.ModeTests {
		return v.tests
	}
	return v.files
}

// selectBranch persists branch. A different branch invalidates the loaded
// files and selection and fetches the new file list.
func (v *MainView) selectBranch(branch string) tea.Cmd {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return nil
	}
	if err := v.app.SelectBranch(context.Background(), branch); err != nil {
		slog.Warn("failed to persist branch", "branch", branch, "error", err)
	}
	v.picker.SetCurrent(branch)
	if branch == v.branch {
		return nil
	}
	v.branch = branch
	v.files.Clear()
	v.fileGen++
	if !v.app.Tokens().Has(agent.GitHubToken) {
		return nil
	}
	return v.fetchFiles()
}

func (v *MainView) fetchBranches() tea.Cmd {
	v.branchGen++
	gen := v.branchGen
	v.picker.SetLoading(true)
	a := v.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		branches, err := a.FetchBranches(ctx)
		return branchesLoadedMsg{gen: gen, branches: branches, err: err}
	}
}

func (v *MainView) fetchFiles() tea.Cmd {
	v.fileGen++
	gen := v.fileGen
	branch := v.branch
	v.files.SetLoading(true)
	a := v.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		files, err := a.FetchFiles(ctx, branch)
		return filesLoadedMsg{gen: gen, branch: branch, files: files, err: err}
	}
}

func (v *MainView) loadCatalog() tea.Cmd {
	v.catalogGen++
	gen := v.catalogGen
	v.tests.SetLoading(true)
	a := v.app
	return func() tea.Msg {
		c, err := a.LoadCatalog()
		return catalogLoadedMsg{gen: gen, catalog: c, err: err}
	}
}

func catalogNotice(err error, path string) string {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Sprintf("No test catalog at %s. Run: agentboard catalog fetch", path)
	}
	return err.Error()
}

func (v *MainView) trigger() tea.Cmd {
	if v.triggering {
		return nil
	}
	ag := v.activeAgent()
	targets := v.targets().SelectedIDs()
	branch := v.branch

	// Validation failures are reported without touching the network.
	if err := agent.Validate(ag, agent.TriggerInput{Branch: branch, Targets: targets, Tokens: v.app.Tokens()}); err != nil {
		return v.status.Show(components.Status{Kind: components.StatusError, Message: err.Error()})
	}

	v.triggering = true
	v.status.Show(components.Status{
		Kind:    components.StatusLoading,
		Message: fmt.Sprintf("Triggering %s on %s (%d %ss)...", ag.Name, branch, len(targets), ag.Unit()),
	})
	a := v.app
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		build, err := a.Trigger(ctx, ag.ID, branch, targets)
		return triggeredMsg{agent: ag, build: build, err: err}
	}
}

func (v *MainView) toggleTheme() {
	theme := prefs.ToggleTheme(v.theme)
	if err := v.app.SetTheme(context.Background(), theme); err != nil {
		slog.Warn("failed to persist theme", "theme", theme, "error", err)
	}
	v.theme = theme
	v.styles = tui.StylesFor(theme)
	v.applyStyles()
}

func (v *MainView) applyStyles() {
	msg := tui.ThemeMsg{Styles: v.styles}
	for _, c := range []tui.Component{v.tokens, v.picker, v.files, v.tests, v.status} {
		c.Update(msg)
	}
}

func (v *MainView) updatePaneSizes() {
	if v.width == 0 || v.height == 0 {
		return
	}

	leftWidth := v.width * 35 / 100
	leftWidth = max(min(leftWidth, 50), 30)
	rightWidth := max(v.width-leftWidth, 1)

	// Tab bar on top, help bar and status bar below.
	totalHeight := max(v.height-3, 4)

	tokenHeight := min(len(agent.TokenSpecs)+6, totalHeight/2)
	v.tokens.SetSize(leftWidth, tokenHeight)
	v.picker.SetSize(leftWidth, totalHeight-tokenHeight)

	v.status.SetSize(rightWidth, 0)
	treeHeight := max(totalHeight-v.status.Lines(), 3)
	v.files.SetSize(rightWidth, treeHeight)
	v.tests.SetSize(rightWidth, treeHeight)
}

// View renders the view.
func (v *MainView) View() string {
	if v.width == 0 || v.height == 0 {
		return ""
	}
	if v.showHelp {
		return v.renderHelp()
	}

	left := lipgloss.JoinVertical(lipgloss.Left, v.tokens.View(), v.picker.View())
	right := v.targets().View()
	if v.status.Visible() {
		right = lipgloss.JoinVertical(lipgloss.Left, right, v.status.View())
	}
	panes := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	return lipgloss.JoinVertical(lipgloss.Left, v.renderTabs(), panes, v.renderHelpBar(), v.renderStatusBar())
}

func (v *MainView) renderTabs() string {
	var tabs []string
	for i, ag := range v.agents {
		label := fmt.Sprintf(" %d %s · %s ", i+1, ag.Name, ag.Title)
		style := lipgloss.NewStyle().Padding(0, 1)
		if i == v.active {
			style = style.Bold(true).Foreground(v.styles.TitleText).Background(v.styles.TitleBg)
		} else {
			style = style.Foreground(v.styles.Muted)
		}
		tabs = append(tabs, style.Render(label))
	}
	desc := tui.Fg(v.styles.Muted).Render("  " + v.activeAgent().Description)
	return lipgloss.NewStyle().Width(v.width).Render(strings.Join(tabs, "") + desc)
}

// renderHelpBar renders context-sensitive keyboard shortcuts.
func (v *MainView) renderHelpBar() string {
	keyStyle := lipgloss.NewStyle().Foreground(v.styles.Warning).Bold(true)
	descStyle := tui.Fg(v.styles.Text)
	sep := tui.Fg(v.styles.Muted).Render(" │ ")
	hint := func(key, desc string) string {
		return keyStyle.Render(key) + descStyle.Render(" "+desc)
	}

	var hints []string
	switch {
	case v.tokens.IsEditing():
		hints = []string{hint("Esc", "Done"), hint("Ctrl+U", "Clear")}
	case v.isEditing():
		hints = []string{hint("Enter", "Apply"), hint("Esc", "Cancel"), hint("Ctrl+U", "Clear")}
	default:
		switch v.focusedPane {
		case PaneCredentials:
			hints = []string{hint("p", "Paste"), hint("i", "Type"), hint("D", "Clear")}
		case PaneBranches:
			hints = []string{hint("j/k", "Navigate"), hint("Enter", "Select"), hint("/", "Filter"), hint("r", "Refresh")}
		case PaneTargets:
			hints = []string{hint("Space", "Toggle"), hint("a/n", "All/None"), hint("/", "Search"), hint("f", "Reload"), hint("t", "Trigger")}
		}
		if v.status.Visible() {
			hints = append(hints, hint("x", "Dismiss"))
		}
		hints = append(hints, hint("1/2", "Agent"), hint("Tab", "Pane"), hint("?", "Help"), hint("q", "Quit"))
	}

	return lipgloss.NewStyle().Width(v.width).Padding(0, 1).Render(strings.Join(hints, sep))
}

// renderStatusBar renders mode, agent, branch and selection.
func (v *MainView) renderStatusBar() string {
	modeStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	var items []string
	if v.isEditing() {
		items = append(items, modeStyle.Background(v.styles.Warning).Foreground(lipgloss.Color("0")).Render("INSERT"))
	} else {
		items = append(items, modeStyle.Background(v.styles.Success).Foreground(lipgloss.Color("0")).Render("NORMAL"))
	}

	ag := v.activeAgent()
	itemStyle := tui.Fg(v.styles.Text).Padding(0, 1)
	items = append(items,
		itemStyle.Render(ag.Name),
		itemStyle.Render("⎇ "+v.branch),
	)
	selected, total := tree.SelectedCount(v.targets().Tree().Root, v.targets().Selection())
	items = append(items, itemStyle.Render(fmt.Sprintf("%d/%d %ss", selected, total, ag.Unit())))

	missing := v.missingTokens()
	if len(missing) > 0 {
		items = append(items, tui.Fg(v.styles.Warning).Padding(0, 1).Render("missing: "+strings.Join(missing, ", ")))
	}

	right := tui.Fg(v.styles.Muted).Padding(0, 1).Render(v.theme + "  ? help  q quit")
	left := strings.Join(items, " ")
	spacer := strings.Repeat(" ", max(v.width-lipgloss.Width(left)-lipgloss.Width(right), 0))
	return lipgloss.NewStyle().Width(v.width).Render(left + spacer + right)
}

func (v *MainView) missingTokens() []string {
	tokens := v.app.Tokens()
	var missing []string
	for _, spec := range agent.TokenSpecs {
		if !tokens.Has(spec.Key) {
			missing = append(missing, spec.Label)
		}
	}
	return missing
}

func (v *MainView) renderHelp() string {
	helpContent := []string{
		"╭──────────────── Agentboard Help ────────────────╮",
		"│                                                 │",
		"│  Navigation                                     │",
		"│    Tab / Shift+Tab    Cycle between panes       │",
		"│    1 / 2              Switch agent              │",
		"│    j / k              Move down/up              │",
		"│    h / l              Collapse/Expand           │",
		"│    gg / G             Go to top/bottom          │",
		"│                                                 │",
		"│  Targets                                        │",
		"│    Space              Toggle file/folder        │",
		"│    a / n              Select all/none           │",
		"│    E / C              Expand/collapse all       │",
		"│    /                  Search                    │",
		"│    f                  Reload files or catalog   │",
		"│    t                  Trigger pipeline          │",
		"│                                                 │",
		"│  Credentials and Branches                       │",
		"│    p                  Paste KEY=value lines     │",
		"│    i                  Type KEY=value lines      │",
		"│    r                  Refresh branches          │",
		"│                                                 │",
		"│  General                                        │",
		"│    x / y              Dismiss/copy build link   │",
		"│    T                  Toggle theme              │",
		"│    ?                  Toggle this help          │",
		"│    q / Ctrl+C         Quit                      │",
		"│                                                 │",
		"│           Press ? or Esc to close               │",
		"╰─────────────────────────────────────────────────╯",
	}

	return lipgloss.NewStyle().
		Width(v.width).
		Height(v.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(v.styles.Text).
		Render(strings.Join(helpContent, "\n"))
}

// Name returns the view name.
func (v *MainView) Name() string { return "Main" }

// Title returns the view title.
func (v *MainView) Title() string { return "Agentboard" }

// Focused returns true if focused.
func (v *MainView) Focused() bool { return true }

// Focus sets focus.
func (v *MainView) Focus() {}

// Blur removes focus.
func (v *MainView) Blur() {}

// SetSize sets dimensions.
func (v *MainView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.updatePaneSizes()
}

// Width returns the width.
func (v *MainView) Width() int { return v.width }

// Height returns the height.
func (v *MainView) Height() int { return v.height }

// FocusedPane returns the currently focused pane.
func (v *MainView) FocusedPane() Pane { return v.focusedPane }

// FocusPane focuses a specific pane.
func (v *MainView) FocusPane(pane Pane) { v.focusPane(pane) }

// ActiveAgent returns the agent on the current tab.
func (v *MainView) ActiveAgent() agent.Agent { return v.activeAgent() }

// Branch returns the selected branch.
func (v *MainView) Branch() string { return v.branch }

// Theme returns the active theme name.
func (v *MainView) Theme() string { return v.theme }

// TokenPanel returns the credentials pane.
func (v *MainView) TokenPanel() *components.TokenPanel { return v.tokens }

// BranchPicker returns the branch pane.
func (v *MainView) BranchPicker() *components.BranchPicker { return v.picker }

// FileTree returns the file selection tree.
func (v *MainView) FileTree() *components.SelectionTree { return v.files }

// TestTree returns the test selection tree.
func (v *MainView) TestTree() *components.SelectionTree { return v.tests }

// StatusCard returns the notification card.
func (v *MainView) StatusCard() *components.StatusCard { return v.status }

// ShowingHelp returns true if help is showing.
func (v *MainView) ShowingHelp() bool { return v.showHelp }
