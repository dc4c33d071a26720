package components

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/devices-agents/agentboard/internal/credentials"
	"github.com/devices-agents/agentboard/internal/tui"
)

// CredentialsChangedMsg carries the variables parsed from the paste area.
type CredentialsChangedMsg struct {
	Vars map[string]string
}

// TokenPanel is a paste area for KEY=value lines plus a found/missing
// indicator per token.
type TokenPanel struct {
	focused bool
	width   int
	height  int
	styles  tui.Styles

	specs   []credentials.TokenSpec
	tokens  credentials.Tokens
	raw     string
	editing bool
	err     string

	readClipboard func() (string, error)
}

// NewTokenPanel creates a panel reporting on specs.
func NewTokenPanel(specs []credentials.TokenSpec) *TokenPanel {
	return &TokenPanel{
		specs:         specs,
		tokens:        credentials.Tokens{},
		styles:        tui.StylesFor(tui.ThemeDark),
		readClipboard: clipboard.ReadAll,
	}
}

// SetClipboardReader replaces the clipboard source.
func (p *TokenPanel) SetClipboardReader(read func() (string, error)) {
	p.readClipboard = read
}

// Init initializes the component.
func (p *TokenPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (p *TokenPanel) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
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

func (p *TokenPanel) handleKeyMsg(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	if p.editing {
		return p.handleInput(msg)
	}

	switch msg.Type {
	case tea.KeyEnter:
		p.editing = true
	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "p":
			return p, p.paste()
		case "i", "e":
			p.editing = true
		case "D":
			p.raw = ""
			p.err = ""
			return p, p.changed()
		}
	}
	return p, nil
}

func (p *TokenPanel) handleInput(msg tea.KeyMsg) (tui.Component, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		p.editing = false
		return p, nil
	case tea.KeyEnter:
		p.raw += "\n"
	case tea.KeyBackspace:
		if r := []rune(p.raw); len(r) > 0 {
			p.raw = string(r[:len(r)-1])
		}
	case tea.KeyCtrlU:
		p.raw = ""
	case tea.KeySpace:
		p.raw += " "
	case tea.KeyRunes:
		p.raw += string(msg.Runes)
	default:
		return p, nil
	}
	return p, p.changed()
}

func (p *TokenPanel) paste() tea.Cmd {
	text, err := p.readClipboard()
	if err != nil {
		p.err = fmt.Sprintf("Clipboard unavailable: %v", err)
		return nil
	}
	p.err = ""
	p.raw = text
	return p.changed()
}

func (p *TokenPanel) changed() tea.Cmd {
	vars := credentials.Parse(p.raw)
	return func() tea.Msg {
		return CredentialsChangedMsg{Vars: vars}
	}
}

// SetTokens updates the found/missing indicators from the effective
// credentials, which may include values from the environment.
func (p *TokenPanel) SetTokens(tokens credentials.Tokens) {
	p.tokens = tokens
}

// Raw returns the paste area text.
func (p *TokenPanel) Raw() string { return p.raw }

// IsEditing reports whether keystrokes go to the paste area.
func (p *TokenPanel) IsEditing() bool { return p.editing }

// Error returns the last clipboard error.
func (p *TokenPanel) Error() string { return p.err }

// View renders the component.
func (p *TokenPanel) View() string {
	if p.width == 0 || p.height == 0 {
		return ""
	}

	innerWidth := max(p.width-2, 1)
	title := "Credentials"
	if p.editing {
		title += " (editing, esc to finish)"
	}
	parts := []string{tui.RenderTitle(p.styles, title, innerWidth, p.focused)}

	var status []string
	for _, spec := range p.specs {
		if p.tokens.Has(spec.Key) {
			status = append(status, tui.Fg(p.styles.Success).Render("✓ "+spec.Label))
		} else {
			status = append(status, tui.Fg(p.styles.Muted).Render("○ "+spec.Label))
		}
	}
	parts = append(parts, strings.Join(status, "  "))

	height := max(p.height-4, 1)
	lines := p.renderRaw(innerWidth)
	if p.err != "" {
		lines = append([]string{tui.Fg(p.styles.Error).Render(tui.Truncate(p.err, innerWidth))}, lines...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	parts = append(parts, lines...)

	return tui.RenderBorder(p.styles, strings.Join(parts, "\n"), p.width, p.height, p.focused)
}

// renderRaw shows the paste area with values masked.
func (p *TokenPanel) renderRaw(width int) []string {
	if p.raw == "" && !p.editing {
		var hints []string
		for _, spec := range p.specs {
			hints = append(hints, tui.Fg(p.styles.Muted).Render(spec.Key+"=xxx"))
		}
		hints = append(hints, tui.Fg(p.styles.Muted).Render("p paste from clipboard, i type"))
		return hints
	}

	var lines []string
	for _, line := range strings.Split(p.raw, "\n") {
		if key, value, ok := strings.Cut(line, "="); ok && strings.TrimSpace(key) != "" {
			line = key + "=" + credentials.Mask(strings.TrimSpace(value))
		}
		lines = append(lines, tui.Fg(p.styles.Text).Render(tui.Truncate(line, width)))
	}
	if p.editing {
		lines[len(lines)-1] += tui.Fg(p.styles.Accent).Render("▌")
	}
	return lines
}

// Title returns the component title.
func (p *TokenPanel) Title() string { return "Credentials" }

// Focused returns true if focused.
func (p *TokenPanel) Focused() bool { return p.focused }

// Focus sets the component as focused.
func (p *TokenPanel) Focus() { p.focused = true }

// Blur removes focus and leaves edit mode.
func (p *TokenPanel) Blur() {
	p.focused = false
	p.editing = false
}

// SetSize sets dimensions.
func (p *TokenPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Width returns the width.
func (p *TokenPanel) Width() int { return p.width }

// Height returns the height.
func (p *TokenPanel) Height() int { return p.height }
