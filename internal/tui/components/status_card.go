package components

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devices-agents/agentboard/internal/tui"
)

// StatusKind is the kind of notification on a StatusCard.
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusLoading
	StatusSuccess
	StatusError
)

// DefaultStatusTimeout is how long a success stays up.
const DefaultStatusTimeout = 10 * time.Second

// Status is one notification.
type Status struct {
	Kind    StatusKind
	Message string
	Detail  string
	URL     string
}

// clearStatusMsg dismisses the status with the matching sequence number.
type clearStatusMsg struct {
	seq int
}

// StatusCard shows the outcome of the last action.
type StatusCard struct {
	width  int
	height int
	styles tui.Styles

	status  Status
	seq     int
	copied  string
	timeout time.Duration

	writeClipboard func(string) error
}

// NewStatusCard creates an empty card.
func NewStatusCard() *StatusCard {
	return &StatusCard{
		styles:         tui.StylesFor(tui.ThemeDark),
		timeout:        DefaultStatusTimeout,
		writeClipboard: clipboard.WriteAll,
	}
}

// SetClipboardWriter replaces the clipboard sink.
func (c *StatusCard) SetClipboardWriter(write func(string) error) {
	c.writeClipboard = write
}

// SetTimeout sets how long successes stay visible. Zero keeps them until
// dismissed.
func (c *StatusCard) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Show replaces the current status. Successes clear themselves after the
// timeout; errors stay until dismissed.
func (c *StatusCard) Show(s Status) tea.Cmd {
	c.seq++
	c.status = s
	c.copied = ""
	if s.Kind != StatusSuccess || c.timeout <= 0 {
		return nil
	}
	seq := c.seq
	return tea.Tick(c.timeout, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

// Dismiss clears the card.
func (c *StatusCard) Dismiss() {
	c.seq++
	c.status = Status{}
	c.copied = ""
}

// Status returns the current status.
func (c *StatusCard) Status() Status { return c.status }

// Visible reports whether there is anything to show.
func (c *StatusCard) Visible() bool { return c.status.Kind != StatusNone }

// Init initializes the component.
func (c *StatusCard) Init() tea.Cmd {
	return nil
}

// Update handles dismiss keys and timeouts. Keys are handled regardless of
// focus since the card never takes focus.
func (c *StatusCard) Update(msg tea.Msg) (tui.Component, tea.Cmd) {
	switch msg := msg.(type) {
	case clearStatusMsg:
		if msg.seq == c.seq {
			c.Dismiss()
		}
	case tui.ThemeMsg:
		c.styles = msg.Styles
	case tea.KeyMsg:
		if !c.Visible() || msg.Type != tea.KeyRunes {
			return c, nil
		}
		switch string(msg.Runes) {
		case "x":
			c.Dismiss()
		case "y":
			c.copyURL()
		}
	}
	return c, nil
}

func (c *StatusCard) copyURL() {
	if c.status.URL == "" {
		return
	}
	if err := c.writeClipboard(c.status.URL); err != nil {
		c.copied = "✗ Copy failed"
		return
	}
	c.copied = "✓ Copied link"
}

// Copied returns the last copy feedback.
func (c *StatusCard) Copied() string { return c.copied }

// View renders the card, or nothing when empty.
func (c *StatusCard) View() string {
	if !c.Visible() || c.width == 0 {
		return ""
	}

	var color lipgloss.Color
	switch c.status.Kind {
	case StatusSuccess:
		color = c.styles.Success
	case StatusError:
		color = c.styles.Error
	default:
		color = c.styles.Muted
	}

	innerWidth := max(c.width-4, 1)
	lines := []string{lipgloss.NewStyle().Foreground(color).Bold(true).Render(tui.Truncate(c.status.Message, innerWidth))}
	if c.status.Detail != "" {
		lines = append(lines, tui.Fg(c.styles.Text).Render(tui.Truncate(c.status.Detail, innerWidth)))
	}
	if c.status.URL != "" {
		lines = append(lines, tui.Fg(c.styles.Accent).Underline(true).Render(tui.Truncate(c.status.URL, innerWidth)))
	}

	var hints []string
	if c.status.URL != "" {
		hints = append(hints, "y copy link")
	}
	if c.status.Kind != StatusLoading {
		hints = append(hints, "x dismiss")
	}
	footer := strings.Join(hints, "  ")
	if c.copied != "" {
		footer = c.copied + "  " + footer
	}
	if footer != "" {
		lines = append(lines, tui.Fg(c.styles.Muted).Render(tui.Truncate(footer, innerWidth)))
	}

	return lipgloss.NewStyle().
		Width(max(c.width-2, 0)).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(strings.Join(lines, "\n"))
}

// Lines returns the rendered height, zero when hidden.
func (c *StatusCard) Lines() int {
	if !c.Visible() {
		return 0
	}
	return lipgloss.Height(c.View())
}

// Title returns the component title.
func (c *StatusCard) Title() string { return "Status" }

// Focused is always false; the card never takes focus.
func (c *StatusCard) Focused() bool { return false }

// Focus is a no-op.
func (c *StatusCard) Focus() {}

// Blur is a no-op.
func (c *StatusCard) Blur() {}

// SetSize sets dimensions.
func (c *StatusCard) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the width.
func (c *StatusCard) Width() int { return c.width }

// Height returns the height.
func (c *StatusCard) Height() int { return c.height }
