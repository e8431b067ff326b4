package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Row is one price level as rendered in the dashboard table.
type Row struct {
	Exchange string
	Price    float64
	Amount   float64
}

// SummaryMsg carries one merged Summary received from the BookSummary stream.
type SummaryMsg struct {
	Spread float64
	Bids   []Row
	Asks   []Row
}

// ConnStateMsg reports a change in the streaming RPC's connection state.
type ConnStateMsg struct {
	Connected bool
	Detail    string
}

// ErrMsg reports a terminal error from the stream, shown until the next
// Summary arrives.
type ErrMsg struct {
	Err error
}

// Model is the Bubble Tea model for the order book dashboard.
type Model struct {
	pair string

	connected  bool
	detail     string
	lastUpdate time.Time
	errMsg     string

	spread float64
	bids   []Row
	asks   []Row

	width, height int
	quitting      bool

	keys KeyMap
}

// New creates a dashboard model for the given pair, initially disconnected.
func New(pair string) Model {
	return Model{
		pair: pair,
		keys: DefaultKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case SummaryMsg:
		m.spread = msg.Spread
		m.bids = msg.Bids
		m.asks = msg.Asks
		m.lastUpdate = time.Now()
		m.errMsg = ""

	case ConnStateMsg:
		m.connected = msg.Connected
		m.detail = msg.Detail

	case ErrMsg:
		m.connected = false
		m.errMsg = msg.Err.Error()
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return "\n  bye\n\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf(" Order Book: %s ", m.pair)))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	left := BoxStyle.Render(renderSide("BIDS", m.bids, BidStyle))
	right := BoxStyle.Render(renderSide("ASKS", m.asks, AskStyle))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n\n")

	spreadStyle := BidStyle
	if m.spread < 0 {
		spreadStyle = AskStyle
	}
	b.WriteString(fmt.Sprintf("Spread: %s\n", spreadStyle.Render(fmt.Sprintf("%.8f", m.spread))))

	if m.errMsg != "" {
		b.WriteString(AskStyle.Render("error: "+m.errMsg) + "\n")
	}

	b.WriteString(HelpStyle.Render("q: quit"))
	return b.String()
}

func (m Model) renderStatusBar() string {
	status := StatusDisconnected.Render("● disconnected")
	if m.connected {
		status = StatusConnected.Render("● streaming")
	}
	parts := []string{status}
	if m.detail != "" {
		parts = append(parts, MutedValue.Render(m.detail))
	}
	if !m.lastUpdate.IsZero() {
		parts = append(parts, MutedValue.Render(fmt.Sprintf("updated %s ago", time.Since(m.lastUpdate).Round(time.Millisecond))))
	}
	return strings.Join(parts, "  │  ")
}

func renderSide(title string, rows []Row, style lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-10s %12s %12s", title, "price", "amount")))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(MutedValue.Render("  (no levels)"))
		return b.String()
	}
	for _, r := range rows {
		line := fmt.Sprintf("%-10s %12.4f %12.4f", r.Exchange, r.Price, r.Amount)
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// Program holds the running Bubble Tea program so the stream goroutine can
// push messages into it.
var Program *tea.Program

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(m Model) error {
	Program = tea.NewProgram(m, tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send delivers msg to the running program, if any.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
