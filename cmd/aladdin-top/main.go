// Terminal monitor for a running aladdin-server: live profile, valued
// positions, ticker prices, and the trade log, refreshed every few seconds.
//
// Usage:
//
//	go run cmd/aladdin-top/main.go [-server http://localhost:8000] [-syms NVDA,AAPL]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"aladdin/pkg/aladdin"
)

// Styles.
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	symbolStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	priceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
)

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// snapshot is one poll of the server, fetched off the UI goroutine.
type snapshot struct {
	health    aladdin.Health
	profile   aladdin.Profile
	positions map[string]aladdin.ValuedPosition
	prices    map[string]*float64
	log       string
	err       error
}

type snapshotMsg snapshot

type model struct {
	client  *aladdin.Client
	symbols []string

	snap    snapshot
	fetched bool

	viewport      viewport.Model
	ready         bool
	width, height int
}

func initialModel(client *aladdin.Client, symbols []string) model {
	return model{client: client, symbols: symbols}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.fetchCmd())
}

func (m model) fetchCmd() tea.Cmd {
	client, symbols := m.client, m.symbols
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var snap snapshot
		snap.health, snap.err = client.Health(ctx)
		if snap.err != nil {
			return snapshotMsg(snap)
		}
		snap.profile, _ = client.Profile(ctx)
		snap.positions, _ = client.Positions(ctx)
		snap.prices, _ = client.Prices(ctx, symbols)
		snap.log, _ = client.Log(ctx, 15)
		return snapshotMsg(snap)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		contentHeight := msg.Height - 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = contentHeight
		}
		m.viewport.SetContent(m.renderContent())

	case tickMsg:
		return m, tea.Batch(tickCmd(), m.fetchCmd())

	case snapshotMsg:
		m.snap = snapshot(msg)
		m.fetched = true
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	title := " aladdin "
	if m.fetched && m.snap.err == nil {
		title += "· " + m.snap.health.Mode + " "
	}
	headerBar := titleStyle.Render(title)
	footerBar := dimStyle.Render(" q quit · r refresh · updates every 5s")

	return headerBar + "\n" + m.viewport.View() + "\n" + footerBar
}

func (m model) renderContent() string {
	if !m.fetched {
		return dimStyle.Render("waiting for first poll...")
	}
	if m.snap.err != nil {
		return lossStyle.Render(fmt.Sprintf("server unreachable: %v", m.snap.err))
	}

	var b strings.Builder

	p := m.snap.profile
	fmt.Fprintf(&b, "%s  capital %s   open trades %d   p&l today %s\n\n",
		symbolStyle.Render(p.Nickname),
		priceStyle.Render(fmtOpt(p.Capital)),
		p.OpenTrades,
		signedStyle(p.PLToday).Render(fmtOpt(p.PLToday)))

	b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s %8s %10s %10s %12s %10s", "SYMBOL", "QTY", "AVG", "PRICE", "VALUE", "P&L")))
	b.WriteString("\n")
	if len(m.snap.positions) == 0 {
		b.WriteString(dimStyle.Render("no open positions") + "\n")
	}
	for _, sym := range sortedKeys(m.snap.positions) {
		v := m.snap.positions[sym]
		line := fmt.Sprintf("%-8s %8d %10.2f %10s %12s ",
			sym, v.Qty, v.AvgCost, fmtOpt(v.Price), fmtOpt(v.Value))
		b.WriteString(symbolStyle.Render(line[:8]))
		b.WriteString(line[8:])
		b.WriteString(signedStyle(v.PL).Render(fmt.Sprintf("%10s", fmtOpt(v.PL))))
		b.WriteString("\n")
	}

	b.WriteString("\n" + headerStyle.Render("TICKER") + "\n")
	parts := make([]string, 0, len(m.symbols))
	for _, sym := range m.symbols {
		parts = append(parts, symbolStyle.Render(sym)+" "+priceStyle.Render(fmtOpt(m.snap.prices[sym])))
	}
	b.WriteString(strings.Join(parts, "   ") + "\n")

	b.WriteString("\n" + headerStyle.Render("TRADE LOG") + "\n")
	if m.snap.log == "" {
		b.WriteString(dimStyle.Render("empty") + "\n")
	} else {
		b.WriteString(m.snap.log + "\n")
	}
	return b.String()
}

func signedStyle(v *float64) lipgloss.Style {
	if v != nil && *v < 0 {
		return lossStyle
	}
	return gainStyle
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func sortedKeys(m map[string]aladdin.ValuedPosition) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func main() {
	server := flag.String("server", "http://localhost:8000", "aladdin-server base URL")
	syms := flag.String("syms", "NVDA,AAPL,MSFT,TSLA", "ticker symbols, comma separated")
	flag.Parse()

	symbols := strings.Split(strings.ToUpper(*syms), ",")
	client := aladdin.NewClient(*server)

	p := tea.NewProgram(
		initialModel(client, symbols),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
