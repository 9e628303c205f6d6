package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/agentwf/pulse/internal/observability"
)

// Dashboard panel indices.
const (
	panelEvents = iota
	panelSeries
	panelCounters
	panelCount
)

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	events   []eventSnapshot
	series   map[string]observability.Summary
	counters map[string]int64

	// State.
	loading bool
	err     error
}

type eventSnapshot struct {
	time    string
	kind    string
	level   string
	source  string
	message string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	events   []eventSnapshot
	series   map[string]observability.Summary
	counters map[string]int64
	err      error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	levelInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	levelWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelError   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	levelDebug   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelEvents,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.events = msg.events
		m.series = msg.series
		m.counters = msg.counters
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Pulse Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	eventsPanel := m.renderEventsPanel()
	seriesPanel := m.renderSeriesPanel()
	countersPanel := m.renderCountersPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: three columns.
		colWidth := availableWidth / 3
		eventsPanel = m.applyPanelStyle(panelEvents, eventsPanel, colWidth-4)
		seriesPanel = m.applyPanelStyle(panelSeries, seriesPanel, colWidth-4)
		countersPanel = m.applyPanelStyle(panelCounters, countersPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, eventsPanel, seriesPanel, countersPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		eventsPanel = m.applyPanelStyle(panelEvents, eventsPanel, panelWidth)
		seriesPanel = m.applyPanelStyle(panelSeries, seriesPanel, panelWidth)
		countersPanel = m.applyPanelStyle(panelCounters, countersPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, eventsPanel, seriesPanel, countersPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderEventsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Today's Events"))
	b.WriteString("\n")

	if len(m.events) == 0 {
		b.WriteString("  No events today.")
		return b.String()
	}

	// Most recent last; show the tail.
	events := m.events
	const maxRows = 15
	if len(events) > maxRows {
		events = events[len(events)-maxRows:]
	}
	for _, e := range events {
		lvl := styleForConsoleLevel(e.level).Render(fmt.Sprintf("%-7s", e.level))
		b.WriteString(fmt.Sprintf("  %s %s %-18s %s\n", e.time, lvl, e.source, e.message))
	}
	b.WriteString(fmt.Sprintf("\n  Total: %d event(s)", len(m.events)))

	return b.String()
}

func (m dashboardModel) renderSeriesPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metric Series"))
	b.WriteString("\n")

	if len(m.series) == 0 {
		b.WriteString("  No series recorded.")
		return b.String()
	}

	names := make([]string, 0, len(m.series))
	for name := range m.series {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := m.series[name]
		b.WriteString(fmt.Sprintf("  %-20s n=%d avg=%.2f max=%.2f\n", name, s.Count, s.Avg, s.Max))
	}

	return b.String()
}

func (m dashboardModel) renderCountersPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Counters"))
	b.WriteString("\n")

	if len(m.counters) == 0 {
		b.WriteString("  No counters.")
		return b.String()
	}

	names := make([]string, 0, len(m.counters))
	for name := range m.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(fmt.Sprintf("  %-20s %d\n", name, m.counters[name]))
	}

	return b.String()
}

func styleForConsoleLevel(level string) lipgloss.Style {
	switch level {
	case "warning":
		return levelWarning
	case "error":
		return levelError
	case "success":
		return levelSuccess
	case "debug":
		return levelDebug
	default:
		return levelInfo
	}
}

func loadData() tea.Msg {
	result := dataLoadedMsg{}

	// Load today's events from the audit log.
	if EventLog != nil {
		today := time.Now().UTC().Format("2006-01-02")
		events, err := EventLog.Read(observability.EventFilter{Date: today})
		if err != nil {
			result.err = fmt.Errorf("loading events: %w", err)
			return result
		}
		result.events = make([]eventSnapshot, 0, len(events))
		for _, e := range events {
			result.events = append(result.events, eventSnapshot{
				time:    e.Timestamp.Format("15:04:05"),
				kind:    string(e.Kind),
				level:   string(e.Level),
				source:  e.Source,
				message: e.Message,
			})
		}
	}

	// Load the metrics snapshot.
	if Metrics != nil {
		snap := Metrics.Snapshot()
		result.series = snap.Series
		result.counters = snap.Counters
	}

	return result
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for events and metrics",
	Long: `Launch an interactive terminal dashboard showing today's audit log,
metric series summaries, and counters.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil && Metrics == nil {
			return fmt.Errorf("observability services not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
