// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/fitscope/pkg/decode"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for anomalies, false for info
}

// TUI model
type model struct {
	source        string
	showAll       bool
	stats         *decode.Statistics
	events        []eventLogEntry
	maxLogEntries int
	lastRecord    *decode.Record
	feedDone      bool
	feedErr       error
	width         int
	height        int
	quitting      bool
	log           viewport.Model
}

// Messages
type tickMsg time.Time
type recordMsg struct {
	record    *decode.Record
	decodeErr error
	anomalies []decode.ValidationError
}
type feedDoneMsg struct {
	err error
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// formatElapsed formats a duration to a human-friendly string
func formatElapsed(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds <= 0 {
		return "0 seconds"
	}

	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	for _, p := range []struct {
		n    int64
		unit string
	}{{days, "day"}, {hours, "hour"}, {minutes, "minute"}, {seconds, "second"}} {
		switch {
		case p.n == 1:
			parts = append(parts, "1 "+p.unit)
		case p.n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", p.n, p.unit))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}

func initialModel(source string, showAll bool) model {
	return model{
		source:        source,
		showAll:       showAll,
		stats:         decode.NewStatistics(),
		events:        make([]eventLogEntry, 0),
		maxLogEntries: 500,
		width:         80,
		height:        24,
		log:           viewport.New(76, 8),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLog()

	case tickMsg:
		m.stats.CalculateRates()
		if m.feedDone {
			return m, nil
		}
		return m, tickCmd()

	case feedDoneMsg:
		m.feedDone = true
		m.feedErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Feed stopped: %v", msg.err), true)
		} else {
			m.addLogEntry("End of input", false)
		}

	case recordMsg:
		if msg.decodeErr != nil {
			m.stats.Update(nil, msg.decodeErr, nil)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			break
		}
		if msg.record == nil {
			break
		}
		m.stats.Update(msg.record, nil, msg.anomalies)
		m.lastRecord = msg.record

		if len(msg.anomalies) > 0 {
			for _, a := range msg.anomalies {
				m.addLogEntry(fmt.Sprintf("%s: %s", strings.ToUpper(msg.record.Kind), a.Message), true)
			}
		} else if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s (%d fields)", strings.ToUpper(msg.record.Kind), len(msg.record.Fields)), false)
		}

	default:
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	m.events = append(m.events, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.events) > m.maxLogEntries {
		m.events = m.events[len(m.events)-m.maxLogEntries:]
	}

	atBottom := m.log.AtBottom()
	m.log.SetContent(m.renderEvents())
	if atBottom {
		m.log.GotoBottom()
	}
}

// resizeLog fits the event viewport below the header, stats and record panels
func (m *model) resizeLog() {
	h := m.height - 20
	if h < 5 {
		h = 5
	}
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	m.log.Width = w
	m.log.Height = h
	m.log.SetContent(m.renderEvents())
}

func (m model) renderEvents() string {
	if len(m.events) == 0 {
		return headerStyle.Render("  (no events yet)")
	}
	var b strings.Builder
	for _, entry := range m.events {
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			b.WriteString(fmt.Sprintf("%s %s\n", timestamp, errorStyle.Render("✗ "+entry.message)))
		} else {
			b.WriteString(fmt.Sprintf("%s %s\n", timestamp, warningStyle.Render("ℹ "+entry.message)))
		}
	}
	return b.String()
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("FITSCOPE - RECORD INSPECTOR"))
	s.WriteString("\n")
	mode := "Anomalies only"
	if m.showAll {
		mode = "All records"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Source: %s | Mode: %s | ↑/↓ scroll | Press 'q' to quit", m.source, mode)))
	s.WriteString("\n\n")

	if m.feedDone {
		if m.feedErr != nil {
			s.WriteString(errorStyle.Render("✗ Feed stopped"))
		} else {
			s.WriteString(statsValueStyle.Render("✓ Input complete"))
		}
	} else {
		s.WriteString(warningStyle.Render("⏳ Receiving records..."))
	}
	s.WriteString(headerStyle.Render(" (" + formatElapsed(m.stats.LastUpdateTime.Sub(m.stats.StartTime)) + ")"))
	s.WriteString("\n\n")

	s.WriteString(boxStyle.Render(m.statsView()))
	s.WriteString("\n\n")

	if m.lastRecord != nil {
		s.WriteString(statsLabelStyle.Render("Latest Record:"))
		s.WriteString("\n")
		s.WriteString(boxStyle.Render(strings.TrimRight(decode.FormatRecord(*m.lastRecord), "\n")))
		s.WriteString("\n\n")
	}

	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.log.View()))

	return s.String()
}

func (m model) statsView() string {
	m.stats.CalculateRates()
	var cleanPercent float64
	if m.stats.TotalRecords > 0 {
		cleanPercent = float64(m.stats.CleanRecords) * 100.0 / float64(m.stats.TotalRecords)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Records:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalRecords)),
		statsLabelStyle.Render("Clean:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.CleanRecords, cleanPercent)),
		statsLabelStyle.Render("Fields:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalFields)),
	))

	if m.stats.DecodeErrors > 0 {
		b.WriteString(fmt.Sprintf("%s %s\n",
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors))))
	}

	if anomalies := m.stats.Anomalies(); anomalies > 0 {
		b.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d, %s: %d, %s: %d)\n",
			statsLabelStyle.Render("Anomalies:"), warningStyle.Render(fmt.Sprintf("%d", anomalies)),
			headerStyle.Render("unknown messages"), m.stats.UnknownMessages,
			headerStyle.Render("unknown fields"), m.stats.UnknownFields,
			headerStyle.Render("invalid"), m.stats.InvalidValues,
			headerStyle.Render("unnamed enums"), m.stats.UnnamedEnums,
		))
	}

	rate := statsValueStyle.Render(fmt.Sprintf("%.1f anomalies/s", m.stats.AnomalyRate))
	if m.stats.AnomalyRate > 0 {
		rate = errorStyle.Render(fmt.Sprintf("%.1f anomalies/s", m.stats.AnomalyRate))
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Record Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f recs/s", m.stats.RecordRate)),
		statsLabelStyle.Render("Anomaly Rate:"), rate,
	))
	return b.String()
}

// runTUI runs the viewer while feed delivers recordMsg values and a final
// feedDoneMsg through send
func runTUI(source string, showAll bool, feed func(send func(tea.Msg))) error {
	p := tea.NewProgram(initialModel(source, showAll))

	go feed(p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
