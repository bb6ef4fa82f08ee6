package cli

import (
	"strconv"
	"strings"
	"time"

	"netpulse/app/internal/models"
	"netpulse/app/internal/uptime"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Semantic colors, plain ANSI codes for terminal compatibility
const (
	colorSuccess lipgloss.Color = "2" // Green
	colorError   lipgloss.Color = "1" // Red
	colorWarning lipgloss.Color = "3" // Yellow
	colorInfo    lipgloss.Color = "6" // Cyan
	colorMuted   lipgloss.Color = "8" // Gray
)

const (
	symbolOK   = "✓"
	symbolFail = "✗"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

// Status labels shown in the STATUS column
const (
	statusUp         = "up"
	statusDown       = "down"
	statusAlert      = "alert"
	statusWaiting    = "waiting"
	statusValidating = "validating"
)

func sessionStatus(v models.SessionView) string {
	switch {
	case v.State == models.StateValidating:
		return statusValidating
	case v.Last == nil:
		return statusWaiting
	case !v.Last.IsUp:
		return statusDown
	case v.Alerting:
		return statusAlert
	default:
		return statusUp
	}
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case statusUp:
		return successStyle
	case statusDown:
		return errorStyle
	case statusAlert:
		return warnStyle
	default:
		return mutedStyle
	}
}

// renderSessions renders the status table
func renderSessions(views []models.SessionView) string {
	if len(views) == 0 {
		return mutedStyle.Render("No servers monitored. Run 'netpulsectl start <ip>' to begin.")
	}

	statuses := make([]string, len(views))
	rows := make([][]string, len(views))
	for i, v := range views {
		statuses[i] = sessionStatus(v)

		last, avg, lo, hi := "-", "-", "-", "-"
		if v.Last != nil && v.Last.IsUp {
			last = formatMs(v.Last.LatencyMs)
		}
		if v.Stats != nil {
			avg, lo, hi = formatMs(v.Stats.Average), formatMs(v.Stats.Min), formatMs(v.Stats.Max)
		}
		threshold := "off"
		if v.Threshold != nil {
			threshold = formatMs(*v.Threshold)
		}
		up := uptime.Format(v.Uptime)
		if v.Uptime.Total() > 0 {
			up += "%"
		}

		rows[i] = []string{
			v.Identifier,
			statuses[i],
			last,
			avg,
			lo,
			hi,
			up,
			strconv.Itoa(v.AlertCount),
			threshold,
			strings.TrimPrefix(locationSuffix(v.Location.City, v.Location.Country), " "),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("SERVER", "STATUS", "LAST", "AVG", "MIN", "MAX", "UPTIME", "ALERTS", "THRESHOLD", "LOCATION").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(statuses) {
				return statusStyle(statuses[row]).Padding(0, 1)
			}
			return cellStyle
		})
	return t.String()
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case "error":
		return errorStyle
	case "warn":
		return warnStyle
	case "info":
		return infoStyle
	default:
		return mutedStyle
	}
}

// renderLogs renders journal entries one per line, newest first
func renderLogs(logs []models.LogEntry) string {
	if len(logs) == 0 {
		return mutedStyle.Render("No activity yet.")
	}

	var b strings.Builder
	for i, e := range logs {
		if i > 0 {
			b.WriteByte('\n')
		}
		ts := e.Timestamp
		if t, err := time.Parse(time.RFC3339Nano, e.Timestamp); err == nil {
			ts = t.Local().Format("2006-01-02 15:04:05")
		}
		b.WriteString(mutedStyle.Render(ts))
		b.WriteString(" ")
		b.WriteString(levelStyle(e.Level).Render(strings.ToUpper(e.Level)))
		if e.Identifier != "" {
			b.WriteString(" ")
			b.WriteString(e.Identifier)
		}
		b.WriteString(" ")
		b.WriteString(e.Message)
		if e.Details != "" {
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render(e.Details))
		}
	}
	return b.String()
}

func formatMs(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64) + "ms"
}
