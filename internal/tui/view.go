package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), m.viewport.View(), m.footerView())
}

func (m *model) headerView() string {
	title := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render(heroTitle), "  ", taglineStyle.Render(heroTagline))
	return joinLines(title, m.statusLine())
}

// statusLine is always a single line so the header height never changes.
func (m *model) statusLine() string {
	if !m.coord.AutoStick() {
		return scrollHintStyle.Render("↓ Scrolled up. Press End to jump to the newest message.")
	}
	var text string
	style := helperStyle
	switch {
	case m.inflight != nil:
		text = fmt.Sprintf("Replying to “%s”", m.inflight.Prompt)
		if m.activeJobs > 1 {
			text += fmt.Sprintf(" • %d requests running", m.activeJobs)
		}
	case m.activeJobs > 0:
		text = fmt.Sprintf("Finishing %d earlier request(s)", m.activeJobs)
	case m.lastJob.Status == jobStatusFailed:
		text = "Last reply failed after " + m.lastJob.Duration.Round(10*time.Millisecond).String()
		style = errorStyle
	case m.lastJob.Status == jobStatusSucceeded:
		text = "Following the conversation • last reply took " + m.lastJob.Duration.Round(10*time.Millisecond).String()
	default:
		text = "Following the conversation"
	}
	width := max(m.layout.viewportWidth, minViewportWidth)
	return style.Render(truncate.StringWithTail(text, uint(width), "…"))
}

func (m *model) footerView() string {
	parts := []string{m.quickRepliesView()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	parts = append(parts, composerBoxStyle.Render(m.composer.View()), helperStyle.Render(m.composerHelpText()))
	return joinNonEmpty(parts)
}

func (m *model) quickRepliesView() string {
	options := m.controller.Options()
	if len(options) == 0 {
		return ""
	}
	pickable := strings.TrimSpace(m.composer.Value()) == "" && !m.controller.Busy()
	lines := make([]string, 0, len(options))
	for idx, option := range options {
		label := option.Label
		if option.Icon != "" {
			label = option.Icon + " " + label
		}
		switch {
		case pickable && idx == m.optionCursor:
			lines = append(lines, currentLineStyle.Render("▸ "+label))
		case pickable:
			lines = append(lines, quickReplyStyle.Render("  "+label))
		default:
			lines = append(lines, helperStyle.Render("  "+label))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *model) composerHelpText() string {
	if m.controller.Busy() {
		return "Waiting for StudyBot… • Ctrl+N: new chat • Esc: quit"
	}
	return "Enter: send • Tab: pick reply • ↑/↓ PgUp/PgDn: scroll • Ctrl+N: new chat • Esc: quit"
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n")
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	taglineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#b8b5ff")).Italic(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	scrollHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	userLabelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	botLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	currentLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	quickReplyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	chartBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	composerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(0, 1)
)
