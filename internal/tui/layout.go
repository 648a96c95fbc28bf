package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/csheth/studybot/internal/conversation"
	"github.com/csheth/studybot/internal/dashboard"
)

type pageLayout struct {
	windowWidth   int
	windowHeight  int
	viewportWidth int
	// bodyHeight is the room left for transcript and footer once the
	// header has been drawn.
	bodyHeight int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(defaultWindowWidth, defaultWindowHeight, 2)
	return l
}

func (l *pageLayout) Update(width, height, chrome int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	body := height - chrome
	if body < minBodyHeight {
		body = minBodyHeight
	}
	l.bodyHeight = body
}

// relayout sizes the transcript so the footer never covers the newest
// message.
func (m *model) relayout() {
	m.layout.Update(m.layout.windowWidth, m.layout.windowHeight, lipgloss.Height(m.headerView()))
	if m.viewport.Width != m.layout.viewportWidth {
		m.viewport.Width = m.layout.viewportWidth
		m.rendered = map[string]string{}
		m.contentDirty = true
	}
	m.composer.Width = max(m.layout.viewportWidth-6, 10)
	m.coord.SetFooterHeight(lipgloss.Height(m.footerView()))
	m.viewport.Height = m.coord.Reserve(m.layout.bodyHeight)
}

func (m *model) buildTranscript() string {
	blocks := []string{}
	for _, msg := range m.store.Messages() {
		if block := m.renderMessage(msg); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func (m *model) renderMessage(msg conversation.Message) string {
	wrap := m.wrapWidth(4)
	switch msg.Kind {
	case conversation.KindCard:
		return ""
	case conversation.KindTyping:
		return joinLines(botLabelStyle.Render(transcriptLabel(msg.Role)),
			"  "+m.spinner.View()+helperStyle.Render(" typing…"))
	case conversation.KindPie:
		chart := dashboard.RenderChart(msg.Chart, wrap)
		return joinLines(botLabelStyle.Render(transcriptLabel(msg.Role)),
			chartBoxStyle.Render(chart))
	}

	if msg.Role == conversation.RoleUser {
		body := indentMultiline(wordwrap.String(msg.Text, wrap), "  ")
		label := userLabelStyle.Render(transcriptLabel(msg.Role))
		switch msg.Status {
		case conversation.StatusFailed:
			label += " " + errorStyle.Render("not delivered")
		case conversation.StatusPending:
			label += " " + helperStyle.Render("sending…")
		}
		return joinLines(label, body)
	}
	return joinLines(botLabelStyle.Render(transcriptLabel(msg.Role)), m.markdown(msg.ID, msg.Text, wrap))
}

// markdown renders bot text with glamour, falling back to plain word
// wrapping when the renderer is unavailable. Output is cached per message.
func (m *model) markdown(id, text string, width int) string {
	if cached, ok := m.rendered[id]; ok {
		return cached
	}
	out := ""
	if renderer := m.markdownRenderer(width); renderer != nil {
		rendered, err := renderer.Render(text)
		if err != nil {
			m.log.Debug("markdown render failed", zap.Error(err))
		}
		out = strings.Trim(rendered, "\n")
	}
	if strings.TrimSpace(out) == "" {
		out = indentMultiline(wordwrap.String(text, width), "  ")
	}
	m.rendered[id] = out
	return out
}

func (m *model) markdownRenderer(width int) *glamour.TermRenderer {
	if m.renderer != nil && m.rendererWidth == width {
		return m.renderer
	}
	style := glamour.WithAutoStyle()
	if m.config.MarkdownStyle != "" {
		style = glamour.WithStylePath(m.config.MarkdownStyle)
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		m.renderer = nil
		return nil
	}
	m.renderer = renderer
	m.rendererWidth = width
	return renderer
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = defaultWindowWidth
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func joinLines(parts ...string) string {
	return strings.Join(parts, "\n")
}

func transcriptLabel(role conversation.Role) string {
	switch role {
	case conversation.RoleUser:
		return "You"
	case conversation.RoleBot:
		return "StudyBot"
	default:
		return string(role)
	}
}
