// Package dashboard renders the most recent analytics saved by the chat view.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/studybot/internal/metrics"
)

// greys colour slices that arrive without a colour of their own.
var greys = []string{"#111827", "#374151", "#6B7280", "#9CA3AF", "#D1D5DB"}

// FallbackScores is shown until a pie metric has been saved.
var FallbackScores = metrics.ChartData{
	Slices: []metrics.ChartSlice{
		{Label: "Reading", Value: 240, Color: "#111827"},
		{Label: "Writing", Value: 220, Color: "#374151"},
		{Label: "Reasoning", Value: 140, Color: "#6B7280"},
		{Label: "Algebra", Value: 100, Color: "#9CA3AF"},
		{Label: "Geometry", Value: 100, Color: "#D1D5DB"},
	},
	CenterLabel: "#9",
}

// Source is the read side of metrics.Cache.
type Source interface {
	LoadPie(ctx context.Context) (metrics.Metric, bool, error)
	LoadBars(ctx context.Context) ([]metrics.Metric, error)
}

// View is the dashboard content ready to render.
type View struct {
	Chart    metrics.ChartData
	Fallback bool
	Sections []metrics.ProgressSection
}

// Load reads both slots. A missing or unusable pie falls back to the static
// score data.
func Load(ctx context.Context, src Source) (View, error) {
	view := View{Chart: FallbackScores, Fallback: true}
	pie, ok, err := src.LoadPie(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load pie metric: %w", err)
	}
	if ok {
		if chart, ok := metrics.PieToChartData(pie); ok && len(chart.Slices) > 0 {
			view.Chart = chart
			view.Fallback = false
		}
	}
	bars, err := src.LoadBars(ctx)
	if err != nil {
		return View{}, fmt.Errorf("load bar metrics: %w", err)
	}
	view.Sections = metrics.Sections(bars)
	return view, nil
}

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	helperStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	centerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	trackStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#56526e"))
	sectionStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
)

const (
	minBarWidth = 10
	labelWidth  = 12
)

// Render draws the view at the given terminal width.
func Render(v View, width int) string {
	parts := []string{headerStyle.Render("Scores")}
	if v.Fallback {
		parts = append(parts, helperStyle.Render("No analysis yet. Ask the study bot to analyze an exam."))
	}
	parts = append(parts, RenderChart(v.Chart, width))
	if len(v.Sections) == 0 {
		parts = append(parts, helperStyle.Render("No progress data saved."))
	}
	for _, section := range v.Sections {
		parts = append(parts, sectionStyle.Render(RenderSection(section, width-4)))
	}
	return strings.Join(parts, "\n\n")
}

// RenderChart draws a donut as a legend of proportional bars under its
// center label.
func RenderChart(chart metrics.ChartData, width int) string {
	total := chart.Total()
	barWidth := barWidthFor(width)
	lines := []string{}
	if chart.CenterLabel != "" {
		lines = append(lines, centerStyle.Render(chart.CenterLabel))
	}
	for i, slice := range chart.Slices {
		share := 0.0
		if total > 0 {
			share = slice.Value / total
		}
		color := slice.Color
		if color == "" {
			color = greys[i%len(greys)]
		}
		filled := int(math.Round(share * float64(barWidth)))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			padLabel(slice.Label),
			bar(filled, barWidth, color),
			helperStyle.Render(fmt.Sprintf("%s (%d%%)", formatValue(slice.Value), int(math.Round(share*100)))),
		))
	}
	if chart.Summary != "" {
		lines = append(lines, helperStyle.Render(wordwrap.String(chart.Summary, max(width, minBarWidth))))
	}
	return strings.Join(lines, "\n")
}

// RenderSection draws one progress section as labelled rows.
func RenderSection(section metrics.ProgressSection, width int) string {
	barWidth := barWidthFor(width)
	lines := []string{headerStyle.Render(section.Title)}
	for i, item := range section.Items {
		color := item.Color
		if color == "" {
			color = greys[i%len(greys)]
		}
		filled := item.Percent * barWidth / 100
		lines = append(lines,
			fmt.Sprintf("%s  %s", item.LeftText, helperStyle.Render(item.RightText)),
			bar(filled, barWidth, color),
		)
	}
	if section.Summary != "" {
		lines = append(lines, helperStyle.Render(wordwrap.String(section.Summary, max(width, minBarWidth))))
	}
	return strings.Join(lines, "\n")
}

func barWidthFor(width int) int {
	w := width - labelWidth - 16
	if w < minBarWidth {
		return minBarWidth
	}
	return w
}

func bar(filled, width int, color string) string {
	filled = min(max(filled, 0), width)
	fill := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled))
	return fill + trackStyle.Render(strings.Repeat("░", width-filled))
}

func padLabel(label string) string {
	runes := []rune(label)
	if len(runes) > labelWidth {
		return string(runes[:labelWidth-1]) + "…"
	}
	return label + strings.Repeat(" ", labelWidth-len(runes))
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
