package metrics

import (
	"fmt"
	"regexp"
	"strings"
)

// Heuristic names a bar-to-progress conversion.
type Heuristic string

const (
	HeuristicNone  Heuristic = ""
	HeuristicHours Heuristic = "hours"
	HeuristicGoal  Heuristic = "goal"
)

// Field selects which metric attribute a Rule inspects.
type Field int

const (
	FieldID Field = iota
	FieldTitle
)

// Rule maps a pattern on one field to a heuristic.
type Rule struct {
	Field     Field
	Pattern   *regexp.Regexp
	Heuristic Heuristic
}

// DefaultRules reproduce the dashboard's wording-based dispatch. They apply
// only when the metric carries no explicit Kind.
var DefaultRules = []Rule{
	{Field: FieldID, Pattern: regexp.MustCompile(`(?i)education-hours|education`), Heuristic: HeuristicHours},
	{Field: FieldTitle, Pattern: regexp.MustCompile(`(?i)hours`), Heuristic: HeuristicHours},
	{Field: FieldID, Pattern: regexp.MustCompile(`(?i)goal-progress|goal`), Heuristic: HeuristicGoal},
	{Field: FieldTitle, Pattern: regexp.MustCompile(`(?i)goal`), Heuristic: HeuristicGoal},
}

var (
	completedPattern = regexp.MustCompile(`(?i)completed`)
	remainPattern    = regexp.MustCompile(`(?i)remain`)
)

const (
	defaultHoursUnit  = "hours"
	defaultHoursTitle = "Education Hours"
	defaultGoalTitle  = "Goal Completion"
)

// Classifier picks a heuristic for bar metrics: explicit Kind first, then the
// rule table, then dataset count (one series is a goal, several are hours).
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules ...Rule) *Classifier {
	return &Classifier{rules: append([]Rule(nil), rules...)}
}

var DefaultClassifier = NewClassifier(DefaultRules...)

// Heuristic reports how m should be converted.
func (c *Classifier) Heuristic(m Metric) Heuristic {
	switch Heuristic(strings.ToLower(strings.TrimSpace(m.Kind))) {
	case HeuristicHours:
		return HeuristicHours
	case HeuristicGoal:
		return HeuristicGoal
	}
	for _, rule := range c.rules {
		value := m.ID
		if rule.Field == FieldTitle {
			value = m.Title
		}
		if value != "" && rule.Pattern.MatchString(value) {
			return rule.Heuristic
		}
	}
	switch {
	case len(m.Datasets) == 1:
		return HeuristicGoal
	case len(m.Datasets) >= 2:
		return HeuristicHours
	default:
		return HeuristicNone
	}
}

// Section converts m, or reports false when its shape does not fit.
func (c *Classifier) Section(m Metric) (ProgressSection, bool) {
	switch c.Heuristic(m) {
	case HeuristicHours:
		return hoursSection(m)
	case HeuristicGoal:
		return goalSection(m)
	default:
		return ProgressSection{}, false
	}
}

func findDataset(datasets []Dataset, pattern *regexp.Regexp) (Dataset, bool) {
	for _, ds := range datasets {
		if pattern.MatchString(ds.Label) {
			return ds, true
		}
	}
	return Dataset{}, false
}

func hoursSection(m Metric) (ProgressSection, bool) {
	if len(m.Labels) == 0 || len(m.Datasets) == 0 {
		return ProgressSection{}, false
	}
	completed, ok := findDataset(m.Datasets, completedPattern)
	if !ok || completed.Data == nil {
		return ProgressSection{}, false
	}
	remaining, _ := findDataset(m.Datasets, remainPattern)

	unit := m.Unit
	if unit == "" {
		unit = defaultHoursUnit
	}
	items := make([]ProgressItem, len(m.Labels))
	for i, label := range m.Labels {
		done := completed.Value(i)
		total := done + remaining.Value(i)
		percent := 0
		if total > 0 {
			percent = clampPercent(roundHalfUp(done / total * 100))
		}
		right := fmt.Sprintf("%s %s", formatNumber(done), unit)
		if total > 0 {
			right = fmt.Sprintf("%s / %s %s (%d%%)", formatNumber(done), formatNumber(total), unit, percent)
		}
		items[i] = ProgressItem{
			Label:     label,
			Percent:   percent,
			LeftText:  label,
			RightText: right,
			Color:     completed.BackgroundColor.At(i),
		}
	}
	return ProgressSection{
		Title:   orDefault(m.Title, defaultHoursTitle),
		Unit:    m.Unit,
		Summary: m.Summary,
		Items:   items,
	}, true
}

func goalSection(m Metric) (ProgressSection, bool) {
	if len(m.Labels) == 0 || len(m.Datasets) == 0 || m.Datasets[0].Data == nil {
		return ProgressSection{}, false
	}
	ds := m.Datasets[0]
	items := make([]ProgressItem, len(m.Labels))
	for i, label := range m.Labels {
		value := ds.Value(i)
		display := roundHalfUp(value*10) / 10
		items[i] = ProgressItem{
			Label:     label,
			Percent:   clampPercent(roundHalfUp(value)),
			LeftText:  label,
			RightText: formatNumber(display) + "%",
			Color:     ds.BackgroundColor.At(i),
		}
	}
	return ProgressSection{
		Title:   orDefault(m.Title, defaultGoalTitle),
		Unit:    m.Unit,
		Summary: m.Summary,
		Items:   items,
	}, true
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
