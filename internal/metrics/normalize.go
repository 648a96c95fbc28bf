package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMetric wraps metrics that cannot be decoded at all.
var ErrInvalidMetric = errors.New("invalid metric")

// Class is the broad chart family of a metric.
type Class int

const (
	ClassUnknown Class = iota
	ClassPie
	ClassBar
)

func (c Class) String() string {
	switch c {
	case ClassPie:
		return "pie"
	case ClassBar:
		return "bar"
	default:
		return "unknown"
	}
}

// Decode parses one raw metric object.
func Decode(raw json.RawMessage) (Metric, error) {
	var m Metric
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metric{}, fmt.Errorf("%w: %v", ErrInvalidMetric, err)
	}
	return m, nil
}

// Classify maps the type tag onto a Class.
func Classify(m Metric) Class {
	switch strings.ToLower(strings.TrimSpace(m.Type)) {
	case "pie", "donut":
		return ClassPie
	case "bar":
		return ClassBar
	default:
		return ClassUnknown
	}
}

// PieToChartData builds donut slices from the first dataset. ok is false when
// the metric has no labels array or no first dataset series.
func PieToChartData(m Metric) (ChartData, bool) {
	if m.Labels == nil || len(m.Datasets) == 0 || m.Datasets[0].Data == nil {
		return ChartData{}, false
	}
	ds := m.Datasets[0]
	slices := make([]ChartSlice, len(m.Labels))
	for i, label := range m.Labels {
		slices[i] = ChartSlice{
			Label: label,
			Value: ds.Value(i),
			Color: ds.BackgroundColor.At(i),
		}
	}
	data := ChartData{Slices: slices, Summary: m.Summary}
	total := data.Total()
	switch {
	case total > 0 && m.Unit != "":
		data.CenterLabel = formatNumber(total) + " " + m.Unit
	case total > 0:
		data.CenterLabel = formatNumber(total)
	default:
		data.CenterLabel = m.Title
	}
	return data, true
}

// BarToSection converts a bar metric with the default classifier.
func BarToSection(m Metric) (ProgressSection, bool) {
	return DefaultClassifier.Section(m)
}

// Set is what one response contributes to the charts.
type Set struct {
	Pie    *Metric
	PieRaw json.RawMessage
	Bars   []Metric
	// BarsRaw keeps the bar metrics as received, in order.
	BarsRaw []json.RawMessage
}

// Extract decodes raw metrics, keeping the first pie/donut and every bar.
// Undecodable or unknown metrics are skipped.
func Extract(raw []json.RawMessage) Set {
	var set Set
	for _, item := range raw {
		m, err := Decode(item)
		if err != nil {
			continue
		}
		switch Classify(m) {
		case ClassPie:
			if set.Pie == nil {
				metric := m
				set.Pie = &metric
				set.PieRaw = item
			}
		case ClassBar:
			set.Bars = append(set.Bars, m)
			set.BarsRaw = append(set.BarsRaw, item)
		}
	}
	return set
}

// Sections converts every bar metric that yields a section.
func Sections(bars []Metric) []ProgressSection {
	sections := make([]ProgressSection, 0, len(bars))
	for _, m := range bars {
		if section, ok := BarToSection(m); ok {
			sections = append(sections, section)
		}
	}
	return sections
}
