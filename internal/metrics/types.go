// Package metrics turns the analytic payloads attached to assistant replies
// into chart-ready data: pie/donut metrics become slices with a center label,
// bar metrics become progress sections.
package metrics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metric is a single chart payload. Type discriminates pie/donut from bar.
// Kind optionally names the progress heuristic for bar metrics ("hours" or
// "goal") so the producer does not have to rely on title wording.
type Metric struct {
	Type     string    `json:"type"`
	ID       string    `json:"id,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Title    string    `json:"title,omitempty"`
	Unit     string    `json:"unit,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Labels   Labels    `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string `json:"label,omitempty"`
	Data            Values `json:"data"`
	BackgroundColor Colors `json:"backgroundColor,omitzero"`
}

// Value returns the i-th value, or 0 past the end.
func (d Dataset) Value(i int) float64 {
	if i < 0 || i >= len(d.Data) {
		return 0
	}
	return d.Data[i]
}

// Values is a numeric series. Decoding never fails on element types: numbers,
// numeric strings and booleans are converted; anything else, and any
// non-finite result, becomes 0. A non-array decodes to nil.
type Values []float64

func (v *Values) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*v = nil
		return nil
	}
	out := make(Values, len(items))
	for i, raw := range items {
		out[i] = coerce(raw)
	}
	*v = out
	return nil
}

func coerce(raw json.RawMessage) float64 {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0
	}
	var f float64
	switch x := value.(type) {
	case float64:
		f = x
	case string:
		trimmed := strings.TrimSpace(x)
		if trimmed == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Labels decodes string labels; non-string entries keep their JSON text.
type Labels []string

func (l *Labels) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		*l = nil
		return nil
	}
	out := make(Labels, len(items))
	for i, raw := range items {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			out[i] = s
			continue
		}
		if trimmed := bytes.TrimSpace(raw); !bytes.Equal(trimmed, []byte("null")) {
			out[i] = string(trimmed)
		}
	}
	*l = out
	return nil
}

// Colors is either one color for every point or a color per point.
type Colors struct {
	Single string
	List   []string
}

// At returns the color for point i, or "" to let the renderer choose.
func (c Colors) At(i int) string {
	if c.List != nil {
		if i >= 0 && i < len(c.List) {
			return c.List[i]
		}
		return ""
	}
	return c.Single
}

func (c Colors) IsZero() bool {
	return c.Single == "" && c.List == nil
}

func (c *Colors) UnmarshalJSON(data []byte) error {
	*c = Colors{}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		c.Single = single
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || items == nil {
		return nil
	}
	c.List = make([]string, len(items))
	for i, raw := range items {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			c.List[i] = s
		}
	}
	return nil
}

func (c Colors) MarshalJSON() ([]byte, error) {
	if c.List != nil {
		return json.Marshal(c.List)
	}
	if c.Single != "" {
		return json.Marshal(c.Single)
	}
	return []byte("null"), nil
}

// ChartSlice is one wedge of a pie/donut chart.
type ChartSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ChartData is everything a donut renderer needs.
type ChartData struct {
	Slices      []ChartSlice `json:"slices"`
	CenterLabel string       `json:"centerLabel"`
	Summary     string       `json:"summary,omitempty"`
}

// Total sums the slice values.
func (c ChartData) Total() float64 {
	total := 0.0
	for _, s := range c.Slices {
		total += s.Value
	}
	return total
}

type ProgressSection struct {
	Title   string         `json:"title"`
	Unit    string         `json:"unit,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Items   []ProgressItem `json:"items"`
}

type ProgressItem struct {
	Label     string `json:"label"`
	Percent   int    `json:"percent"`
	LeftText  string `json:"leftText"`
	RightText string `json:"rightText"`
	Color     string `json:"color,omitempty"`
}

// formatNumber prints v the way the dashboard always has: shortest
// representation, no trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return int(v)
	}
}
