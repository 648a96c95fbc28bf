// Package suggest maps the assistant's follow-up suggestions onto quick-reply
// options.
package suggest

import "fmt"

// Option is a one-tap message. Icon is opaque to this package.
type Option struct {
	Key   string
	Label string
	Icon  string
}

var introOptions = []Option{
	{Key: "analyze", Label: "Analyze my last exam", Icon: "📊"},
	{Key: "improve", Label: "💰 How can I improve my scores?"},
	{Key: "how_am_i", Label: "🤔 How am I doing now?"},
	{Key: "similar_qs", Label: "🧠 Come up with similar questions"},
}

// Defaults returns a fresh copy of the introductory menu.
func Defaults() []Option {
	return append([]Option(nil), introOptions...)
}

// FromSuggestions builds one option per suggestion, or the defaults when there
// are none. Each call replaces the previous turn's options entirely.
func FromSuggestions(suggestions []string) []Option {
	if len(suggestions) == 0 {
		return Defaults()
	}
	options := make([]Option, len(suggestions))
	for i, s := range suggestions {
		options[i] = Option{Key: fmt.Sprintf("sugg-%d", i), Label: s}
	}
	return options
}
