package tui

import (
	"time"

	"github.com/csheth/studybot/internal/conversation"
)

const (
	heroTitle   = "StudyBot"
	heroTagline = "Ask about your exams, scores and study plan."

	composerPlaceholder = "Ask anything :)"
	composerCharLimit   = 500
)

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
	minBodyHeight             = 3
	defaultWindowWidth        = 80
	defaultWindowHeight       = 24
)

// frameInterval paces the deferred auto-scroll.
const frameInterval = time.Second / 60

type frameMsg struct{}

type exchangeResultMsg struct {
	result conversation.Result
}
