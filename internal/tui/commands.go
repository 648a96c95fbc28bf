package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/studybot/internal/conversation"
)

func exchangeJob(ex *conversation.Exchange) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		res := ex.Run(ctx)
		return exchangeResultMsg{result: res}, res.Err
	}
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}
