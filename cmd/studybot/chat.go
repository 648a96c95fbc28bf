package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/studybot/internal/chat"
	"github.com/csheth/studybot/internal/conversation"
	"github.com/csheth/studybot/internal/tui"
)

type chatOptions struct {
	noAltScreen bool
}

func newChatCmd(root *rootOptions) *cobra.Command {
	opts := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	return cmd
}

func runChat(cmd *cobra.Command, root *rootOptions, opts *chatOptions) error {
	a, err := root.openApp(true)
	if err != nil {
		return err
	}
	defer a.Close()

	timeout, err := a.cfg.Timeout()
	if err != nil {
		return err
	}
	store := conversation.NewStore(conversation.Greeting(a.cfg.UI.Name))
	controller := conversation.NewController(
		store,
		a.sessions,
		chat.NewClient(a.client, a.log.Named("chat")),
		a.metrics,
		a.log.Named("conversation"),
	)

	programOpts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !opts.noAltScreen && !a.cfg.UI.NoAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Controller: controller,
			Logger:     a.log.Named("tui"),
			Timeout:    timeout,
			StickLines: a.cfg.UI.StickLines,
		}),
		append(programOpts, tea.WithContext(cmd.Context()))...,
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
