package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSessionCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the persisted chat session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the session id so the next message starts a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.sessions.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session cleared.")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the persisted session id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			id, ok, err := a.sessions.Current(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	})
	return cmd
}
