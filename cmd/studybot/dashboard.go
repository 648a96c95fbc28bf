package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/csheth/studybot/internal/dashboard"
)

func newDashboardCmd(root *rootOptions) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the charts saved by the last analysis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := dashboard.Load(cmd.Context(), a.metrics)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dashboard.Render(view, width))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "render width in columns")
	return cmd
}
