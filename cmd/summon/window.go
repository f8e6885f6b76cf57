package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/summon/internal/dbus"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Show the overlay if hidden, hide it if visible",
	Args:  cobra.NoArgs,
	RunE:  runToggle,
}

var showCmd = &cobra.Command{
	Use:   "show [view]",
	Short: "Bring a view to the foreground",
	Long: `Bring a view to the foreground of the overlay.

Without an argument the native view is shown and every embedded view is
detached. With an argument the named view from the [[views]] config
section is attached. Views keep their pages and sessions while detached.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			if len(args) == 0 {
				return c.ShowNative(ctx)
			}
			return c.ShowView(ctx, args[0])
		})
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the overlay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Minimize(ctx)
		})
	},
}

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Stop summond",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Quit(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(hideCmd)
	rootCmd.AddCommand(quitCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *dbus.Client) error {
		return c.Toggle(ctx)
	})
}
