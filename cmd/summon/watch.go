package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/summon/internal/dbus"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print overlay events as they happen",
	Long: `Print the signals summond emits, one per line, until interrupted.

Events are Focus, Refresh, ViewChanged (with the view name),
UpdateAvailable and UpdateDownloaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return dbus.NewMonitor(logger).Run(ctx, func(e dbus.Event) {
			fmt.Println(e.String())
		})
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
