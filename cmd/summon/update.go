package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/summon/internal/buildinfo"
	"github.com/jmylchreest/summon/internal/dbus"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the client and daemon versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("summon ", buildinfo.String())
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			v, err := c.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Println("summond", v)
			return nil
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Manage daemon updates",
}

var updateApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Install a downloaded update and restart summond",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.ApplyUpdate(ctx)
		})
	},
}

var relaunchCmd = &cobra.Command{
	Use:   "relaunch",
	Short: "Restart summond",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			return c.Relaunch(ctx)
		})
	},
}

func init() {
	updateCmd.AddCommand(updateApplyCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(relaunchCmd)
}
