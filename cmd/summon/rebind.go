package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/summon/internal/dbus"
)

var rebindCmd = &cobra.Command{
	Use:   "rebind <accelerator>",
	Short: "Change the global toggle hotkey",
	Long: `Change the global toggle hotkey and save it to the config file.

Accelerators are modifiers and a key joined by '+', for example
"Super+E", "Ctrl+Alt+Space" or "CommandOrControl+Shift+Q". On Linux
"Cmd" means the Super key.

If the new combination cannot be registered the previous one stays
active and is printed along with the error.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *dbus.Client) error {
			effective, err := c.Rebind(ctx, args[0])
			if effective != "" {
				fmt.Println(effective)
			}
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(rebindCmd)
}
