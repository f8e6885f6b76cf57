package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/summon/internal/dbus"
)

var statusOpts struct {
	waybar bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the overlay state",
	Long: `Show whether the overlay is visible, which view is in front, the
current toggle hotkey and any pending update.

With --waybar the output is Waybar custom module JSON:

  "custom/summon": {
    "exec": "summon status --waybar",
    "interval": 5,
    "return-type": "json",
    "on-click": "summon toggle"
  }`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.waybar, "waybar", false,
		"Output Waybar-compatible JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	var st dbus.Status
	err := withClient(func(ctx context.Context, c *dbus.Client) error {
		var err error
		st, err = c.Status(ctx)
		return err
	})

	if statusOpts.waybar {
		if err != nil {
			return outputStatus(WaybarStatus{Text: "", Alt: "error", Class: "error"})
		}
		return outputStatus(waybarStatus(st))
	}
	if err != nil {
		return err
	}

	fmt.Print(formatStatus(st))
	return nil
}

// formatStatus renders st as aligned "key: value" lines.
func formatStatus(st dbus.Status) string {
	toggle := st.Toggle
	if toggle == "" {
		toggle = "(unbound)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "State:  %s\n", st.State)
	fmt.Fprintf(&b, "View:   %s\n", st.View)
	fmt.Fprintf(&b, "Toggle: %s\n", toggle)
	fmt.Fprintf(&b, "Update: %s\n", updateText(st))
	return b.String()
}

func updateText(st dbus.Status) string {
	switch {
	case st.UpdateDownloaded:
		return "downloaded, run 'summon update apply'"
	case st.UpdateAvailable:
		return "available, downloading"
	default:
		return "none"
	}
}

// waybarStatus creates a WaybarStatus from the daemon status.
func waybarStatus(st dbus.Status) WaybarStatus {
	class := st.State
	if st.UpdateDownloaded {
		class += " update"
	}
	return WaybarStatus{
		Text:    st.View,
		Alt:     st.State,
		Tooltip: strings.TrimRight(formatStatus(st), "\n"),
		Class:   class,
	}
}

// outputStatus writes the status as JSON.
func outputStatus(status WaybarStatus) error {
	encoder := json.NewEncoder(os.Stdout)
	return encoder.Encode(status)
}
