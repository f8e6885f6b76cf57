package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/summon/internal/dbus"
)

func TestFormatStatus(t *testing.T) {
	got := formatStatus(dbus.Status{
		State:  "visible",
		View:   "claude",
		Toggle: "Super+Shift+Q",
	})
	assert.Equal(t, "State:  visible\nView:   claude\nToggle: Super+Shift+Q\nUpdate: none\n", got)
}

func TestFormatStatus_Unbound(t *testing.T) {
	got := formatStatus(dbus.Status{State: "hidden", View: "native"})
	assert.Contains(t, got, "Toggle: (unbound)\n")
}

func TestUpdateText(t *testing.T) {
	tests := []struct {
		name string
		st   dbus.Status
		want string
	}{
		{"none", dbus.Status{}, "none"},
		{"available", dbus.Status{UpdateAvailable: true}, "available, downloading"},
		{"downloaded", dbus.Status{UpdateAvailable: true, UpdateDownloaded: true}, "downloaded, run 'summon update apply'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, updateText(tt.st))
		})
	}
}

func TestWaybarStatus(t *testing.T) {
	st := dbus.Status{State: "hidden", View: "native", Toggle: "Super+E", UpdateDownloaded: true}
	got := waybarStatus(st)

	assert.Equal(t, "native", got.Text)
	assert.Equal(t, "hidden", got.Alt)
	assert.Equal(t, "hidden update", got.Class)
	assert.NotContains(t, got.Tooltip, "\n\n")
	assert.Contains(t, got.Tooltip, "Toggle: Super+E")
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"toggle", "show", "hide", "quit", "rebind", "version", "status", "update", "relaunch", "watch"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}

	apply, _, err := rootCmd.Find([]string{"update", "apply"})
	assert.NoError(t, err)
	assert.Equal(t, "apply", apply.Name())
}
