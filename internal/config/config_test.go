package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 750, cfg.Window.Width)
	assert.Equal(t, 475, cfg.Window.Height)
	assert.Equal(t, DefaultToggle(runtime.GOOS), cfg.Hotkeys.Toggle)
	assert.Equal(t, "Super+0", cfg.Hotkeys.Relaunch)
	assert.Equal(t, []string{"CommandOrControl+R", "F5"}, cfg.Hotkeys.Refresh)
	assert.Empty(t, cfg.Hotkeys.Remap.Trigger)
	assert.Equal(t, 30*time.Millisecond, cfg.Hotkeys.Remap.Settle.Duration())
	require.Len(t, cfg.Views, 1)
	assert.Equal(t, "chatgpt", cfg.Views[0].Name)
	assert.True(t, cfg.Updates.Enabled)
	assert.Equal(t, 6*time.Hour, cfg.Updates.Interval.Duration())
	assert.True(t, cfg.Tray.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestDefaultToggle(t *testing.T) {
	assert.Equal(t, "Super+E", DefaultToggle("linux"))
	assert.Equal(t, "Cmd+E", DefaultToggle("darwin"))
	assert.Equal(t, "Ctrl+E", DefaultToggle("windows"))
}

func TestLoadFrom_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/summon.toml", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summon.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom_ParsesTOML(t *testing.T) {
	path := writeConfig(t, `
[window]
width = 900
height = 600

[hotkeys]
toggle = "Ctrl+Alt+Space"
refresh = ["F5"]

[hotkeys.remap]
trigger = "Enter"
target = "Ctrl+Enter"
settle = "50ms"

[[views]]
name = "claude"
url = "https://claude.ai/"

[[views]]
name = "gemini"
url = "https://gemini.google.com/"

[display]
pointer_command = "hyprctl cursorpos"

[updates]
enabled = false
interval = "12h"

[theme]
color_scheme = "dark"
`)

	cfg, err := LoadFrom(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 900, cfg.Window.Width)
	assert.Equal(t, 600, cfg.Window.Height)
	assert.Equal(t, "Ctrl+Alt+Space", cfg.Hotkeys.Toggle)
	assert.Equal(t, "Super+0", cfg.Hotkeys.Relaunch)
	assert.Equal(t, []string{"F5"}, cfg.Hotkeys.Refresh)
	assert.Equal(t, "Enter", cfg.Hotkeys.Remap.Trigger)
	assert.Equal(t, 50*time.Millisecond, cfg.Hotkeys.Remap.Settle.Duration())
	assert.Equal(t, []ViewConfig{
		{Name: "claude", URL: "https://claude.ai/"},
		{Name: "gemini", URL: "https://gemini.google.com/"},
	}, cfg.Views)
	assert.Equal(t, "hyprctl cursorpos", cfg.Display.PointerCommand)
	assert.False(t, cfg.Updates.Enabled)
	assert.Equal(t, 12*time.Hour, cfg.Updates.Interval.Duration())
	assert.Equal(t, "dark", cfg.Theme.ColorScheme)
	assert.Equal(t, DefaultUinputDevice, cfg.Input.UinputDevice)
}

func TestLoadFrom_InvalidToggleFallsBack(t *testing.T) {
	path := writeConfig(t, `
[hotkeys]
toggle = "Hyper+Banana"
`)

	cfg, err := LoadFrom(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultToggle(runtime.GOOS), cfg.Hotkeys.Toggle)
}

func TestLoadFrom_EmptyToggleFallsBack(t *testing.T) {
	path := writeConfig(t, `
[hotkeys]
toggle = ""
`)

	cfg, err := LoadFrom(path, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultToggle(runtime.GOOS), cfg.Hotkeys.Toggle)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := writeConfig(t, "[window\nwidth = ")
	_, err := LoadFrom(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"bad relaunch", func(c *Config) { c.Hotkeys.Relaunch = "Ctrl+" }},
		{"bad refresh", func(c *Config) { c.Hotkeys.Refresh = []string{"Nope+R"} }},
		{"remap without target", func(c *Config) { c.Hotkeys.Remap.Trigger = "Enter" }},
		{"remap onto itself", func(c *Config) {
			c.Hotkeys.Remap.Trigger = "Enter"
			c.Hotkeys.Remap.Target = "Return"
		}},
		{"toggle on a refresh key", func(c *Config) { c.Hotkeys.Toggle = "F5" }},
		{"toggle on relaunch", func(c *Config) { c.Hotkeys.Relaunch = c.Hotkeys.Toggle }},
		{"relaunch on a refresh key", func(c *Config) { c.Hotkeys.Relaunch = "f5" }},
		{"remap trigger on toggle", func(c *Config) {
			c.Hotkeys.Remap.Trigger = c.Hotkeys.Toggle
			c.Hotkeys.Remap.Target = "Ctrl+Enter"
		}},
		{"tiny window", func(c *Config) { c.Window.Width = 10 }},
		{"huge window", func(c *Config) { c.Window.Height = 10000 }},
		{"view without name", func(c *Config) { c.Views = append(c.Views, ViewConfig{URL: "https://a.example/"}) }},
		{"reserved view name", func(c *Config) { c.Views = append(c.Views, ViewConfig{Name: "native", URL: "https://a.example/"}) }},
		{"duplicate view", func(c *Config) { c.Views = append(c.Views, c.Views[0]) }},
		{"view without host", func(c *Config) { c.Views[0].URL = "https://" }},
		{"view with odd scheme", func(c *Config) { c.Views[0].URL = "javascript:alert(1)" }},
		{"bad color scheme", func(c *Config) { c.Theme.ColorScheme = "sepia" }},
		{"short interval", func(c *Config) { c.Updates.Interval = Duration(time.Second) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_RepeatedRefreshKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hotkeys.Refresh = []string{"F5", "f5", "CommandOrControl+R"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_DisabledUpdatesIgnoreFeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Updates.Enabled = false
	cfg.Updates.Feed = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "summon.toml")

	cfg := DefaultConfig()
	cfg.Hotkeys.Toggle = "Super+Shift+Q"
	cfg.Views = append(cfg.Views, ViewConfig{Name: "claude", URL: "https://claude.ai/"})
	cfg.Hotkeys.Remap = RemapConfig{Trigger: "Enter", Target: "Ctrl+Enter", Settle: Duration(40 * time.Millisecond)}
	require.NoError(t, cfg.SaveTo(path))
	assert.NoFileExists(t, path+".tmp")

	loaded, err := LoadFrom(path, nil)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30ms", 30 * time.Millisecond},
		{"6h", 6 * time.Hour},
		{"1500", 1500 * time.Millisecond},
		{"0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			require.NoError(t, d.UnmarshalText([]byte(tt.in)))
			assert.Equal(t, tt.want, d.Duration())
		})
	}

	var d Duration
	assert.Error(t, d.UnmarshalText([]byte("soon")))
}

func TestNativeURL(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	assert.Empty(t, cfg.NativeURL())

	cfg.Native.URL = "https://localhost:8080/"
	assert.Equal(t, "https://localhost:8080/", cfg.NativeURL())

	cfg.Native.URL = "~/summon/index.html"
	assert.Equal(t, "file://"+filepath.Join(home, "summon", "index.html"), cfg.NativeURL())
	assert.NoError(t, cfg.Validate())
}

func TestTrayIcon(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Tray.Icon = "~/icons/summon.png"
	assert.Equal(t, filepath.Join(home, "icons", "summon.png"), cfg.TrayIcon())
}
