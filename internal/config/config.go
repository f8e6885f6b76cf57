// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/summon/internal/hotkey"
)

// Default configuration values.
const (
	DefaultWidth        = 750
	DefaultHeight       = 475
	DefaultRelaunch     = "Super+0"
	DefaultUinputDevice = "/dev/uinput"
	DefaultFeed         = "https://api.github.com/repos/jmylchreest/summon/releases/latest"
	DefaultInterval     = 6 * time.Hour
	DefaultSettle       = 30 * time.Millisecond
	DefaultTooltip      = "Summon"
)

// DefaultRefresh lists the bindings that reload the foreground view while the
// overlay has focus.
var DefaultRefresh = []string{"CommandOrControl+R", "F5"}

// Config is the summon configuration.
// Loaded from ~/.config/summon/summon.toml
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Hotkeys HotkeyConfig  `toml:"hotkeys"`
	Views   []ViewConfig  `toml:"views"`
	Native  NativeConfig  `toml:"native"`
	Display DisplayConfig `toml:"display"`
	Input   InputConfig   `toml:"input"`
	Updates UpdateConfig  `toml:"updates"`
	Theme   ThemeConfig   `toml:"theme"`
	Tray    TrayConfig    `toml:"tray"`
}

// WindowConfig holds the overlay size.
type WindowConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// HotkeyConfig holds global and focus scoped key bindings.
type HotkeyConfig struct {
	Toggle   string      `toml:"toggle"`   // Permanent show/hide binding
	Relaunch string      `toml:"relaunch"` // Restarts the application; empty disables
	Refresh  []string    `toml:"refresh"`  // Active only while the overlay is focused
	Remap    RemapConfig `toml:"remap"`
}

// RemapConfig configures the self re-arming key remap. An empty trigger
// disables it.
type RemapConfig struct {
	Trigger string   `toml:"trigger"` // e.g. "Enter"
	Target  string   `toml:"target"`  // e.g. "Ctrl+Enter"
	Settle  Duration `toml:"settle"`  // Delay after injection before re-arming
}

// ViewConfig declares an external embedded view.
type ViewConfig struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// NativeConfig configures the built-in view.
type NativeConfig struct {
	URL string `toml:"url"` // Page shown underneath external views; empty = blank
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// PointerCommand prints the pointer position as "x, y". Needed on
	// compositors that do not expose the global pointer position.
	PointerCommand string `toml:"pointer_command"`
}

// InputConfig contains synthetic input settings.
type InputConfig struct {
	UinputDevice string `toml:"uinput_device"`
}

// UpdateConfig contains update checking settings.
type UpdateConfig struct {
	Enabled  bool     `toml:"enabled"`
	Feed     string   `toml:"feed"`
	Interval Duration `toml:"interval"`
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// TrayConfig contains tray icon settings.
type TrayConfig struct {
	Enabled bool   `toml:"enabled"`
	Icon    string `toml:"icon"` // PNG path; empty = built-in icon
	Tooltip string `toml:"tooltip"`
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// DefaultToggle returns the default toggle binding for goos.
func DefaultToggle(goos string) string {
	switch goos {
	case "darwin":
		return "Cmd+E"
	case "windows":
		return "Ctrl+E"
	default:
		return "Super+E"
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Hotkeys: HotkeyConfig{
			Toggle:   DefaultToggle(runtime.GOOS),
			Relaunch: DefaultRelaunch,
			Refresh:  append([]string(nil), DefaultRefresh...),
			Remap: RemapConfig{
				Settle: Duration(DefaultSettle),
			},
		},
		Views: []ViewConfig{
			{Name: "chatgpt", URL: "https://chat.openai.com/"},
		},
		Input: InputConfig{
			UinputDevice: DefaultUinputDevice,
		},
		Updates: UpdateConfig{
			Enabled:  true,
			Feed:     DefaultFeed,
			Interval: Duration(DefaultInterval),
		},
		Theme: ThemeConfig{
			ColorScheme: string(ColorSchemeSystem),
		},
		Tray: TrayConfig{
			Enabled: true,
			Tooltip: DefaultTooltip,
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "summon", "summon.toml"), nil
}

// Load loads the configuration from the default path.
func Load(logger *slog.Logger) (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(path, logger)
}

// LoadFrom loads the configuration from path. If the file doesn't exist,
// returns the default configuration. An unusable toggle binding is replaced
// by the platform default rather than failing the load.
func LoadFrom(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	// Lists are taken from the file as a whole rather than merged.
	cfg := DefaultConfig()
	cfg.Views = nil
	cfg.Hotkeys.Refresh = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	def := DefaultConfig()
	if cfg.Views == nil {
		cfg.Views = def.Views
	}
	if cfg.Hotkeys.Refresh == nil {
		cfg.Hotkeys.Refresh = def.Hotkeys.Refresh
	}

	for _, w := range cfg.Normalize() {
		logger.Warn("config value replaced", "path", path, "reason", w)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path. Creates parent directories if
// needed.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Normalize replaces values that have a safe fallback and returns a
// description of every replacement.
func (c *Config) Normalize() []string {
	var warnings []string

	if _, err := hotkey.Parse(c.Hotkeys.Toggle); err != nil {
		def := DefaultToggle(runtime.GOOS)
		warnings = append(warnings, fmt.Sprintf("toggle %q: %v; using %s", c.Hotkeys.Toggle, err, def))
		c.Hotkeys.Toggle = def
	}
	if c.Window.Width == 0 {
		c.Window.Width = DefaultWidth
	}
	if c.Window.Height == 0 {
		c.Window.Height = DefaultHeight
	}
	if c.Hotkeys.Remap.Settle <= 0 {
		c.Hotkeys.Remap.Settle = Duration(DefaultSettle)
	}
	if c.Theme.ColorScheme == "" {
		c.Theme.ColorScheme = string(ColorSchemeSystem)
	}

	return warnings
}

// validate parses every binding and rejects a combination claimed by two
// different uses. Refresh keys may repeat among themselves.
func (h HotkeyConfig) validate() error {
	owners := make(map[string]string)
	claim := func(field, accel string) error {
		combo, err := hotkey.Parse(accel)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		key := combo.String()
		if prev, taken := owners[key]; taken && prev != field {
			return fmt.Errorf("%s: %s is already used by %s", field, key, prev)
		}
		owners[key] = field
		return nil
	}

	if err := claim("hotkeys.toggle", h.Toggle); err != nil {
		return err
	}
	if h.Relaunch != "" {
		if err := claim("hotkeys.relaunch", h.Relaunch); err != nil {
			return err
		}
	}
	for _, accel := range h.Refresh {
		if err := claim("hotkeys.refresh", accel); err != nil {
			return err
		}
	}

	if r := h.Remap; r.Trigger != "" || r.Target != "" {
		if err := claim("hotkeys.remap.trigger", r.Trigger); err != nil {
			return err
		}
		trig, _ := hotkey.Parse(r.Trigger)
		tgt, err := hotkey.Parse(r.Target)
		if err != nil {
			return fmt.Errorf("hotkeys.remap.target: %w", err)
		}
		if trig.String() == tgt.String() {
			return fmt.Errorf("hotkeys.remap: trigger and target are both %s", trig)
		}
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Hotkeys.validate(); err != nil {
		return err
	}

	if c.Window.Width < 200 || c.Window.Width > 4000 {
		return fmt.Errorf("window.width must be between 200 and 4000, got %d", c.Window.Width)
	}
	if c.Window.Height < 150 || c.Window.Height > 4000 {
		return fmt.Errorf("window.height must be between 150 and 4000, got %d", c.Window.Height)
	}

	seen := make(map[string]bool)
	for i, v := range c.Views {
		if v.Name == "" {
			return fmt.Errorf("views[%d]: name is required", i)
		}
		if v.Name == "native" {
			return fmt.Errorf("views[%d]: name %q is reserved", i, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("views[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true
		if err := validateURL(v.URL); err != nil {
			return fmt.Errorf("views[%d] %s: %w", i, v.Name, err)
		}
	}
	if c.Native.URL != "" {
		if err := validateURL(c.NativeURL()); err != nil {
			return fmt.Errorf("native.url: %w", err)
		}
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Theme.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color_scheme %q, must be one of: %v", c.Theme.ColorScheme, ValidColorSchemes())
	}

	if c.Updates.Enabled {
		if err := validateURL(c.Updates.Feed); err != nil {
			return fmt.Errorf("updates.feed: %w", err)
		}
		if c.Updates.Interval.Duration() < time.Minute && c.Updates.Interval != 0 {
			return fmt.Errorf("updates.interval must be at least 1m, got %s", c.Updates.Interval.Duration())
		}
	}

	return nil
}

// NativeURL returns the native view URL with "~/" expanded and bare paths
// turned into file URLs.
func (c *Config) NativeURL() string {
	u := c.Native.URL
	if u == "" || strings.Contains(u, "://") {
		return u
	}
	return "file://" + expandPath(u)
}

// TrayIcon returns the tray icon path with "~/" expanded.
func (c *Config) TrayIcon() string {
	return expandPath(c.Tray.Icon)
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("url %q has no host", raw)
		}
	case "file":
	default:
		return fmt.Errorf("url %q must be http, https or file", raw)
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
