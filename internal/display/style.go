package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/summon/internal/config"
)

const overlayCSS = `
window.summon-overlay {
	border-radius: 12px;
	background-color: @window_bg_color;
}
`

// ApplyStyle installs the overlay stylesheet and the configured colour
// scheme. Must be called after the application is initialised.
func ApplyStyle(scheme config.ColorScheme, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	styleManager := adw.StyleManagerGetDefault()
	switch scheme {
	case config.ColorSchemeLight:
		styleManager.SetColorScheme(adw.ColorSchemeForceLight)
	case config.ColorSchemeDark:
		styleManager.SetColorScheme(adw.ColorSchemeForceDark)
	default:
		styleManager.SetColorScheme(adw.ColorSchemeDefault)
	}

	display := gdk.DisplayGetDefault()
	if display == nil {
		logger.Warn("no display available, cannot apply style")
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(overlayCSS)
	gtk.StyleContextAddProviderForDisplay(display, provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
	logger.Debug("applied style", "color_scheme", string(scheme), "dark", styleManager.Dark())
}
