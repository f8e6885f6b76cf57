package display

import (
	"log/slog"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/summon/internal/geometry"
)

// HostOptions configures the overlay window.
type HostOptions struct {
	Size     geometry.Size
	Monitors *MonitorLister
	Logger   *slog.Logger
}

// Host is the overlay window. It implements window.Host.
type Host struct {
	window   *gtk.Window
	overlay  *gtk.Overlay
	size     geometry.Size
	monitors *MonitorLister
	layered  bool
	logger   *slog.Logger

	onFocusGained func()
	onFocusLost   func()
	onEscape      func() bool
}

// NewHost creates the overlay window, initially hidden. On compositors that
// support layer-shell the window sits on the overlay layer of the monitor it
// was last moved to; elsewhere it is an undecorated toplevel.
func NewHost(app *gtk.Application, opts HostOptions) *Host {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	monitors := opts.Monitors
	if monitors == nil {
		monitors = NewMonitorLister(logger)
	}

	h := &Host{
		size:     opts.Size,
		monitors: monitors,
		logger:   logger,
	}

	h.window = gtk.NewWindow()
	h.window.SetApplication(app)
	h.window.SetTitle("summon")
	h.window.SetDecorated(false)
	h.window.SetResizable(false)
	h.window.SetDefaultSize(h.size.Width, h.size.Height)
	h.window.SetSizeRequest(h.size.Width, h.size.Height)
	h.window.SetHideOnClose(true)
	h.window.AddCSSClass("summon-overlay")

	if layershell.IsSupported() {
		layershell.InitForWindow(h.window)
		layershell.SetLayer(h.window, layershell.LayerShellLayerOverlay)
		layershell.SetExclusiveZone(h.window, 0)
		layershell.SetKeyboardMode(h.window, layershell.LayerShellKeyboardModeOnDemand)
		layershell.SetNamespace(h.window, "summon")
		layershell.SetAnchor(h.window, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(h.window, layershell.LayerShellEdgeLeft, true)
		h.layered = true
	} else {
		logger.Info("layer-shell not supported, window position is left to the window manager")
	}

	h.overlay = gtk.NewOverlay()
	h.window.SetChild(h.overlay)

	h.connectSignals()
	return h
}

func (h *Host) connectSignals() {
	h.window.NotifyProperty("is-active", func() {
		if h.window.IsActive() {
			if h.onFocusGained != nil {
				h.onFocusGained()
			}
			return
		}
		if h.onFocusLost != nil {
			h.onFocusLost()
		}
	})

	// Capture phase so Escape is seen before the embedded pages.
	keyCtrl := gtk.NewEventControllerKey()
	keyCtrl.SetPropagationPhase(gtk.PhaseCapture)
	keyCtrl.ConnectKeyPressed(func(keyval, keycode uint, state gdk.ModifierType) bool {
		if keyval != gdk.KEY_Escape || h.onEscape == nil {
			return false
		}
		return h.onEscape()
	})
	h.window.AddController(keyCtrl)
}

// SetFocusCallbacks sets the functions called when the window gains or loses
// keyboard focus.
func (h *Host) SetFocusCallbacks(gained, lost func()) {
	h.onFocusGained = gained
	h.onFocusLost = lost
}

// SetEscapeCallback sets the function called when Escape is pressed. A true
// result consumes the key.
func (h *Host) SetEscapeCallback(fn func() bool) {
	h.onEscape = fn
}

// Window returns the underlying GTK window.
func (h *Host) Window() *gtk.Window {
	return h.window
}

// Overlay returns the container the views are stacked in.
func (h *Host) Overlay() *gtk.Overlay {
	return h.overlay
}

// Bounds returns the content bounds in window coordinates.
func (h *Host) Bounds() geometry.Rect {
	return geometry.Rect{Width: h.size.Width, Height: h.size.Height}
}

// Move places the window's top-left corner at p. Layer-shell positions are
// relative to a monitor, so p is converted to margins on the monitor
// containing it.
func (h *Host) Move(p geometry.Point) error {
	if !h.layered {
		return &Error{Message: "window positioning not supported by this compositor"}
	}

	monitor, bounds := h.monitors.MonitorAt(p)
	if monitor == nil {
		return &Error{Message: "no monitor available"}
	}

	layershell.SetMonitor(h.window, monitor)
	layershell.SetMargin(h.window, layershell.LayerShellEdgeLeft, p.X-bounds.X)
	layershell.SetMargin(h.window, layershell.LayerShellEdgeTop, p.Y-bounds.Y)

	h.logger.Debug("moved overlay", "position", p.String(), "monitor", monitor.Connector())
	return nil
}

// Reveal shows the window and gives it focus.
func (h *Host) Reveal() error {
	h.window.SetVisible(true)
	h.window.Present()
	if !h.window.Visible() {
		return &Error{Message: "window could not be shown"}
	}
	return nil
}

// Conceal hides the window.
func (h *Host) Conceal() {
	h.window.SetVisible(false)
}

// Minimize minimizes the window. Layer surfaces cannot be minimized.
func (h *Host) Minimize() {
	if h.layered {
		return
	}
	h.window.Minimize()
}

// HideApplication has no equivalent on Linux desktops.
func (h *Host) HideApplication() {
	h.logger.Debug("application hide not supported on this platform")
}

// Size returns the fixed window size.
func (h *Host) Size() geometry.Size {
	return h.size
}
