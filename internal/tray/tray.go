// Package tray shows the status-area icon that toggles the overlay.
package tray

import (
	_ "embed"
	"log/slog"
	"sync"

	"github.com/energye/systray"
)

//go:embed icon.png
var defaultIcon []byte

// Dispatcher runs fn on the application's event loop.
type Dispatcher func(fn func())

// Activation is the kind of tray interaction.
type Activation int

const (
	Click Activation = iota
	RightClick
	DoubleClick
)

// String returns the string representation of Activation.
func (a Activation) String() string {
	switch a {
	case Click:
		return "click"
	case RightClick:
		return "right-click"
	case DoubleClick:
		return "double-click"
	default:
		return "unknown"
	}
}

// Controller owns the tray icon. Every activation kind toggles the overlay;
// there is no context menu.
type Controller struct {
	mu         sync.Mutex
	tooltip    string
	icon       []byte
	dispatch   Dispatcher
	logger     *slog.Logger
	onActivate func()
	end        func()
}

// NewController creates a tray controller. A nil icon uses the built-in one.
func NewController(icon []byte, tooltip string, dispatch Dispatcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if len(icon) == 0 {
		icon = defaultIcon
	}
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &Controller{
		tooltip:  tooltip,
		icon:     icon,
		dispatch: dispatch,
		logger:   logger,
	}
}

// SetActivateCallback sets the function called on any tray activation.
func (c *Controller) SetActivateCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onActivate = fn
}

// Activate handles one tray interaction on the event loop.
func (c *Controller) Activate(kind Activation) {
	c.dispatch(func() {
		c.mu.Lock()
		fn := c.onActivate
		c.mu.Unlock()

		c.logger.Debug("tray activated", "kind", kind.String())
		if fn != nil {
			fn()
		}
	})
}

// Start registers the icon with the status notifier host. The tray runs
// alongside the GTK main loop rather than owning it.
func (c *Controller) Start() {
	start, end := systray.RunWithExternalLoop(c.onReady, func() {
		c.logger.Debug("tray stopped")
	})

	c.mu.Lock()
	c.end = end
	c.mu.Unlock()

	start()
}

func (c *Controller) onReady() {
	systray.SetIcon(c.icon)
	systray.SetTooltip(c.tooltip)
	systray.SetOnClick(func(systray.IMenu) { c.Activate(Click) })
	systray.SetOnRClick(func(systray.IMenu) { c.Activate(RightClick) })
	systray.SetOnDClick(func(systray.IMenu) { c.Activate(DoubleClick) })
	c.logger.Debug("tray ready")
}

// Stop removes the icon.
func (c *Controller) Stop() {
	c.mu.Lock()
	end := c.end
	c.end = nil
	c.mu.Unlock()

	if end != nil {
		end()
	}
}
