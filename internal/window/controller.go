// Package window implements the overlay's show/hide state machine.
package window

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/summon/internal/geometry"
)

// State is the visibility state of the overlay.
type State int

const (
	// Hidden is the initial state.
	Hidden State = iota
	// Visible means the overlay is on screen.
	Visible
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	default:
		return "unknown"
	}
}

// Host is the native overlay window. Only the Controller calls it.
type Host interface {
	// Move places the window's top-left corner at p in global coordinates.
	// An error means the platform cannot position windows; it is not fatal.
	Move(p geometry.Point) error
	// Reveal shows the window and gives it input focus.
	Reveal() error
	// Conceal hides the window.
	Conceal()
	// Minimize minimizes the window.
	Minimize()
	// HideApplication hides the whole application.
	HideApplication()
	// Size returns the fixed window size.
	Size() geometry.Size
}

// Scope is a set of key bindings that only exists while the overlay has focus.
type Scope interface {
	Activate() int
	Deactivate()
}

// Controller owns the overlay's visibility and focus. All methods are called
// from the event loop.
type Controller struct {
	mu       sync.Mutex
	host     Host
	resolver *geometry.Resolver
	pointer  geometry.PointerLocator
	policy   Policy
	logger   *slog.Logger

	scopes   []Scope
	state    State
	focused  bool
	lastPos  geometry.Point
	hasLast  bool
	onShown  func()
	onHidden func()
}

// NewController creates a controller in the Hidden state.
func NewController(host Host, resolver *geometry.Resolver, pointer geometry.PointerLocator, policy Policy, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		host:     host,
		resolver: resolver,
		pointer:  pointer,
		policy:   policy,
		logger:   logger,
		state:    Hidden,
	}
}

// AddScope registers a binding set that follows input focus.
func (c *Controller) AddScope(s Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scopes = append(c.scopes, s)
}

// SetShownCallback sets the function called after the overlay is revealed.
// The UI uses it to focus its input.
func (c *Controller) SetShownCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShown = fn
}

// SetHiddenCallback sets the function called after the overlay is hidden.
func (c *Controller) SetHiddenCallback(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHidden = fn
}

// State returns the current visibility state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Focused reports whether the overlay currently holds input focus.
func (c *Controller) Focused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// Toggle hides a visible overlay and shows a hidden one.
func (c *Controller) Toggle() {
	if c.State() == Visible {
		c.Hide()
		return
	}
	if err := c.Show(); err != nil {
		c.logger.Warn("failed to show overlay", "error", err)
	}
}

// Show centers the overlay on the display under the pointer and reveals it.
// The display list is queried on every call. When no display is available the
// last position that worked is reused; without one the overlay stays hidden.
func (c *Controller) Show() error {
	pos, err := c.position()
	if err != nil {
		return err
	}

	if err := c.host.Move(pos); err != nil {
		c.logger.Debug("window position is advisory", "position", pos.String(), "error", err)
	}
	if err := c.host.Reveal(); err != nil {
		c.mu.Lock()
		c.state = Hidden
		c.mu.Unlock()
		return fmt.Errorf("reveal overlay: %w", err)
	}

	c.mu.Lock()
	c.state = Visible
	c.lastPos = pos
	c.hasLast = true
	onShown := c.onShown
	c.mu.Unlock()

	c.logger.Debug("overlay shown", "position", pos.String())
	if onShown != nil {
		onShown()
	}
	return nil
}

func (c *Controller) position() (geometry.Point, error) {
	size := c.host.Size()

	cursor, ok := c.pointer.Pointer()
	if !ok {
		primary, err := c.resolver.Primary()
		if err != nil {
			return c.fallbackPosition(err)
		}
		cursor = geometry.Point{X: primary.X, Y: primary.Y}
	}

	pos, err := c.resolver.ComputePosition(cursor, size)
	if err != nil {
		return c.fallbackPosition(err)
	}
	return pos, nil
}

func (c *Controller) fallbackPosition(cause error) (geometry.Point, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hasLast {
		return geometry.Point{}, fmt.Errorf("position overlay: %w", cause)
	}
	c.logger.Warn("reusing last overlay position", "position", c.lastPos.String(), "error", cause)
	return c.lastPos, nil
}

// Hide hides the overlay using the platform policy and releases the focus
// scoped bindings. Hiding a hidden overlay does nothing.
func (c *Controller) Hide() {
	c.mu.Lock()
	if c.state == Hidden {
		c.mu.Unlock()
		return
	}
	c.state = Hidden
	scopes := append([]Scope(nil), c.scopes...)
	onHidden := c.onHidden
	c.mu.Unlock()

	for _, s := range scopes {
		s.Deactivate()
	}

	if c.policy.HideApplication {
		c.host.HideApplication()
	}
	if c.policy.MinimizeBeforeHide {
		c.host.Minimize()
	}
	c.host.Conceal()

	c.logger.Debug("overlay hidden")
	if onHidden != nil {
		onHidden()
	}
}

// FocusGained activates the focus scoped bindings.
func (c *Controller) FocusGained() {
	c.mu.Lock()
	c.focused = true
	scopes := append([]Scope(nil), c.scopes...)
	c.mu.Unlock()

	n := 0
	for _, s := range scopes {
		n += s.Activate()
	}
	c.logger.Debug("overlay focused", "bindings", n)
}

// FocusLost releases the focus scoped bindings and dismisses the overlay.
func (c *Controller) FocusLost() {
	c.mu.Lock()
	c.focused = false
	scopes := append([]Scope(nil), c.scopes...)
	c.mu.Unlock()

	for _, s := range scopes {
		s.Deactivate()
	}
	c.logger.Debug("overlay lost focus")
	c.Hide()
}

// Escape handles the Escape key inside the overlay. It returns true when the
// key was consumed and must not reach the content.
func (c *Controller) Escape() bool {
	if c.State() != Visible {
		return false
	}
	c.Hide()
	return true
}
