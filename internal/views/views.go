// Package views multiplexes the embedded surfaces that share the overlay
// window. The native view is always present underneath; at most one external
// surface is attached on top of it at any time.
package views

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/summon/internal/geometry"
)

// SlotName identifies a view slot.
type SlotName string

// Native is the built-in view that is shown when no external surface is
// attached.
const Native SlotName = "native"

var (
	// ErrUnknownSlot is returned when activating a slot that was never configured.
	ErrUnknownSlot = errors.New("unknown view")
	// ErrSlotUnavailable is returned when activating a slot whose surface could
	// not be created.
	ErrSlotUnavailable = errors.New("view unavailable")
)

// SlotSpec configures an external view.
type SlotSpec struct {
	Name SlotName
	URL  string
}

// Surface is an embedded web surface owned by the multiplexer.
type Surface interface {
	// Navigate loads url. Called once, right after creation.
	Navigate(url string)
	// Attach makes the surface visible inside the host at bounds.
	Attach(bounds geometry.Rect)
	// Detach hides the surface without destroying it.
	Detach()
	// Resize moves an attached surface to new bounds.
	Resize(bounds geometry.Rect)
}

// Opener hands a URL to the user's default browser.
type Opener interface {
	OpenExternal(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// OpenExternal calls f(url).
func (f OpenerFunc) OpenExternal(url string) error { return f(url) }

// SurfaceFactory creates surfaces. Implementations must enable networking,
// expose no privileged script bridge, and route every new-window request to
// opener instead of creating a window.
type SurfaceFactory interface {
	NewSurface(name SlotName, opener Opener) (Surface, error)
}

// BoundsFunc returns the current content bounds of the host window.
type BoundsFunc func() geometry.Rect

// ChangeFunc is called after a slot has been brought to the foreground.
type ChangeFunc func(name SlotName)

type slot struct {
	spec    SlotSpec
	surface Surface
	failed  error
}

// Multiplexer owns the external surfaces and decides which one is attached.
type Multiplexer struct {
	mu       sync.Mutex
	factory  SurfaceFactory
	opener   Opener
	bounds   BoundsFunc
	logger   *slog.Logger
	order    []SlotName
	slots    map[SlotName]*slot
	created  bool
	current  SlotName
	attached SlotName
	onChange ChangeFunc
}

// NewMultiplexer creates a multiplexer for specs. Surfaces are not created
// until EnsureCreated is called.
func NewMultiplexer(factory SurfaceFactory, opener Opener, bounds BoundsFunc, specs []SlotSpec, logger *slog.Logger) (*Multiplexer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Multiplexer{
		factory: factory,
		opener:  opener,
		bounds:  bounds,
		logger:  logger,
		slots:   make(map[SlotName]*slot),
		current: Native,
	}
	for _, spec := range specs {
		if spec.Name == "" || spec.Name == Native {
			return nil, fmt.Errorf("invalid view name %q", spec.Name)
		}
		if _, exists := m.slots[spec.Name]; exists {
			return nil, fmt.Errorf("duplicate view %q", spec.Name)
		}
		m.slots[spec.Name] = &slot{spec: spec}
		m.order = append(m.order, spec.Name)
	}
	return m, nil
}

// SetChangeCallback sets the function called after Activate succeeds.
func (m *Multiplexer) SetChangeCallback(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// EnsureCreated creates, navigates and detaches every external surface. It
// only does work on the first call. A slot whose surface fails to create is
// left inert; the others are still created.
func (m *Multiplexer) EnsureCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.created {
		return
	}
	m.created = true

	for _, name := range m.order {
		s := m.slots[name]
		surface, err := m.factory.NewSurface(name, m.opener)
		if err != nil {
			s.failed = err
			m.logger.Warn("failed to create view", "slot", string(name), "error", err)
			continue
		}
		s.surface = surface
		surface.Navigate(s.spec.URL)
		surface.Detach()
		m.logger.Debug("created view", "slot", string(name), "url", s.spec.URL)
	}
}

// Activate brings name to the foreground. Every other external surface is
// detached before name is attached, so two are never attached together.
// Activating Native detaches everything.
func (m *Multiplexer) Activate(name SlotName) error {
	m.mu.Lock()

	var target *slot
	if name != Native {
		s, exists := m.slots[name]
		if !exists {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownSlot, name)
		}
		if s.surface == nil {
			m.mu.Unlock()
			if s.failed != nil {
				return fmt.Errorf("%w: %s: %v", ErrSlotUnavailable, name, s.failed)
			}
			return fmt.Errorf("%w: %s", ErrSlotUnavailable, name)
		}
		target = s
	}

	for _, other := range m.order {
		if other == name {
			continue
		}
		if s := m.slots[other]; s.surface != nil {
			s.surface.Detach()
		}
	}

	m.attached = ""
	if target != nil {
		bounds := m.bounds()
		target.surface.Attach(bounds)
		target.surface.Resize(bounds)
		m.attached = name
	}
	m.current = name
	onChange := m.onChange
	m.mu.Unlock()

	m.logger.Debug("activated view", "slot", string(name))
	if onChange != nil {
		onChange(name)
	}
	return nil
}

// Relayout re-applies the content bounds to the attached surface.
func (m *Multiplexer) Relayout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.attached == "" {
		return
	}
	m.slots[m.attached].surface.Resize(m.bounds())
}

// Foreground returns the slot currently in the foreground.
func (m *Multiplexer) Foreground() SlotName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Attached returns the attached external slot, or "" when only the native
// view is showing.
func (m *Multiplexer) Attached() SlotName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// Slots returns the configured external slot names in configuration order.
func (m *Multiplexer) Slots() []SlotName {
	return append([]SlotName(nil), m.order...)
}
