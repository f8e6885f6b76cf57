// Package geometry resolves where the overlay window should appear.
// It works on plain rectangles so it can be exercised without a display server;
// the GTK monitor list is adapted to DisplayLister in internal/display.
package geometry

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoDisplay is returned when the display list is empty.
var ErrNoDisplay = errors.New("no display available")

// Point is a position in global (virtual desktop) coordinates.
type Point struct {
	X int
	Y int
}

// String returns the point as "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int
	Height int
}

// Rect is an axis-aligned rectangle in global coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains reports whether p lies inside r. The right and bottom edges are exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width &&
		o.Y+o.Height <= r.Y+r.Height
}

// distanceSq returns the squared distance from p to the closest point of r.
// It is zero when r contains p.
func (r Rect) distanceSq(p Point) int {
	dx := 0
	switch {
	case p.X < r.X:
		dx = r.X - p.X
	case p.X >= r.X+r.Width:
		dx = p.X - (r.X + r.Width - 1)
	}
	dy := 0
	switch {
	case p.Y < r.Y:
		dy = r.Y - p.Y
	case p.Y >= r.Y+r.Height:
		dy = p.Y - (r.Y + r.Height - 1)
	}
	return dx*dx + dy*dy
}

// DisplayLister returns the bounds of every connected display, primary first.
// Implementations must query the current configuration on every call so that
// monitor hot-plug is picked up.
type DisplayLister interface {
	Displays() []Rect
}

// DisplayListerFunc adapts a function to DisplayLister.
type DisplayListerFunc func() []Rect

// Displays implements DisplayLister.
func (f DisplayListerFunc) Displays() []Rect { return f() }

// PointerLocator reports the current pointer position.
// ok is false when the position cannot be determined.
type PointerLocator interface {
	Pointer() (p Point, ok bool)
}

// Resolver computes the overlay origin for a pointer position.
type Resolver struct {
	displays DisplayLister
	logger   *slog.Logger
}

// NewResolver creates a resolver over the given display source.
func NewResolver(displays DisplayLister, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		displays: displays,
		logger:   logger,
	}
}

// Nearest returns the display nearest to p. Displays never overlap, so for a
// pointer that is on a display this is the containing display. Ties go to the
// earlier display in the list.
func (r *Resolver) Nearest(p Point) (Rect, error) {
	displays := r.displays.Displays()
	if len(displays) == 0 {
		return Rect{}, ErrNoDisplay
	}

	best := displays[0]
	bestDist := best.distanceSq(p)
	for _, d := range displays[1:] {
		if bestDist == 0 {
			break
		}
		if dist := d.distanceSq(p); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best, nil
}

// Primary returns the first display in the list.
func (r *Resolver) Primary() (Rect, error) {
	displays := r.displays.Displays()
	if len(displays) == 0 {
		return Rect{}, ErrNoDisplay
	}
	return displays[0], nil
}

// ComputePosition returns the origin that centers a window of the given size
// on the display nearest the cursor.
func (r *Resolver) ComputePosition(cursor Point, size Size) (Point, error) {
	display, err := r.Nearest(cursor)
	if err != nil {
		return Point{}, err
	}

	pos := Center(display, size)
	r.logger.Debug("computed window position",
		"cursor", cursor.String(),
		"display", display,
		"position", pos.String(),
	)
	return pos, nil
}

// Center returns the origin that centers size inside display. Half pixels are
// dropped. An axis on which the window does not fit is pinned to the display
// origin so the window never starts off-screen.
func Center(display Rect, size Size) Point {
	return Point{
		X: display.X + centerOffset(display.Width, size.Width),
		Y: display.Y + centerOffset(display.Height, size.Height),
	}
}

func centerOffset(available, length int) int {
	if length >= available {
		return 0
	}
	return (available - length) / 2
}
