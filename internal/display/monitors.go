package display

import (
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"

	"github.com/jmylchreest/summon/internal/geometry"
)

// MonitorLister reports the connected monitors. The list is read from GDK on
// every call, so hot-plugged monitors are picked up by the next show.
type MonitorLister struct {
	logger *slog.Logger
}

// NewMonitorLister creates a monitor lister for the default GDK display.
func NewMonitorLister(logger *slog.Logger) *MonitorLister {
	if logger == nil {
		logger = slog.Default()
	}
	return &MonitorLister{logger: logger}
}

// Displays implements geometry.DisplayLister. The first entry is the primary
// monitor.
func (l *MonitorLister) Displays() []geometry.Rect {
	monitors := l.monitors()
	rects := make([]geometry.Rect, 0, len(monitors))
	for _, m := range monitors {
		rects = append(rects, monitorRect(m))
	}
	return rects
}

// MonitorAt returns the monitor whose bounds contain p, falling back to the
// nearest one. Returns nil when no monitor is connected.
func (l *MonitorLister) MonitorAt(p geometry.Point) (*gdk.Monitor, geometry.Rect) {
	monitors := l.monitors()
	if len(monitors) == 0 {
		return nil, geometry.Rect{}
	}

	rects := make([]geometry.Rect, len(monitors))
	for i, m := range monitors {
		rects[i] = monitorRect(m)
	}
	resolver := geometry.NewResolver(geometry.DisplayListerFunc(func() []geometry.Rect { return rects }), l.logger)
	nearest, err := resolver.Nearest(p)
	if err != nil {
		return nil, geometry.Rect{}
	}
	for i, r := range rects {
		if r == nearest {
			return monitors[i], r
		}
	}
	return monitors[0], rects[0]
}

func (l *MonitorLister) monitors() []*gdk.Monitor {
	display := gdk.DisplayGetDefault()
	if display == nil {
		l.logger.Warn("no display available")
		return nil
	}

	list := display.Monitors()
	if list == nil {
		l.logger.Warn("no monitors list available")
		return nil
	}

	n := list.NItems()
	monitors := make([]*gdk.Monitor, 0, n)
	for i := uint(0); i < n; i++ {
		if m := wrapMonitor(list.Item(i)); m != nil {
			monitors = append(monitors, m)
		}
	}
	return monitors
}

func monitorRect(m *gdk.Monitor) geometry.Rect {
	g := m.Geometry()
	return geometry.Rect{X: g.X(), Y: g.Y(), Width: g.Width(), Height: g.Height()}
}

// wrapMonitor wraps a glib.Object as a gdk.Monitor.
// gotk4 does not export its own wrapMonitor.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// gdk.Monitor embeds a *glib.Object, so a struct with the same layout
	// can be reinterpreted. This is how gotk4 does it internally.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
