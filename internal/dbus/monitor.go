package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/godbus/dbus/v5"
)

// Event is a signal received from the daemon.
type Event struct {
	Name string   // Signal name without the interface prefix
	Args []string // String arguments, if any
}

// String returns the event as "Name arg...".
func (e Event) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	return e.Name + " " + strings.Join(e.Args, " ")
}

// Monitor subscribes to the daemon's signals without claiming anything on
// the bus.
type Monitor struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewMonitor creates a new signal monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger}
}

// Run delivers daemon signals to fn until ctx is done.
func (m *Monitor) Run(ctx context.Context, fn func(Event)) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	m.conn = conn
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(DBusPath),
		dbus.WithMatchInterface(DBusInterface),
	); err != nil {
		return fmt.Errorf("failed to add match rule: %w", err)
	}

	ch := make(chan *dbus.Signal, 16)
	conn.Signal(ch)
	defer conn.RemoveSignal(ch)

	m.logger.Debug("watching daemon signals", "interface", DBusInterface)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-ch:
			if !ok {
				return nil
			}
			if ev, ok := parseSignal(sig); ok {
				fn(ev)
			}
		}
	}
}

// parseSignal converts a raw signal into an Event. Signals from other
// interfaces are ignored.
func parseSignal(sig *dbus.Signal) (Event, bool) {
	if sig == nil || sig.Path != DBusPath {
		return Event{}, false
	}
	name, found := strings.CutPrefix(sig.Name, DBusInterface+".")
	if !found {
		return Event{}, false
	}

	ev := Event{Name: name}
	for _, arg := range sig.Body {
		if s, ok := arg.(string); ok {
			ev.Args = append(ev.Args, s)
		}
	}
	return ev, true
}
