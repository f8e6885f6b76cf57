package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// ControlServer exports the control interface and emits its signals.
type ControlServer struct {
	mu      sync.RWMutex
	conn    *dbus.Conn
	logger  *slog.Logger
	handler Handler
	running bool
}

// NewControlServer creates a server that forwards requests to handler.
func NewControlServer(handler Handler, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		logger:  logger,
		handler: handler,
	}
}

// SetHandler sets the request handler. Must be called before Start.
func (s *ControlServer) SetHandler(handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

// Start connects to the session bus and exports the control interface.
// A running instance that allows replacement is replaced, which is how a
// relaunched daemon takes over from the one that started it.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.mu.Unlock()

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName,
		dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting|dbus.NameFlagAllowReplacement)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.running = true
	s.mu.Unlock()

	s.logger.Info("D-Bus control server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	if s.conn != nil {
		if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
			s.logger.Warn("failed to release bus name", "error", err)
		}
		// Don't close the connection as it's shared (SessionBus)
	}

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// Toggle shows or hides the overlay.
// D-Bus method: Toggle()
func (s *ControlServer) Toggle() *dbus.Error {
	s.logger.Debug("Toggle called")
	s.handler.Toggle()
	return nil
}

// ShowNative brings the native view to the foreground.
// D-Bus method: ShowNative()
func (s *ControlServer) ShowNative() *dbus.Error {
	s.logger.Debug("ShowNative called")
	s.handler.ShowNative()
	return nil
}

// ShowView brings an external view to the foreground.
// D-Bus method: ShowView(s)
func (s *ControlServer) ShowView(name string) *dbus.Error {
	s.logger.Debug("ShowView called", "view", name)
	return toDBusError(s.handler.ShowView(name))
}

// Minimize hides the overlay.
// D-Bus method: Minimize()
func (s *ControlServer) Minimize() *dbus.Error {
	s.logger.Debug("Minimize called")
	s.handler.Minimize()
	return nil
}

// Quit terminates the daemon.
// D-Bus method: Quit()
func (s *ControlServer) Quit() *dbus.Error {
	s.logger.Debug("Quit called")
	s.handler.Quit()
	return nil
}

// Rebind changes the permanent toggle binding and returns the binding in
// effect afterwards.
// D-Bus method: Rebind(s) -> s
func (s *ControlServer) Rebind(accel string) (string, *dbus.Error) {
	s.logger.Debug("Rebind called", "accelerator", accel)
	effective, err := s.handler.Rebind(accel)
	return effective, toDBusError(err)
}

// Version returns the daemon version.
// D-Bus method: Version() -> s
func (s *ControlServer) Version() (string, *dbus.Error) {
	return s.handler.AppVersion(), nil
}

// ApplyUpdate installs a downloaded update and restarts.
// D-Bus method: ApplyUpdate()
func (s *ControlServer) ApplyUpdate() *dbus.Error {
	s.logger.Debug("ApplyUpdate called")
	return toDBusError(s.handler.ApplyUpdate())
}

// Relaunch restarts the daemon.
// D-Bus method: Relaunch()
func (s *ControlServer) Relaunch() *dbus.Error {
	s.logger.Debug("Relaunch called")
	return toDBusError(s.handler.Relaunch())
}

// Status reports the overlay state.
// D-Bus method: Status() -> (sssbb)
func (s *ControlServer) Status() (string, string, string, bool, bool, *dbus.Error) {
	st := s.handler.Status()
	return st.State, st.View, st.Toggle, st.UpdateAvailable, st.UpdateDownloaded, nil
}

// controlMethods returns the D-Bus method introspection data.
func controlMethods() []introspect.Method {
	return []introspect.Method{
		{Name: "Toggle"},
		{Name: "ShowNative"},
		{
			Name: "ShowView",
			Args: []introspect.Arg{
				{Name: "name", Type: "s", Direction: "in"},
			},
		},
		{Name: "Minimize"},
		{Name: "Quit"},
		{
			Name: "Rebind",
			Args: []introspect.Arg{
				{Name: "accelerator", Type: "s", Direction: "in"},
				{Name: "effective", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Version",
			Args: []introspect.Arg{
				{Name: "version", Type: "s", Direction: "out"},
			},
		},
		{Name: "ApplyUpdate"},
		{Name: "Relaunch"},
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "state", Type: "s", Direction: "out"},
				{Name: "view", Type: "s", Direction: "out"},
				{Name: "toggle", Type: "s", Direction: "out"},
				{Name: "update_available", Type: "b", Direction: "out"},
				{Name: "update_downloaded", Type: "b", Direction: "out"},
			},
		},
	}
}

// controlSignals returns the D-Bus signal introspection data.
func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{Name: SignalFocus},
		{Name: SignalRefresh},
		{
			Name: SignalViewChanged,
			Args: []introspect.Arg{
				{Name: "view", Type: "s"},
			},
		},
		{Name: SignalUpdateAvailable},
		{Name: SignalUpdateDownloaded},
	}
}
