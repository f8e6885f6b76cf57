package dbus

import (
	"fmt"
)

func (s *ControlServer) emit(name string, args ...interface{}) error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	if err := conn.Emit(DBusPath, DBusInterface+"."+name, args...); err != nil {
		return fmt.Errorf("failed to emit %s signal: %w", name, err)
	}
	s.logger.Debug("emitted signal", "signal", name)
	return nil
}

func (s *ControlServer) emitLogged(name string, args ...interface{}) {
	if err := s.emit(name, args...); err != nil {
		s.logger.Debug("signal not delivered", "signal", name, "error", err)
	}
}

// Focus tells the UI to focus its input.
func (s *ControlServer) Focus() { s.emitLogged(SignalFocus) }

// Refresh tells the UI to reload.
func (s *ControlServer) Refresh() { s.emitLogged(SignalRefresh) }

// ViewChanged tells the UI which view is in the foreground.
func (s *ControlServer) ViewChanged(name string) { s.emitLogged(SignalViewChanged, name) }

// UpdateAvailable tells the UI that an update is being downloaded.
func (s *ControlServer) UpdateAvailable() { s.emitLogged(SignalUpdateAvailable) }

// UpdateDownloaded tells the UI that an update is ready to install.
func (s *ControlServer) UpdateDownloaded() { s.emitLogged(SignalUpdateDownloaded) }
