package dbus

import (
	"errors"

	"github.com/godbus/dbus/v5"
)

const (
	// DBusInterface is the control interface name.
	DBusInterface = "io.github.jmylchreest.Summon"
	// DBusPath is the control object path.
	DBusPath = "/io/github/jmylchreest/Summon"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Summon"
)

// Signal names emitted on DBusInterface.
const (
	SignalFocus            = "Focus"
	SignalRefresh          = "Refresh"
	SignalViewChanged      = "ViewChanged"
	SignalUpdateAvailable  = "UpdateAvailable"
	SignalUpdateDownloaded = "UpdateDownloaded"
)

// Error names returned in method replies.
const (
	ErrorUnknownView     = DBusInterface + ".Error.UnknownView"
	ErrorViewUnavailable = DBusInterface + ".Error.ViewUnavailable"
	ErrorInvalidHotkey   = DBusInterface + ".Error.InvalidHotkey"
	ErrorNoUpdate        = DBusInterface + ".Error.NoUpdate"
	ErrorFailed          = DBusInterface + ".Error.Failed"
)

// Sentinel errors a Handler returns so the server can pick an error name.
var (
	ErrUnknownView     = errors.New("unknown view")
	ErrViewUnavailable = errors.New("view unavailable")
	ErrInvalidHotkey   = errors.New("invalid hotkey")
	ErrNoUpdate        = errors.New("no update to apply")
)

// Status is the daemon state reported by the Status method.
type Status struct {
	State            string // "hidden" or "visible"
	View             string // Foreground view slot
	Toggle           string // Effective toggle combination
	UpdateAvailable  bool
	UpdateDownloaded bool
}

// Handler carries out control requests. The daemon implements it.
type Handler interface {
	Toggle()
	ShowNative()
	ShowView(name string) error
	Minimize()
	Quit()
	Rebind(accel string) (string, error)
	AppVersion() string
	ApplyUpdate() error
	Relaunch() error
	Status() Status
}

// toDBusError maps a handler error to a D-Bus error reply.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	name := ErrorFailed
	switch {
	case errors.Is(err, ErrUnknownView):
		name = ErrorUnknownView
	case errors.Is(err, ErrViewUnavailable):
		name = ErrorViewUnavailable
	case errors.Is(err, ErrInvalidHotkey):
		name = ErrorInvalidHotkey
	case errors.Is(err, ErrNoUpdate):
		name = ErrorNoUpdate
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// Notification is an org.freedesktop.Notifications Notify request.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}
