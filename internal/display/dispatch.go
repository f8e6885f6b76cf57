package display

import (
	"github.com/diamondburned/gotk4/pkg/glib/v2"
)

// Dispatch schedules fn on the GTK main loop. It satisfies hotkey.Dispatcher
// and tray.Dispatcher.
func Dispatch(fn func()) {
	glib.IdleAdd(fn)
}
