package window

import "runtime"

// Policy lists the platform behaviours used when hiding the overlay.
type Policy struct {
	// HideApplication hides the whole application after the window, so focus
	// returns to the previously active application (macOS).
	HideApplication bool
	// HideDock keeps the application out of the dock.
	HideDock bool
	// MinimizeBeforeHide minimizes the window before hiding it so the window
	// manager hands focus back to the previous window.
	MinimizeBeforeHide bool
	// SkipTaskbar keeps the window out of the taskbar and window switchers.
	SkipTaskbar bool
}

var policies = map[string]Policy{
	"darwin": {
		HideApplication: true,
		HideDock:        true,
	},
	"linux": {
		MinimizeBeforeHide: true,
		SkipTaskbar:        true,
	},
	"windows": {
		MinimizeBeforeHide: true,
		SkipTaskbar:        true,
	},
}

// PolicyFor returns the hide policy for goos. Unknown platforms get the Linux
// behaviour.
func PolicyFor(goos string) Policy {
	if p, ok := policies[goos]; ok {
		return p
	}
	return policies["linux"]
}

// CurrentPolicy returns the hide policy for the running platform.
func CurrentPolicy() Policy {
	return PolicyFor(runtime.GOOS)
}
