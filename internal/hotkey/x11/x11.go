//go:build linux && x11

// Package x11 grabs global hotkeys on an X server through
// golang.design/x/xhotkey. The package connects to the display when it is
// initialised, so only import it from binaries built with the x11 tag and
// only run them inside an X session.
package x11

import (
	"fmt"
	"log/slog"
	"sync"

	xhotkey "golang.design/x/hotkey"

	"github.com/jmylchreest/summon/internal/hotkey"
)

// Backend grabs combinations with XGrabKey.
type Backend struct {
	logger *slog.Logger
}

// NewBackend creates the X11 hotkey backend.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{logger: logger}
}

type grab struct {
	hk   *xhotkey.Hotkey
	done chan struct{}
	once sync.Once
}

// Grab registers c with the X server and calls fire on every key-down.
func (b *Backend) Grab(c hotkey.Combination, fire func()) (hotkey.Grab, error) {
	mods, key, err := chord(c)
	if err != nil {
		return nil, err
	}

	hk := xhotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("grab %s: %w", c, err)
	}

	b.logger.Debug("grabbed key on X server", "combination", c.String())

	g := &grab{hk: hk, done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-g.done:
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				fire()
			}
		}
	}()
	return g, nil
}

// Release ungrabs the key and stops the listener goroutine.
func (g *grab) Release() error {
	var err error
	g.once.Do(func() {
		close(g.done)
		err = g.hk.Unregister()
	})
	return err
}

var modifiers = map[hotkey.Modifier]xhotkey.Modifier{
	hotkey.ModCtrl:  xhotkey.ModCtrl,
	hotkey.ModShift: xhotkey.ModShift,
	hotkey.ModAlt:   xhotkey.Mod1,
	hotkey.ModSuper: xhotkey.Mod4,
}

var keys = map[string]xhotkey.Key{
	"Enter":  xhotkey.KeyReturn,
	"Escape": xhotkey.KeyEscape,
	"Space":  xhotkey.KeySpace,
	"Tab":    xhotkey.KeyTab,
	"Delete": xhotkey.KeyDelete,
	"Up":     xhotkey.KeyUp,
	"Down":   xhotkey.KeyDown,
	"Left":   xhotkey.KeyLeft,
	"Right":  xhotkey.KeyRight,
	"F1":     xhotkey.KeyF1,
	"F2":     xhotkey.KeyF2,
	"F3":     xhotkey.KeyF3,
	"F4":     xhotkey.KeyF4,
	"F5":     xhotkey.KeyF5,
	"F6":     xhotkey.KeyF6,
	"F7":     xhotkey.KeyF7,
	"F8":     xhotkey.KeyF8,
	"F9":     xhotkey.KeyF9,
	"F10":    xhotkey.KeyF10,
	"F11":    xhotkey.KeyF11,
	"F12":    xhotkey.KeyF12,
}

// keysymBackspace is XK_BackSpace; the hotkey package has no constant for it.
const keysymBackspace = 0xff08

func chord(c hotkey.Combination) ([]xhotkey.Modifier, xhotkey.Key, error) {
	mods := make([]xhotkey.Modifier, 0, len(c.Modifiers))
	for _, m := range c.Modifiers {
		mods = append(mods, modifiers[m])
	}

	if k, ok := keys[c.Key]; ok {
		return mods, k, nil
	}
	if c.Key == "Backspace" {
		return mods, xhotkey.Key(keysymBackspace), nil
	}
	if len(c.Key) == 1 {
		// Latin-1 keysyms for letters are the lowercase code points; digits
		// are their ASCII values.
		r := c.Key[0]
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		return mods, xhotkey.Key(r), nil
	}
	return nil, 0, fmt.Errorf("key %q is not supported on X11", c.Key)
}
