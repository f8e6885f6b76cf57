// Package portal grabs global hotkeys through the XDG desktop portal's
// GlobalShortcuts interface, which works on Wayland compositors that do not
// allow clients to grab keys directly.
package portal

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jmylchreest/summon/internal/hotkey"
)

// Shortcut is one entry in the set bound with the portal.
type Shortcut struct {
	ID          string
	Description string
	Trigger     string // Preferred trigger in the shortcuts spec format, e.g. "LOGO+e"
}

// Session binds shortcuts with the portal. Bind replaces the whole set; the
// portal has no call for removing a single shortcut.
type Session interface {
	Bind(shortcuts []Shortcut) error
}

type entry struct {
	shortcut Shortcut
	fire     func()
}

// Backend implements hotkey.Backend on top of a portal session. Each Grab
// and Release rebinds the full set of shortcuts.
type Backend struct {
	mu      sync.Mutex
	session Session
	entries map[string]*entry
	logger  *slog.Logger
}

// NewBackend creates a backend that binds through session. Connect the
// session's activation signal to Activated.
func NewBackend(session Session, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		session: session,
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Grab adds c to the bound set. If the portal rejects the new set the
// previous one stays in effect.
func (b *Backend) Grab(c hotkey.Combination, fire func()) (hotkey.Grab, error) {
	trigger, err := Trigger(c)
	if err != nil {
		return nil, err
	}
	id := ShortcutID(c)
	e := &entry{
		shortcut: Shortcut{ID: id, Description: "summon " + c.String(), Trigger: trigger},
		fire:     fire,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	prev, existed := b.entries[id]
	b.entries[id] = e
	if err := b.session.Bind(b.shortcutsLocked()); err != nil {
		if existed {
			b.entries[id] = prev
		} else {
			delete(b.entries, id)
		}
		return nil, fmt.Errorf("bind %s: %w", c, err)
	}

	b.logger.Debug("bound portal shortcut", "id", id, "trigger", trigger)
	return &grab{backend: b, id: id, entry: e}, nil
}

// Activated delivers a shortcut activation from the portal.
func (b *Backend) Activated(id string) {
	b.mu.Lock()
	e := b.entries[id]
	b.mu.Unlock()

	if e == nil {
		b.logger.Debug("activation for unknown shortcut", "id", id)
		return
	}
	e.fire()
}

// Bound returns the IDs currently bound, sorted.
func (b *Backend) Bound() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	ids := make([]string, 0, len(b.entries))
	for id := range b.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (b *Backend) shortcutsLocked() []Shortcut {
	shortcuts := make([]Shortcut, 0, len(b.entries))
	for _, e := range b.entries {
		shortcuts = append(shortcuts, e.shortcut)
	}
	sort.Slice(shortcuts, func(i, j int) bool { return shortcuts[i].ID < shortcuts[j].ID })
	return shortcuts
}

type grab struct {
	backend *Backend
	id      string
	entry   *entry
	once    sync.Once
}

// Release removes the shortcut and rebinds the rest. A grab whose shortcut
// was grabbed again since is left alone.
func (g *grab) Release() error {
	var err error
	g.once.Do(func() {
		b := g.backend
		b.mu.Lock()
		defer b.mu.Unlock()

		if b.entries[g.id] != g.entry {
			return
		}
		delete(b.entries, g.id)
		if bindErr := b.session.Bind(b.shortcutsLocked()); bindErr != nil {
			err = fmt.Errorf("unbind %s: %w", g.id, bindErr)
		}
	})
	return err
}

// ShortcutID is the portal shortcut id for c, e.g. "shift-super-q".
func ShortcutID(c hotkey.Combination) string {
	return strings.ToLower(strings.ReplaceAll(c.String(), "+", "-"))
}

var portalModifiers = map[hotkey.Modifier]string{
	hotkey.ModCtrl:  "CTRL",
	hotkey.ModAlt:   "ALT",
	hotkey.ModShift: "SHIFT",
	hotkey.ModSuper: "LOGO",
}

// portalKeys maps key names to xkb keysym names.
var portalKeys = map[string]string{
	"Enter":     "Return",
	"Escape":    "Escape",
	"Space":     "space",
	"Tab":       "Tab",
	"Backspace": "BackSpace",
	"Delete":    "Delete",
	"Up":        "Up",
	"Down":      "Down",
	"Left":      "Left",
	"Right":     "Right",
}

// Trigger formats c in the shortcuts spec format used for preferred_trigger.
func Trigger(c hotkey.Combination) (string, error) {
	key, ok := portalKeys[c.Key]
	switch {
	case ok:
	case len(c.Key) == 1:
		key = strings.ToLower(c.Key)
	case strings.HasPrefix(c.Key, "F"):
		key = c.Key
	default:
		return "", fmt.Errorf("key %q is not supported by the shortcuts portal", c.Key)
	}

	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, portalModifiers[m])
	}
	parts = append(parts, key)
	return strings.Join(parts, "+"), nil
}
