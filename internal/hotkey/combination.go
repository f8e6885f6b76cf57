package hotkey

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Modifier is a platform-neutral modifier key.
type Modifier int

const (
	ModCtrl Modifier = iota
	ModAlt
	ModShift
	ModSuper
)

// String returns the canonical modifier name.
func (m Modifier) String() string {
	switch m {
	case ModCtrl:
		return "Ctrl"
	case ModAlt:
		return "Alt"
	case ModShift:
		return "Shift"
	case ModSuper:
		return "Super"
	default:
		return "unknown"
	}
}

// Combination is a parsed key chord: a set of modifiers plus exactly one key.
type Combination struct {
	Modifiers []Modifier // sorted, no duplicates
	Key       string     // canonical key name, e.g. "E", "F5", "Enter"
}

// String returns the canonical accelerator, e.g. "Ctrl+Shift+Q".
// Two accelerators that mean the same chord have the same String.
func (c Combination) String() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, m.String())
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// Has reports whether the combination includes the modifier.
func (c Combination) Has(m Modifier) bool {
	for _, have := range c.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// modifierAliases maps accelerator modifier spellings to modifiers for a GOOS.
// "Cmd" is the macOS command key; elsewhere it is the Super/Windows key, and
// CommandOrControl resolves to Ctrl.
func modifierAliases(goos string) map[string]Modifier {
	cmd := ModSuper
	cmdOrCtrl := ModCtrl
	if goos == "darwin" {
		cmdOrCtrl = ModSuper
	}
	return map[string]Modifier{
		"ctrl":             ModCtrl,
		"control":          ModCtrl,
		"alt":              ModAlt,
		"option":           ModAlt,
		"altgr":            ModAlt,
		"shift":            ModShift,
		"super":            ModSuper,
		"meta":             ModSuper,
		"win":              ModSuper,
		"cmd":              cmd,
		"command":          cmd,
		"cmdorctrl":        cmdOrCtrl,
		"commandorcontrol": cmdOrCtrl,
	}
}

var keyAliases = map[string]string{
	"enter":     "Enter",
	"return":    "Enter",
	"escape":    "Escape",
	"esc":       "Escape",
	"space":     "Space",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
}

// Parse parses an accelerator such as "CommandOrControl+Shift+R" for the
// running platform.
func Parse(accel string) (Combination, error) {
	return ParseFor(runtime.GOOS, accel)
}

// ParseFor parses an accelerator using the modifier conventions of goos.
func ParseFor(goos, accel string) (Combination, error) {
	accel = strings.TrimSpace(accel)
	if accel == "" {
		return Combination{}, fmt.Errorf("empty accelerator")
	}

	aliases := modifierAliases(goos)
	parts := strings.Split(accel, "+")

	seen := make(map[Modifier]bool)
	var c Combination
	for i, raw := range parts {
		part := strings.TrimSpace(raw)
		if part == "" {
			return Combination{}, fmt.Errorf("invalid accelerator %q: empty component", accel)
		}
		last := i == len(parts)-1

		if m, ok := aliases[strings.ToLower(part)]; ok {
			if last {
				return Combination{}, fmt.Errorf("invalid accelerator %q: missing key", accel)
			}
			if !seen[m] {
				seen[m] = true
				c.Modifiers = append(c.Modifiers, m)
			}
			continue
		}

		if !last {
			return Combination{}, fmt.Errorf("invalid accelerator %q: unknown modifier %q", accel, part)
		}
		key, err := parseKey(part)
		if err != nil {
			return Combination{}, fmt.Errorf("invalid accelerator %q: %w", accel, err)
		}
		c.Key = key
	}

	sort.Slice(c.Modifiers, func(i, j int) bool { return c.Modifiers[i] < c.Modifiers[j] })
	return c, nil
}

// MustParse is like Parse but panics on error. Intended for constants in tests.
func MustParse(accel string) Combination {
	c, err := Parse(accel)
	if err != nil {
		panic(err)
	}
	return c
}

// Canonical returns the canonical form of accel, or accel unchanged if it
// does not parse.
func Canonical(accel string) string {
	c, err := Parse(accel)
	if err != nil {
		return accel
	}
	return c.String()
}

func parseKey(s string) (string, error) {
	if k, ok := keyAliases[strings.ToLower(s)]; ok {
		return k, nil
	}

	if len(s) == 1 {
		r := s[0]
		switch {
		case r >= 'a' && r <= 'z':
			return strings.ToUpper(s), nil
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return s, nil
		}
	}

	upper := strings.ToUpper(s)
	if strings.HasPrefix(upper, "F") && len(upper) <= 3 {
		var n int
		if _, err := fmt.Sscanf(upper[1:], "%d", &n); err == nil && n >= 1 && n <= 24 &&
			fmt.Sprintf("F%d", n) == upper {
			return upper, nil
		}
	}

	return "", fmt.Errorf("unknown key %q", s)
}
