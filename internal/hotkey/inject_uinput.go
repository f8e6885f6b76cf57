//go:build linux

package hotkey

import (
	"fmt"
	"time"

	"github.com/bendahl/uinput"
)

// DefaultSettle is how long Inject waits after the key-up so the synthetic
// events reach the focused client before the trigger is bound again.
const DefaultSettle = 30 * time.Millisecond

// UinputInjector types combinations through a virtual keyboard on /dev/uinput.
type UinputInjector struct {
	kb     uinput.Keyboard
	settle time.Duration
}

// NewUinputInjector creates the virtual keyboard device.
func NewUinputInjector(device string, settle time.Duration) (*UinputInjector, error) {
	kb, err := uinput.CreateKeyboard(device, []byte("summon-virtual-keyboard"))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard on %s: %w", device, err)
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &UinputInjector{kb: kb, settle: settle}, nil
}

var uinputModifiers = map[Modifier]int{
	ModCtrl:  uinput.KeyLeftctrl,
	ModAlt:   uinput.KeyLeftalt,
	ModShift: uinput.KeyLeftshift,
	ModSuper: uinput.KeyLeftmeta,
}

var uinputKeys = map[string]int{
	"A": uinput.KeyA, "B": uinput.KeyB, "C": uinput.KeyC, "D": uinput.KeyD,
	"E": uinput.KeyE, "F": uinput.KeyF, "G": uinput.KeyG, "H": uinput.KeyH,
	"I": uinput.KeyI, "J": uinput.KeyJ, "K": uinput.KeyK, "L": uinput.KeyL,
	"M": uinput.KeyM, "N": uinput.KeyN, "O": uinput.KeyO, "P": uinput.KeyP,
	"Q": uinput.KeyQ, "R": uinput.KeyR, "S": uinput.KeyS, "T": uinput.KeyT,
	"U": uinput.KeyU, "V": uinput.KeyV, "W": uinput.KeyW, "X": uinput.KeyX,
	"Y": uinput.KeyY, "Z": uinput.KeyZ,
	"0": uinput.Key0, "1": uinput.Key1, "2": uinput.Key2, "3": uinput.Key3,
	"4": uinput.Key4, "5": uinput.Key5, "6": uinput.Key6, "7": uinput.Key7,
	"8": uinput.Key8, "9": uinput.Key9,
	"Enter":     uinput.KeyEnter,
	"Escape":    uinput.KeyEsc,
	"Space":     uinput.KeySpace,
	"Tab":       uinput.KeyTab,
	"Backspace": uinput.KeyBackspace,
	"Delete":    uinput.KeyDelete,
	"Up":        uinput.KeyUp,
	"Down":      uinput.KeyDown,
	"Left":      uinput.KeyLeft,
	"Right":     uinput.KeyRight,
	"F1":        uinput.KeyF1,
	"F2":        uinput.KeyF2,
	"F3":        uinput.KeyF3,
	"F4":        uinput.KeyF4,
	"F5":        uinput.KeyF5,
	"F6":        uinput.KeyF6,
	"F7":        uinput.KeyF7,
	"F8":        uinput.KeyF8,
	"F9":        uinput.KeyF9,
	"F10":       uinput.KeyF10,
	"F11":       uinput.KeyF11,
	"F12":       uinput.KeyF12,
}

// Inject presses the modifiers, taps the key, then releases the modifiers in
// reverse order.
func (u *UinputInjector) Inject(c Combination) error {
	key, ok := uinputKeys[c.Key]
	if !ok {
		return fmt.Errorf("key %q cannot be injected", c.Key)
	}

	pressed := make([]int, 0, len(c.Modifiers))
	defer func() {
		for i := len(pressed) - 1; i >= 0; i-- {
			_ = u.kb.KeyUp(pressed[i])
		}
		time.Sleep(u.settle)
	}()

	for _, m := range c.Modifiers {
		code := uinputModifiers[m]
		if err := u.kb.KeyDown(code); err != nil {
			return fmt.Errorf("press %s: %w", m, err)
		}
		pressed = append(pressed, code)
	}

	if err := u.kb.KeyPress(key); err != nil {
		return fmt.Errorf("tap %s: %w", c.Key, err)
	}
	return nil
}

// Close destroys the virtual keyboard.
func (u *UinputInjector) Close() error {
	return u.kb.Close()
}
