package geometry

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultPointerTimeout bounds a single pointer query.
const DefaultPointerTimeout = 500 * time.Millisecond

// CommandPointer asks an external program for the pointer position. Wayland
// does not expose the global pointer to clients, so compositor tools such as
// "hyprctl cursorpos" fill the gap. The program prints "x, y" or "x y".
type CommandPointer struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

// NewCommandPointer creates a locator running command through sh -c.
// An empty command reports the pointer as unknown.
func NewCommandPointer(command string, logger *slog.Logger) *CommandPointer {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandPointer{
		command: strings.TrimSpace(command),
		timeout: DefaultPointerTimeout,
		logger:  logger,
	}
}

// Pointer implements PointerLocator.
func (c *CommandPointer) Pointer() (Point, bool) {
	if c.command == "" {
		return Point{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "sh", "-c", c.command).Output()
	if err != nil {
		c.logger.Debug("pointer command failed", "command", c.command, "error", err)
		return Point{}, false
	}

	p, err := ParsePoint(string(out))
	if err != nil {
		c.logger.Debug("unexpected pointer command output", "command", c.command, "error", err)
		return Point{}, false
	}
	return p, true
}

// ParsePoint parses "x, y", "x,y" or "x y". Fractional values are truncated.
func ParsePoint(s string) (Point, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("invalid point %q", strings.TrimSpace(s))
	}

	var coords [2]int
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Point{}, fmt.Errorf("invalid coordinate %q: %w", f, err)
		}
		coords[i] = int(v)
	}
	return Point{X: coords[0], Y: coords[1]}, nil
}
