//go:build linux && x11

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jmylchreest/summon/internal/hotkey"
	"github.com/jmylchreest/summon/internal/hotkey/x11"
)

// hotkeyBackend grabs keys on the X server in a plain X11 session and falls
// back to the portal under Wayland.
func hotkeyBackend(ctx context.Context, logger *slog.Logger) (hotkey.Backend, func()) {
	if os.Getenv("DISPLAY") != "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		logger.Info("using X11 key grabs")
		return x11.NewBackend(logger), func() {}
	}
	return portalBackend(ctx, logger)
}
