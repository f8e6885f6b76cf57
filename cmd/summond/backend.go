//go:build !x11

package main

import (
	"context"
	"log/slog"

	"github.com/jmylchreest/summon/internal/hotkey"
)

func hotkeyBackend(ctx context.Context, logger *slog.Logger) (hotkey.Backend, func()) {
	return portalBackend(ctx, logger)
}
