package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmylchreest/summon/internal/hotkey"
	"github.com/jmylchreest/summon/internal/hotkey/portal"
)

// portalConnectTimeout bounds session creation; binding has its own timeout.
const portalConnectTimeout = 10 * time.Second

// portalBackend binds through the GlobalShortcuts portal. Without a portal
// every grab fails and the hotkeys are reported unavailable.
func portalBackend(ctx context.Context, logger *slog.Logger) (hotkey.Backend, func()) {
	ctx, cancel := context.WithTimeout(ctx, portalConnectTimeout)
	defer cancel()

	var backend *portal.Backend
	session, err := portal.Connect(ctx, appID, func(id string) { backend.Activated(id) }, logger)
	if err != nil {
		logger.Warn("global shortcuts portal unavailable", "error", err)
		return hotkey.Unavailable{Reason: err}, func() {}
	}
	backend = portal.NewBackend(session, logger)
	logger.Info("using global shortcuts portal")
	return backend, func() { _ = session.Close() }
}
