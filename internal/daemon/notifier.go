package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/summon/internal/dbus"
)

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// SendFunc delivers a desktop notification.
type SendFunc func(n *dbus.Notification) (uint32, error)

// InternalNotifier tells the user about problems they would otherwise only
// see in the log, such as a toggle hotkey that another application owns.
// Repeats of the same notification are rate limited.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger

	send SendFunc

	// Rate limiting
	lastNotifyTime map[string]time.Time // key -> last notification time
	minInterval    time.Duration        // minimum time between same notifications
	now            func() time.Time
}

// NewInternalNotifier creates a new InternalNotifier that delivers through send.
func NewInternalNotifier(send SendFunc, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		send:           send,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    30 * time.Second,
		now:            time.Now,
	}
}

// Notify sends an internal notification if not rate-limited.
// The key is used for rate limiting - same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()
	if n.send == nil {
		n.mu.Unlock()
		return
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return
	}
	n.lastNotifyTime[key] = now
	send := n.send
	n.mu.Unlock()

	urgency := byte(1)
	icon := "dialog-warning"
	switch level {
	case NotificationLevelInfo:
		urgency = 0
		icon = "dialog-information"
	case NotificationLevelError:
		urgency = 2
		icon = "dialog-error"
	}

	notification := &dbus.Notification{
		AppName: "summon",
		AppIcon: icon,
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(urgency),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("summon"),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)
	if _, err := send(notification); err != nil {
		n.logger.Debug("internal notification failed", "key", key, "error", err)
	}
}

// NotifyHotkeyUnavailable reports a global hotkey that could not be grabbed.
func (n *InternalNotifier) NotifyHotkeyUnavailable(combination string) {
	n.Notify(
		"hotkey:"+combination,
		"Hotkey Unavailable",
		combination+" is already in use by another application.",
		NotificationLevelWarning,
	)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"summon configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyUpdateDownloaded tells the user an update is ready to install.
func (n *InternalNotifier) NotifyUpdateDownloaded() {
	n.Notify(
		"update-downloaded",
		"Update Ready",
		"A new version of summon has been downloaded. Run 'summon update apply' to install it.",
		NotificationLevelInfo,
	)
}
