package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/summon/internal/dbus"
)

type sentLog struct {
	sent []*dbus.Notification
	err  error
}

func (l *sentLog) send(n *dbus.Notification) (uint32, error) {
	l.sent = append(l.sent, n)
	return uint32(len(l.sent)), l.err
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	log := &sentLog{}
	n := NewInternalNotifier(log.send, nil)

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	n.NotifyHotkeyUnavailable("Super+E")
	n.NotifyHotkeyUnavailable("Super+E")
	require.Len(t, log.sent, 1)

	// A different key is not limited.
	n.NotifyHotkeyUnavailable("Super+Shift+Q")
	require.Len(t, log.sent, 2)

	clock = clock.Add(31 * time.Second)
	n.NotifyHotkeyUnavailable("Super+E")
	assert.Len(t, log.sent, 3)
}

func TestInternalNotifier_MinInterval(t *testing.T) {
	log := &sentLog{}
	n := NewInternalNotifier(log.send, nil)
	n.minInterval = 0

	n.NotifyConfigReloaded()
	n.NotifyConfigReloaded()
	assert.Len(t, log.sent, 2)
}

func TestInternalNotifier_ConfigError(t *testing.T) {
	log := &sentLog{}
	n := NewInternalNotifier(log.send, nil)

	n.NotifyConfigError(errors.New("bad width"))
	require.Len(t, log.sent, 1)
	assert.Equal(t, "Failed to reload configuration: bad width", log.sent[0].Body)
}

func TestInternalNotifier_NilSend(t *testing.T) {
	n := NewInternalNotifier(nil, nil)
	assert.NotPanics(t, func() { n.NotifyUpdateDownloaded() })
}

func TestInternalNotifier_Levels(t *testing.T) {
	tests := []struct {
		level   NotificationLevel
		urgency byte
		icon    string
	}{
		{NotificationLevelInfo, 0, "dialog-information"},
		{NotificationLevelWarning, 1, "dialog-warning"},
		{NotificationLevelError, 2, "dialog-error"},
	}

	for _, tt := range tests {
		log := &sentLog{}
		n := NewInternalNotifier(log.send, nil)
		n.Notify("key", "Summary", "Body", tt.level)

		require.Len(t, log.sent, 1)
		got := log.sent[0]
		assert.Equal(t, tt.icon, got.AppIcon)
		assert.Equal(t, tt.urgency, got.Hints["urgency"].Value())
		assert.Equal(t, true, got.Hints["transient"].Value())
		assert.Equal(t, "summon", got.AppName)
	}
}

func TestInternalNotifier_SendErrorIsLogged(t *testing.T) {
	log := &sentLog{err: errors.New("no notification daemon")}
	n := NewInternalNotifier(log.send, nil)

	assert.NotPanics(t, func() { n.NotifyUpdateDownloaded() })
	assert.Len(t, log.sent, 1)
}
