package portal

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/summon/internal/hotkey"
)

type fakeSession struct {
	binds [][]Shortcut
	err   error
}

func (s *fakeSession) Bind(shortcuts []Shortcut) error {
	if s.err != nil {
		return s.err
	}
	s.binds = append(s.binds, append([]Shortcut(nil), shortcuts...))
	return nil
}

func (s *fakeSession) last() []string {
	if len(s.binds) == 0 {
		return nil
	}
	var ids []string
	for _, sc := range s.binds[len(s.binds)-1] {
		ids = append(ids, sc.ID)
	}
	return ids
}

func TestTrigger(t *testing.T) {
	tests := []struct {
		accel string
		want  string
	}{
		{"Super+E", "LOGO+e"},
		{"Cmd+Shift+Q", "SHIFT+LOGO+q"},
		{"Ctrl+Alt+Space", "CTRL+ALT+space"},
		{"Enter", "Return"},
		{"Backspace", "BackSpace"},
		{"F5", "F5"},
		{"Super+0", "LOGO+0"},
	}
	for _, tt := range tests {
		t.Run(tt.accel, func(t *testing.T) {
			got, err := Trigger(hotkey.MustParse(tt.accel))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortcutID(t *testing.T) {
	assert.Equal(t, "shift-super-q", ShortcutID(hotkey.MustParse("Cmd+Shift+Q")))
	assert.Equal(t, "f5", ShortcutID(hotkey.MustParse("F5")))
}

func TestBackend_GrabRebindsWholeSet(t *testing.T) {
	session := &fakeSession{}
	b := NewBackend(session, nil)
	reg := hotkey.NewRegistry(b, nil, nil)

	require.True(t, reg.Register("Super+E", func() {}))
	require.True(t, reg.Register("F5", func() {}))
	assert.Equal(t, []string{"f5", "super-e"}, session.last())

	first := session.binds[0][0]
	assert.Equal(t, "LOGO+e", first.Trigger)
	assert.Equal(t, "summon Super+E", first.Description)

	reg.Unregister("F5")
	assert.Equal(t, []string{"super-e"}, session.last())
	assert.Equal(t, []string{"super-e"}, b.Bound())
}

func TestBackend_Activated(t *testing.T) {
	b := NewBackend(&fakeSession{}, nil)
	reg := hotkey.NewRegistry(b, nil, nil)

	toggles := 0
	require.True(t, reg.Register("Super+E", func() { toggles++ }))

	b.Activated("super-e")
	b.Activated("unknown")
	assert.Equal(t, 1, toggles)

	reg.Unregister("Super+E")
	b.Activated("super-e")
	assert.Equal(t, 1, toggles)
}

func TestBackend_BindFailureKeepsPreviousSet(t *testing.T) {
	session := &fakeSession{}
	b := NewBackend(session, nil)
	reg := hotkey.NewRegistry(b, nil, nil)
	require.True(t, reg.Register("Super+E", func() {}))

	session.err = ErrCancelled
	assert.False(t, reg.Register("F5", func() {}))
	assert.Equal(t, []string{"super-e"}, b.Bound())
	assert.Equal(t, []string{"Super+E"}, reg.Active())
}

func TestBackend_StaleReleaseKeepsRegrab(t *testing.T) {
	session := &fakeSession{}
	b := NewBackend(session, nil)

	combo := hotkey.MustParse("F5")
	old, err := b.Grab(combo, func() {})
	require.NoError(t, err)

	fired := 0
	_, err = b.Grab(combo, func() { fired++ })
	require.NoError(t, err)

	require.NoError(t, old.Release())
	assert.Equal(t, []string{"f5"}, b.Bound())
	b.Activated("f5")
	assert.Equal(t, 1, fired)
}

func TestBackend_UnsupportedKey(t *testing.T) {
	b := NewBackend(&fakeSession{}, nil)
	_, err := b.Grab(hotkey.Combination{Key: "Pause"}, func() {})
	assert.Error(t, err)
}

func TestRequestPath(t *testing.T) {
	assert.Equal(t,
		dbus.ObjectPath("/org/freedesktop/portal/desktop/request/1_42/summon7_1"),
		requestPath(":1.42", "summon7_1"))
}

func TestParseResponse(t *testing.T) {
	r, ok := parseResponse([]interface{}{uint32(0), map[string]dbus.Variant{
		"session_handle": dbus.MakeVariant("/org/freedesktop/portal/desktop/session/1_42/s"),
	}})
	require.True(t, ok)
	assert.Equal(t, uint32(0), r.code)

	handle, ok := sessionHandle(r.results)
	require.True(t, ok)
	assert.Equal(t, dbus.ObjectPath("/org/freedesktop/portal/desktop/session/1_42/s"), handle)

	_, ok = parseResponse([]interface{}{"nope"})
	assert.False(t, ok)

	_, ok = sessionHandle(map[string]dbus.Variant{})
	assert.False(t, ok)
}

func TestParseActivated(t *testing.T) {
	session := dbus.ObjectPath("/org/freedesktop/portal/desktop/session/1_42/s")
	body := []interface{}{session, "super-e", uint64(1234), map[string]dbus.Variant{}}

	id, ok := parseActivated(body, session)
	require.True(t, ok)
	assert.Equal(t, "super-e", id)

	_, ok = parseActivated(body, "/other")
	assert.False(t, ok)
	_, ok = parseActivated(body, "")
	assert.False(t, ok)
	_, ok = parseActivated([]interface{}{session}, session)
	assert.False(t, ok)
}

func TestBackend_BindErrorLeavesNothingBound(t *testing.T) {
	session := &fakeSession{err: errors.New("no portal")}
	b := NewBackend(session, nil)
	_, err := b.Grab(hotkey.MustParse("Super+E"), func() {})
	assert.ErrorContains(t, err, "no portal")
	assert.Empty(t, b.Bound())
}
