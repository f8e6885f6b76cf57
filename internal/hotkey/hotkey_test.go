package hotkey

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records grabs by canonical combination and lets tests press keys.
type fakeBackend struct {
	mu     sync.Mutex
	grabs  map[string]func()
	denied map[string]bool
	total  int
}

func newFakeBackend(denied ...string) *fakeBackend {
	b := &fakeBackend{grabs: make(map[string]func()), denied: make(map[string]bool)}
	for _, d := range denied {
		b.denied[Canonical(d)] = true
	}
	return b
}

type fakeGrab struct {
	backend *fakeBackend
	key     string
}

func (g *fakeGrab) Release() error {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	delete(g.backend.grabs, g.key)
	return nil
}

func (b *fakeBackend) Grab(c Combination, fire func()) (Grab, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := c.String()
	if b.denied[key] {
		return nil, errors.New("already grabbed by another client")
	}
	if _, exists := b.grabs[key]; exists {
		return nil, errors.New("double grab")
	}
	b.grabs[key] = fire
	b.total++
	return &fakeGrab{backend: b, key: key}, nil
}

// Press simulates the user pressing accel. Returns false if nothing is grabbed.
func (b *fakeBackend) Press(accel string) bool {
	b.mu.Lock()
	fire, ok := b.grabs[Canonical(accel)]
	b.mu.Unlock()
	if !ok {
		return false
	}
	fire()
	return true
}

func (b *fakeBackend) Grabbed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.grabs)
}

func TestParse(t *testing.T) {
	tests := []struct {
		accel string
		want  string
	}{
		{"Ctrl+R", "Ctrl+R"},
		{"control+r", "Ctrl+R"},
		{"CommandOrControl+R", "Ctrl+R"},
		{"CmdOrCtrl+Shift+q", "Ctrl+Shift+Q"},
		{"Shift+Alt+Ctrl+x", "Ctrl+Alt+Shift+X"},
		{"Cmd+E", "Super+E"},
		{"Super+0", "Super+0"},
		{"F5", "F5"},
		{"f12", "F12"},
		{"Return", "Enter"},
		{"Esc", "Escape"},
		{" Ctrl + Enter ", "Ctrl+Enter"},
	}

	for _, tt := range tests {
		t.Run(tt.accel, func(t *testing.T) {
			c, err := ParseFor("linux", tt.accel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.String())
		})
	}
}

func TestParse_Darwin(t *testing.T) {
	c, err := ParseFor("darwin", "CommandOrControl+R")
	require.NoError(t, err)
	assert.True(t, c.Has(ModSuper))
	assert.False(t, c.Has(ModCtrl))
}

func TestParse_Invalid(t *testing.T) {
	for _, accel := range []string{"", "Ctrl+", "Ctrl", "Hyper+A", "Ctrl+A+B", "Ctrl+F25", "Ctrl+Ü"} {
		t.Run(accel, func(t *testing.T) {
			_, err := ParseFor("linux", accel)
			assert.Error(t, err)
		})
	}
}

func TestRegistry_RegisterAndPress(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	calls := 0
	require.True(t, reg.Register("Ctrl+R", func() { calls++ }))
	assert.True(t, reg.IsRegistered("CommandOrControl+R"))

	assert.True(t, backend.Press("Ctrl+R"))
	assert.Equal(t, 1, calls)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	var got []string
	require.True(t, reg.Register("Ctrl+R", func() { got = append(got, "first") }))
	require.True(t, reg.Register("CmdOrCtrl+R", func() { got = append(got, "second") }))

	assert.Equal(t, 1, backend.Grabbed())
	backend.Press("Ctrl+R")
	assert.Equal(t, []string{"second"}, got)
}

func TestRegistry_RegisterFailure(t *testing.T) {
	backend := newFakeBackend("Super+E")
	reg := NewRegistry(backend, nil, nil)

	assert.False(t, reg.Register("Super+E", func() {}))
	assert.False(t, reg.Register("NotAKey", func() {}))
	assert.Empty(t, reg.Active())
}

func TestRegistry_Unregister(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	require.True(t, reg.Register("F5", func() {}))
	reg.Unregister("F5")
	reg.Unregister("F5")
	reg.Unregister("Ctrl+Q")

	assert.False(t, reg.IsRegistered("F5"))
	assert.Equal(t, 0, backend.Grabbed())
}

func TestRegistry_UnregisterAll(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	reg.Register("Super+E", func() {})
	reg.Register("Ctrl+R", func() {})
	reg.Register("F5", func() {})
	assert.Equal(t, []string{"Ctrl+R", "F5", "Super+E"}, reg.Active())

	reg.UnregisterAll()
	assert.Empty(t, reg.Active())
	assert.Equal(t, 0, backend.Grabbed())
}

func TestRegistry_StaleEventDropped(t *testing.T) {
	backend := newFakeBackend()
	var queue []func()
	reg := NewRegistry(backend, func(fn func()) { queue = append(queue, fn) }, nil)

	calls := 0
	require.True(t, reg.Register("F5", func() { calls++ }))
	backend.Press("F5")
	require.Len(t, queue, 1)

	reg.Unregister("F5")
	for _, fn := range queue {
		fn()
	}
	assert.Equal(t, 0, calls)
}

func TestRegistry_StaleEventAfterReplaceDropped(t *testing.T) {
	backend := newFakeBackend()
	var queue []func()
	reg := NewRegistry(backend, func(fn func()) { queue = append(queue, fn) }, nil)

	var got []string
	reg.Register("F5", func() { got = append(got, "old") })
	backend.Press("F5")
	reg.Register("F5", func() { got = append(got, "new") })
	backend.Press("F5")

	for _, fn := range queue {
		fn()
	}
	assert.Equal(t, []string{"new"}, got)
}

func TestBatch_ActivateDeactivate(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	refreshes := 0
	refresh := func() { refreshes++ }
	batch := NewBatch(reg,
		Binding{Accelerator: "CommandOrControl+R", Handler: refresh},
		Binding{Accelerator: "F5", Handler: refresh},
	)

	assert.Equal(t, 2, batch.Activate())
	assert.Equal(t, 0, batch.Activate())
	assert.True(t, batch.Active())

	backend.Press("F5")
	backend.Press("Ctrl+R")
	assert.Equal(t, 2, refreshes)

	batch.Deactivate()
	assert.False(t, batch.Active())
	assert.False(t, backend.Press("F5"))
	assert.Empty(t, reg.Active())
}

func TestBatch_FlappingLeavesNoResidue(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	require.True(t, reg.Register("Super+E", func() {}))

	batch := NewBatch(reg,
		Binding{Accelerator: "CommandOrControl+R", Handler: func() {}},
		Binding{Accelerator: "F5", Handler: func() {}},
	)

	for i := 0; i < 50; i++ {
		batch.Activate()
		if i%3 == 0 {
			batch.Activate()
		}
		batch.Deactivate()
		if i%5 == 0 {
			batch.Deactivate()
		}
	}

	assert.Equal(t, []string{"Super+E"}, reg.Active())
	assert.Equal(t, 1, backend.Grabbed())
}

func TestBatch_PartialDenial(t *testing.T) {
	backend := newFakeBackend("F5")
	reg := NewRegistry(backend, nil, nil)

	batch := NewBatch(reg,
		Binding{Accelerator: "Ctrl+R", Handler: func() {}},
		Binding{Accelerator: "F5", Handler: func() {}},
	)
	assert.Equal(t, 1, batch.Activate())

	batch.Deactivate()
	assert.Empty(t, reg.Active())
}

func TestRegistry_Claim(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	require.True(t, reg.Register("F5", func() {}))

	_, ok := reg.Claim("F5", func() {})
	assert.False(t, ok, "claim must not replace an existing binding")

	_, ok = reg.Claim("Bogus+", func() {})
	assert.False(t, ok)

	release, ok := reg.Claim("Ctrl+R", func() {})
	require.True(t, ok)
	assert.Equal(t, []string{"Ctrl+R", "F5"}, reg.Active())

	release()
	release()
	assert.Equal(t, []string{"F5"}, reg.Active())
}

func TestRegistry_ClaimReleaseAfterReplacement(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	release, ok := reg.Claim("F5", func() {})
	require.True(t, ok)

	replaced := 0
	require.True(t, reg.Register("F5", func() { replaced++ }))

	release()
	assert.True(t, reg.IsRegistered("F5"))
	assert.True(t, backend.Press("F5"))
	assert.Equal(t, 1, replaced)
}

func TestBatch_LeavesForeignBindingAlone(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	toggles := 0
	require.True(t, reg.Register("F5", func() { toggles++ }))

	refreshes := 0
	batch := NewBatch(reg,
		Binding{Accelerator: "Ctrl+R", Handler: func() { refreshes++ }},
		Binding{Accelerator: "F5", Handler: func() { refreshes++ }},
	)

	assert.Equal(t, 1, batch.Activate())
	backend.Press("F5")
	assert.Equal(t, 1, toggles)
	assert.Equal(t, 0, refreshes)

	batch.Deactivate()
	assert.Equal(t, []string{"F5"}, reg.Active())
	assert.True(t, backend.Press("F5"))
	assert.Equal(t, 2, toggles)
}

func TestBatch_DeactivateKeepsReplacement(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	batch := NewBatch(reg, Binding{Accelerator: "F5", Handler: func() {}})
	require.Equal(t, 1, batch.Activate())

	toggles := 0
	require.True(t, reg.Register("F5", func() { toggles++ }))

	batch.Deactivate()
	assert.True(t, backend.Press("F5"))
	assert.Equal(t, 1, toggles)
}

func TestUnavailable(t *testing.T) {
	reg := NewRegistry(Unavailable{}, nil, nil)
	assert.False(t, reg.Register("Super+E", func() {}))
	assert.Empty(t, reg.Active())

	_, err := Unavailable{}.Grab(MustParse("F5"), func() {})
	assert.ErrorIs(t, err, ErrNoBackend)

	cause := errors.New("portal missing")
	_, err = Unavailable{Reason: cause}.Grab(MustParse("F5"), func() {})
	assert.ErrorIs(t, err, cause)
}
