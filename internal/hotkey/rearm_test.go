package hotkey

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackInjector feeds the injected combination back into the backend, the
// way a real keyboard hook would see its own synthetic events.
type loopbackInjector struct {
	backend  *fakeBackend
	mu       sync.Mutex
	injected []string
	echoed   int
	during   func()
	err      error
}

func (i *loopbackInjector) Inject(c Combination) error {
	i.mu.Lock()
	i.injected = append(i.injected, c.String())
	i.mu.Unlock()

	if i.backend.Press(c.String()) {
		i.echoed++
	}
	if i.during != nil {
		i.during()
	}
	return i.err
}

func (i *loopbackInjector) Injected() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.injected...)
}

func TestNewRearmer_Validation(t *testing.T) {
	reg := NewRegistry(newFakeBackend(), nil, nil)

	_, err := NewRearmer(reg, &loopbackInjector{}, "Bogus+", "Ctrl+Enter", nil)
	assert.Error(t, err)
	_, err = NewRearmer(reg, &loopbackInjector{}, "Enter", "", nil)
	assert.Error(t, err)
	_, err = NewRearmer(reg, &loopbackInjector{}, "Return", "Enter", nil)
	assert.Error(t, err)
}

func TestRearmer_SingleInjectionAndRearm(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	inj := &loopbackInjector{backend: backend}

	r, err := NewRearmer(reg, inj, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)
	assert.Equal(t, Disarmed, r.State())

	require.True(t, r.Arm())
	assert.Equal(t, Armed, r.State())

	require.True(t, backend.Press("Enter"))

	assert.Equal(t, []string{"Ctrl+Enter"}, inj.Injected())
	assert.Equal(t, Armed, r.State())
	assert.True(t, reg.IsRegistered("Enter"))
}

func TestRearmer_TriggerUnboundWhileInjecting(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	inj := &loopbackInjector{backend: backend}

	var boundDuring bool
	inj.during = func() {
		boundDuring = reg.IsRegistered("Enter")
		// A synthetic press of the trigger itself must not reach the hook.
		if backend.Press("Enter") {
			inj.echoed++
		}
	}

	r, err := NewRearmer(reg, inj, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)
	require.True(t, r.Arm())

	backend.Press("Enter")
	backend.Press("Enter")

	assert.False(t, boundDuring)
	assert.Equal(t, 0, inj.echoed)
	assert.Len(t, inj.Injected(), 2)
	assert.Equal(t, Armed, r.State())
}

func TestRearmer_InjectionErrorStillRearms(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	inj := &loopbackInjector{backend: backend, err: errors.New("no uinput")}

	r, err := NewRearmer(reg, inj, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)
	require.True(t, r.Arm())

	backend.Press("Enter")
	assert.Equal(t, Armed, r.State())
	assert.True(t, reg.IsRegistered("Enter"))
}

func TestRearmer_DisarmDuringInjection(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)
	inj := &loopbackInjector{backend: backend}

	r, err := NewRearmer(reg, inj, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)

	done := make(chan struct{})
	inj.during = func() {
		go func() {
			r.Disarm()
			close(done)
		}()
	}

	require.True(t, r.Arm())
	backend.Press("Enter")
	<-done

	assert.Equal(t, Disarmed, r.State())
	assert.False(t, reg.IsRegistered("Enter"))
	assert.False(t, backend.Press("Enter"))
	assert.Len(t, inj.Injected(), 1)
}

func TestRearmer_ScopeInterface(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	r, err := NewRearmer(reg, &loopbackInjector{backend: backend}, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, r.Activate())
		r.Deactivate()
	}
	assert.Empty(t, reg.Active())

	denied := NewRegistry(newFakeBackend("Enter"), nil, nil)
	r2, err := NewRearmer(denied, &loopbackInjector{backend: backend}, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r2.Activate())
	assert.Equal(t, Disarmed, r2.State())
}

func TestRearmer_DoesNotTakeOverForeignTrigger(t *testing.T) {
	backend := newFakeBackend()
	reg := NewRegistry(backend, nil, nil)

	toggles := 0
	require.True(t, reg.Register("Enter", func() { toggles++ }))

	inj := &loopbackInjector{backend: backend}
	r, err := NewRearmer(reg, inj, "Enter", "Ctrl+Enter", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, r.Activate())
	assert.Equal(t, Disarmed, r.State())

	r.Deactivate()
	assert.True(t, backend.Press("Enter"))
	assert.Equal(t, 1, toggles)
	assert.Empty(t, inj.Injected())
}
