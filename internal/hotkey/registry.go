// Package hotkey owns the process-wide table of global key bindings.
package hotkey

import (
	"log/slog"
	"sort"
	"sync"
)

// Grab is an OS-level global key grab returned by a Backend.
type Grab interface {
	Release() error
}

// Backend installs global key listeners. fire may be called from any goroutine.
// Grab returns an error when the OS refuses the combination, for example
// because another application already owns it.
type Backend interface {
	Grab(c Combination, fire func()) (Grab, error)
}

// Dispatcher runs fn on the application's event loop.
type Dispatcher func(fn func())

// Immediate runs fn on the calling goroutine.
func Immediate(fn func()) { fn() }

type binding struct {
	combo   Combination
	handler func()
	grab    Grab
}

// Registry maps canonical combinations to handlers. It is the only owner of
// the binding table; everything else goes through its methods.
type Registry struct {
	mu       sync.Mutex
	backend  Backend
	dispatch Dispatcher
	logger   *slog.Logger
	bindings map[string]*binding
}

// NewRegistry creates a registry on top of backend. A nil dispatch runs
// handlers on the backend's goroutine.
func NewRegistry(backend Backend, dispatch Dispatcher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if dispatch == nil {
		dispatch = Immediate
	}
	return &Registry{
		backend:  backend,
		dispatch: dispatch,
		logger:   logger,
		bindings: make(map[string]*binding),
	}
}

// Register binds accel to handler. A combination that is already bound is
// unbound first, so the new handler replaces the old one. Returns false if the
// accelerator is invalid or the OS denies the grab.
func (r *Registry) Register(accel string, handler func()) bool {
	combo, err := Parse(accel)
	if err != nil {
		r.logger.Warn("invalid hotkey", "accelerator", accel, "error", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.registerLocked(combo, handler) != nil
}

// Claim binds accel to handler only if the combination is free. The returned
// release func removes the binding while it is still the one Claim installed,
// and does nothing once it has been replaced or removed by someone else.
func (r *Registry) Claim(accel string, handler func()) (release func(), ok bool) {
	combo, err := Parse(accel)
	if err != nil {
		r.logger.Warn("invalid hotkey", "accelerator", accel, "error", err)
		return nil, false
	}
	key := combo.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bindings[key]; exists {
		r.logger.Debug("hotkey already bound, not claiming", "combination", key)
		return nil, false
	}
	b := r.registerLocked(combo, handler)
	if b == nil {
		return nil, false
	}
	return func() { r.releaseIf(key, b) }, true
}

func (r *Registry) registerLocked(combo Combination, handler func()) *binding {
	key := combo.String()

	if old, exists := r.bindings[key]; exists {
		delete(r.bindings, key)
		r.releaseLocked(old)
	}

	b := &binding{combo: combo, handler: handler}
	grab, err := r.backend.Grab(combo, func() { r.fire(key, b) })
	if err != nil {
		r.logger.Warn("failed to register hotkey", "combination", key, "error", err)
		return nil
	}
	b.grab = grab
	r.bindings[key] = b

	r.logger.Debug("registered hotkey", "combination", key)
	return b
}

// releaseIf removes key only while it still maps to b.
func (r *Registry) releaseIf(key string, b *binding) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, exists := r.bindings[key]; !exists || current != b {
		return
	}
	delete(r.bindings, key)
	r.releaseLocked(b)

	r.logger.Debug("unregistered hotkey", "combination", key)
}

// Unregister removes the binding for accel. It is a no-op if nothing is bound.
func (r *Registry) Unregister(accel string) {
	key := Canonical(accel)

	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.bindings[key]
	if !exists {
		return
	}
	delete(r.bindings, key)
	r.releaseLocked(b)

	r.logger.Debug("unregistered hotkey", "combination", key)
}

// UnregisterAll releases every grab. Called once at teardown.
func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, b := range r.bindings {
		delete(r.bindings, key)
		r.releaseLocked(b)
	}
	r.logger.Debug("unregistered all hotkeys")
}

// IsRegistered reports whether accel is currently bound.
func (r *Registry) IsRegistered(accel string) bool {
	key := Canonical(accel)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.bindings[key]
	return exists
}

// Active returns the canonical combinations currently bound, sorted.
func (r *Registry) Active() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.bindings))
	for key := range r.bindings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) releaseLocked(b *binding) {
	if b.grab == nil {
		return
	}
	if err := b.grab.Release(); err != nil {
		r.logger.Debug("failed to release hotkey", "combination", b.combo.String(), "error", err)
	}
}

// fire delivers a key press on the event loop. The binding is looked up again
// at delivery so a press queued before Unregister or a replacement is dropped.
func (r *Registry) fire(key string, b *binding) {
	r.dispatch(func() {
		r.mu.Lock()
		current, exists := r.bindings[key]
		r.mu.Unlock()

		if !exists || current != b {
			r.logger.Debug("dropped stale hotkey event", "combination", key)
			return
		}
		b.handler()
	})
}
