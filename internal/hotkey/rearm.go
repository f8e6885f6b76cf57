package hotkey

import (
	"fmt"
	"log/slog"
	"sync"
)

// Injector synthesizes a key-down/key-up pair for a combination through the
// OS input facility. Inject returns once the events have been handed off.
type Injector interface {
	Inject(c Combination) error
}

// ArmState is the state of a Rearmer.
type ArmState int

const (
	// Disarmed means the trigger is not bound.
	Disarmed ArmState = iota
	// Armed means the trigger is bound and waiting.
	Armed
	// Injecting means the trigger fired and the target is being synthesized.
	// The trigger is unbound for the whole of this state.
	Injecting
)

// String returns the string representation of ArmState.
func (s ArmState) String() string {
	switch s {
	case Disarmed:
		return "disarmed"
	case Armed:
		return "armed"
	case Injecting:
		return "injecting"
	default:
		return "unknown"
	}
}

// Rearmer turns one key press into a different synthetic one, for example
// plain Enter into Ctrl+Enter. On every trigger it unbinds itself, injects the
// target, and binds itself again, so the injected event can never reach its
// own hook.
type Rearmer struct {
	mu       sync.Mutex
	registry *Registry
	injector Injector
	logger   *slog.Logger

	trigger string
	target  Combination
	state   ArmState
	release func()
}

// NewRearmer creates a disarmed Rearmer that maps trigger to target.
func NewRearmer(registry *Registry, injector Injector, trigger, target string, logger *slog.Logger) (*Rearmer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	trig, err := Parse(trigger)
	if err != nil {
		return nil, fmt.Errorf("invalid remap trigger: %w", err)
	}
	tgt, err := Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid remap target: %w", err)
	}
	if trig.String() == tgt.String() {
		return nil, fmt.Errorf("remap trigger and target are both %q", trig.String())
	}
	return &Rearmer{
		registry: registry,
		injector: injector,
		logger:   logger,
		trigger:  trig.String(),
		target:   tgt,
	}, nil
}

// Activate arms the binding. It satisfies the scoped-binding interface used by
// the window controller.
func (r *Rearmer) Activate() int {
	if r.Arm() {
		return 1
	}
	return 0
}

// Deactivate disarms the binding.
func (r *Rearmer) Deactivate() { r.Disarm() }

// Arm binds the trigger. Arming an armed Rearmer does nothing.
func (r *Rearmer) Arm() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Armed {
		return true
	}
	if !r.claimLocked() {
		r.state = Disarmed
		return false
	}
	r.state = Armed
	return true
}

// claimLocked binds the trigger unless another binding already owns it.
func (r *Rearmer) claimLocked() bool {
	release, ok := r.registry.Claim(r.trigger, r.fire)
	if !ok {
		return false
	}
	r.release = release
	return true
}

func (r *Rearmer) releaseLocked() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// Disarm unbinds the trigger. If an injection is in progress, Disarm waits for
// it and the trigger is not bound again afterwards.
func (r *Rearmer) Disarm() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Disarmed {
		return
	}
	r.releaseLocked()
	r.state = Disarmed
}

// State returns the current arm state.
func (r *Rearmer) State() ArmState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// fire runs unregister, inject, re-register as one critical section.
func (r *Rearmer) fire() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Armed {
		return
	}
	r.state = Injecting
	r.releaseLocked()

	if err := r.injector.Inject(r.target); err != nil {
		r.logger.Warn("failed to inject key", "target", r.target.String(), "error", err)
	}

	if r.claimLocked() {
		r.state = Armed
	} else {
		r.state = Disarmed
		r.logger.Warn("failed to re-arm remap", "trigger", r.trigger)
	}
}
