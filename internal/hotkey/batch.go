package hotkey

import "sync"

// Binding pairs an accelerator with its handler.
type Binding struct {
	Accelerator string
	Handler     func()
}

// Batch is a fixed set of bindings that is registered and unregistered as a
// unit, typically while the overlay holds input focus. A batch only claims
// combinations that are free, and Deactivate only removes bindings the batch
// still owns, so it never takes down a binding registered by someone else.
type Batch struct {
	mu       sync.Mutex
	registry *Registry
	bindings []Binding
	releases []func()
	active   bool
}

// NewBatch creates an inactive batch.
func NewBatch(registry *Registry, bindings ...Binding) *Batch {
	return &Batch{
		registry: registry,
		bindings: bindings,
	}
}

// Activate claims every binding in the batch. Calling it on an active batch
// does nothing. Returns the number of bindings claimed.
func (b *Batch) Activate() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active {
		return 0
	}
	b.active = true

	for _, binding := range b.bindings {
		if release, ok := b.registry.Claim(binding.Accelerator, binding.Handler); ok {
			b.releases = append(b.releases, release)
		}
	}
	return len(b.releases)
}

// Deactivate releases every binding the batch claimed.
func (b *Batch) Deactivate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return
	}
	b.active = false

	for _, release := range b.releases {
		release()
	}
	b.releases = nil
}

// Active reports whether the batch is currently registered.
func (b *Batch) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}
