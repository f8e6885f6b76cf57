package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmylchreest/summon/internal/buildinfo"
	"github.com/jmylchreest/summon/internal/config"
	"github.com/jmylchreest/summon/internal/dbus"
	"github.com/jmylchreest/summon/internal/hotkey"
	"github.com/jmylchreest/summon/internal/update"
	"github.com/jmylchreest/summon/internal/views"
	"github.com/jmylchreest/summon/internal/window"
)

// UINotifier delivers events to the UI. The D-Bus control server implements
// it with signals.
type UINotifier interface {
	Focus()
	Refresh()
	ViewChanged(name string)
}

// Options holds the collaborators of an App.
type Options struct {
	Config     *config.Config
	ConfigPath string // Where Rebind persists the toggle; empty disables saving

	Registry *hotkey.Registry
	Window   *window.Controller
	Views    *views.Multiplexer
	Updates  *update.Bridge
	Remap    *hotkey.Rearmer // Optional focus scoped key remap
	UI       UINotifier
	Alerts   *InternalNotifier // Optional desktop notifications

	// Dispatch runs fn on the event loop. Control requests arrive on other
	// goroutines and are marshalled through it.
	Dispatch hotkey.Dispatcher
	// Quit stops the event loop.
	Quit func()

	Logger *slog.Logger
}

// App is the controller object. It owns the permanent bindings and is the
// only place that changes them.
type App struct {
	mu       sync.Mutex
	cfg      *config.Config
	cfgPath  string
	registry *hotkey.Registry
	window   *window.Controller
	views    *views.Multiplexer
	updates  *update.Bridge
	remap    *hotkey.Rearmer
	ui       UINotifier
	alerts   *InternalNotifier
	dispatch hotkey.Dispatcher
	quit     func()
	logger   *slog.Logger

	refresh  *hotkey.Batch
	toggle   string // Canonical toggle combination currently bound, "" if none
	relaunch string
	started  bool
}

// NewApp creates an App. Nothing is registered until Start.
func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = hotkey.Immediate
	}
	quit := opts.Quit
	if quit == nil {
		quit = func() {}
	}
	return &App{
		cfg:      opts.Config,
		cfgPath:  opts.ConfigPath,
		registry: opts.Registry,
		window:   opts.Window,
		views:    opts.Views,
		updates:  opts.Updates,
		remap:    opts.Remap,
		ui:       opts.UI,
		alerts:   opts.Alerts,
		dispatch: dispatch,
		quit:     quit,
		logger:   logger,
	}
}

// Start creates the embedded views, registers the permanent bindings and
// connects the window to the UI. Must be called on the event loop.
func (a *App) Start() {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	cfg := a.cfg
	a.mu.Unlock()

	a.views.SetChangeCallback(func(name views.SlotName) {
		a.ui.ViewChanged(string(name))
	})
	a.views.EnsureCreated()

	a.window.SetShownCallback(func() {
		a.views.Relayout()
		a.ui.Focus()
	})

	bindings := make([]hotkey.Binding, 0, len(cfg.Hotkeys.Refresh))
	for _, accel := range cfg.Hotkeys.Refresh {
		bindings = append(bindings, hotkey.Binding{Accelerator: accel, Handler: a.ui.Refresh})
	}
	a.refresh = hotkey.NewBatch(a.registry, bindings...)
	a.window.AddScope(a.refresh)
	if a.remap != nil {
		a.window.AddScope(a.remap)
	}

	a.bindToggle(cfg.Hotkeys.Toggle)
	a.bindRelaunch(cfg.Hotkeys.Relaunch)

	a.logger.Info("summon started", "toggle", a.Toggle(), "views", len(a.views.Slots()))
}

// Stop releases every global binding. Must be called on the event loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return
	}
	a.started = false
	a.registry.UnregisterAll()
	a.toggle = ""
	a.relaunch = ""
}

func (a *App) bindToggle(accel string) {
	if a.registry.Register(accel, a.window.Toggle) {
		a.mu.Lock()
		a.toggle = hotkey.Canonical(accel)
		a.mu.Unlock()
		return
	}
	a.logger.Warn("toggle hotkey unavailable", "combination", accel)
	if a.alerts != nil {
		a.alerts.NotifyHotkeyUnavailable(accel)
	}
}

func (a *App) bindRelaunch(accel string) {
	if accel == "" {
		return
	}
	if a.registry.Register(accel, a.relaunchNow) {
		a.mu.Lock()
		a.relaunch = hotkey.Canonical(accel)
		a.mu.Unlock()
		return
	}
	a.logger.Warn("relaunch hotkey unavailable", "combination", accel)
}

func (a *App) relaunchNow() {
	if err := a.updates.Relaunch(); err != nil {
		a.logger.Error("relaunch failed", "error", err)
	}
}

// Toggle returns the toggle combination currently bound.
func (a *App) Toggle() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.toggle
}

// OnTrayActivate toggles the window. Called on the event loop.
func (a *App) OnTrayActivate() {
	a.window.Toggle()
}

// sync runs fn on the event loop and waits for it to finish.
func (a *App) sync(fn func()) {
	done := make(chan struct{})
	a.dispatch(func() {
		defer close(done)
		fn()
	})
	<-done
}

// Handler returns the App as a D-Bus request handler. Its methods are called
// from D-Bus goroutines and run on the event loop.
func (a *App) Handler() dbus.Handler {
	return (*requests)(a)
}

// requests implements dbus.Handler on top of App.
type requests App

func (r *requests) app() *App { return (*App)(r) }

func (r *requests) Toggle() {
	r.app().sync(r.window.Toggle)
}

func (r *requests) ShowNative() {
	r.app().sync(func() {
		if err := r.views.Activate(views.Native); err != nil {
			r.logger.Warn("failed to show native view", "error", err)
		}
	})
}

func (r *requests) ShowView(name string) error {
	var err error
	r.app().sync(func() {
		err = r.views.Activate(views.SlotName(name))
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, views.ErrUnknownSlot):
		return fmt.Errorf("%w: %s", dbus.ErrUnknownView, name)
	case errors.Is(err, views.ErrSlotUnavailable):
		return fmt.Errorf("%w: %v", dbus.ErrViewUnavailable, err)
	default:
		return err
	}
}

func (r *requests) Minimize() {
	r.app().sync(r.window.Hide)
}

func (r *requests) Quit() {
	r.logger.Info("quit requested")
	r.app().sync(r.quit)
}

func (r *requests) Rebind(accel string) (string, error) {
	var effective string
	var err error
	r.app().sync(func() {
		effective, err = r.app().rebind(accel, true)
	})
	return effective, err
}

func (r *requests) AppVersion() string {
	return buildinfo.Version
}

func (r *requests) ApplyUpdate() error {
	var err error
	r.app().sync(func() {
		err = r.updates.ApplyUpdate()
	})
	if errors.Is(err, update.ErrNothingToApply) {
		return fmt.Errorf("%w: %v", dbus.ErrNoUpdate, err)
	}
	return err
}

func (r *requests) Relaunch() error {
	var err error
	r.app().sync(func() {
		err = r.updates.Relaunch()
	})
	return err
}

func (r *requests) Status() dbus.Status {
	var st dbus.Status
	r.app().sync(func() {
		stage := r.updates.Stage()
		st = dbus.Status{
			State:            r.window.State().String(),
			View:             string(r.views.Foreground()),
			Toggle:           r.app().Toggle(),
			UpdateAvailable:  stage >= update.Available,
			UpdateDownloaded: stage >= update.Downloaded,
		}
	})
	return st
}

// rebind moves the toggle to accel. If the new combination cannot be bound
// the old one is restored. Returns the combination in effect afterwards.
// Must be called on the event loop.
func (a *App) rebind(accel string, persist bool) (string, error) {
	combo, err := hotkey.Parse(accel)
	if err != nil {
		return a.Toggle(), fmt.Errorf("%w: %v", dbus.ErrInvalidHotkey, err)
	}
	next := combo.String()

	a.mu.Lock()
	prev := a.toggle
	a.mu.Unlock()

	if next == prev {
		return prev, nil
	}
	if use := a.reservedFor(next); use != "" {
		return prev, fmt.Errorf("%w: %s is already the %s hotkey", dbus.ErrInvalidHotkey, next, use)
	}

	if prev != "" {
		a.registry.Unregister(prev)
	}
	if !a.registry.Register(next, a.window.Toggle) {
		if prev != "" && !a.registry.Register(prev, a.window.Toggle) {
			a.mu.Lock()
			a.toggle = ""
			a.mu.Unlock()
			a.logger.Error("lost toggle hotkey", "combination", prev)
		}
		if a.alerts != nil {
			a.alerts.NotifyHotkeyUnavailable(next)
		}
		return a.Toggle(), fmt.Errorf("%w: %s is not available", dbus.ErrInvalidHotkey, next)
	}

	a.mu.Lock()
	a.toggle = next
	a.cfg.Hotkeys.Toggle = accel
	cfg := a.cfg
	a.mu.Unlock()

	a.logger.Info("toggle hotkey changed", "from", prev, "to", next)

	if persist && a.cfgPath != "" {
		if err := cfg.SaveTo(a.cfgPath); err != nil {
			a.logger.Warn("failed to save toggle hotkey", "path", a.cfgPath, "error", err)
		}
	}
	return next, nil
}

// reservedFor names the other binding that uses combo, or "" if it is free.
func (a *App) reservedFor(combo string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if combo == a.relaunch {
		return "relaunch"
	}
	for _, accel := range a.cfg.Hotkeys.Refresh {
		if hotkey.Canonical(accel) == combo {
			return "refresh"
		}
	}
	if a.remap != nil && hotkey.Canonical(a.cfg.Hotkeys.Remap.Trigger) == combo {
		return "remap"
	}
	return ""
}

// ApplyConfig applies a reloaded configuration. The toggle and relaunch
// bindings are updated in place; other sections take effect on restart.
// Called from the config watcher's goroutine.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.sync(func() {
		a.mu.Lock()
		toggle := a.toggle
		relaunch := a.relaunch
		a.mu.Unlock()

		// The old relaunch key is freed before the toggle moves so the two
		// can swap.
		relaunchChanged := hotkey.Canonical(cfg.Hotkeys.Relaunch) != relaunch
		if relaunchChanged && relaunch != "" {
			a.registry.Unregister(relaunch)
			a.mu.Lock()
			a.relaunch = ""
			a.mu.Unlock()
		}

		if hotkey.Canonical(cfg.Hotkeys.Toggle) != toggle {
			if _, err := a.rebind(cfg.Hotkeys.Toggle, false); err != nil {
				a.logger.Warn("reloaded toggle hotkey rejected", "error", err)
			}
		}

		if relaunchChanged {
			a.bindRelaunch(cfg.Hotkeys.Relaunch)
		}

		a.mu.Lock()
		toggleNow := a.cfg.Hotkeys.Toggle
		a.cfg = cfg
		a.cfg.Hotkeys.Toggle = toggleNow
		a.mu.Unlock()
	})
}
