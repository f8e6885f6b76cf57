// Package update relays updater progress to the UI and performs the
// install-and-restart and relaunch actions.
package update

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNothingToApply is returned by ApplyUpdate when no update has been downloaded.
var ErrNothingToApply = errors.New("no downloaded update to apply")

// Stage is how far the current update has progressed. It only moves forward.
type Stage int

const (
	// None means no update is known.
	None Stage = iota
	// Available means a newer release exists and is being downloaded.
	Available
	// Downloaded means the release is staged and ready to install.
	Downloaded
)

// String returns the string representation of Stage.
func (s Stage) String() string {
	switch s {
	case None:
		return "none"
	case Available:
		return "available"
	case Downloaded:
		return "downloaded"
	default:
		return "unknown"
	}
}

// Notifier receives update notifications for the UI.
type Notifier interface {
	UpdateAvailable()
	UpdateDownloaded()
}

// Installer installs the downloaded update and restarts the application.
type Installer interface {
	QuitAndInstall() error
}

// Relauncher restarts the application without installing anything.
type Relauncher interface {
	Relaunch() error
}

// Bridge tracks the update stage and forwards transitions to the UI.
type Bridge struct {
	mu         sync.Mutex
	notifier   Notifier
	installer  Installer
	relauncher Relauncher
	logger     *slog.Logger
	stage      Stage
}

// NewBridge creates a bridge in the None stage.
func NewBridge(notifier Notifier, installer Installer, relauncher Relauncher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		notifier:   notifier,
		installer:  installer,
		relauncher: relauncher,
		logger:     logger,
	}
}

// OnAvailable records that an update is available and tells the UI.
func (b *Bridge) OnAvailable() {
	if !b.advance(Available) {
		return
	}
	b.notifier.UpdateAvailable()
}

// OnDownloaded records that the update is staged and tells the UI.
func (b *Bridge) OnDownloaded() {
	if !b.advance(Downloaded) {
		return
	}
	b.notifier.UpdateDownloaded()
}

func (b *Bridge) advance(to Stage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if to <= b.stage {
		b.logger.Debug("ignoring update event", "stage", b.stage.String(), "event", to.String())
		return false
	}
	b.logger.Info("update stage changed", "from", b.stage.String(), "to", to.String())
	b.stage = to
	return true
}

// Stage returns the current update stage.
func (b *Bridge) Stage() Stage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stage
}

// ApplyUpdate quits, installs the downloaded update and restarts.
func (b *Bridge) ApplyUpdate() error {
	if b.Stage() != Downloaded {
		return ErrNothingToApply
	}
	if err := b.installer.QuitAndInstall(); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}
	return nil
}

// Relaunch restarts the application.
func (b *Bridge) Relaunch() error {
	if err := b.relauncher.Relaunch(); err != nil {
		return fmt.Errorf("relaunch: %w", err)
	}
	return nil
}
