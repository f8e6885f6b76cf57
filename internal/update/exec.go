package update

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// ExecRelauncher starts a fresh copy of the running executable. With Quit set,
// Relaunch only stops the main loop and the copy is started by SpawnPending
// once the process has released its global grabs and input devices.
type ExecRelauncher struct {
	// Executable is the binary to start. Empty means os.Executable().
	Executable string
	// Args are passed to the new process.
	Args []string
	// Quit stops the current process's main loop.
	Quit func()

	mu      sync.Mutex
	pending string
}

// Relaunch implements Relauncher.
func (r *ExecRelauncher) Relaunch() error {
	exe, err := r.executable()
	if err != nil {
		return err
	}
	if r.Quit == nil {
		return r.spawn(exe)
	}

	r.mu.Lock()
	r.pending = exe
	r.mu.Unlock()

	r.Quit()
	return nil
}

// Pending reports whether a relaunch is waiting for SpawnPending.
func (r *ExecRelauncher) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != ""
}

// SpawnPending starts the copy requested by Relaunch, if any. Call it after
// the main loop has returned and teardown has finished.
func (r *ExecRelauncher) SpawnPending() error {
	r.mu.Lock()
	exe := r.pending
	r.pending = ""
	r.mu.Unlock()

	if exe == "" {
		return nil
	}
	return r.spawn(exe)
}

func (r *ExecRelauncher) executable() (string, error) {
	if r.Executable != "" {
		return r.Executable, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return exe, nil
}

func (r *ExecRelauncher) spawn(exe string) error {
	cmd := exec.Command(exe, r.Args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", exe, err)
	}
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("detach %s: %w", exe, err)
	}
	return nil
}

// ExecInstaller replaces the executable with the staged download and
// relaunches.
type ExecInstaller struct {
	// Staged returns the path of the downloaded binary.
	Staged func() string
	// Relauncher starts the new binary.
	Relauncher *ExecRelauncher
}

// QuitAndInstall implements Installer.
func (i *ExecInstaller) QuitAndInstall() error {
	staged := i.Staged()
	if staged == "" {
		return errors.New("no staged update")
	}

	exe, err := i.Relauncher.executable()
	if err != nil {
		return err
	}
	if err := ReplaceBinary(exe, staged); err != nil {
		return err
	}
	return i.Relauncher.Relaunch()
}

// ReplaceBinary atomically replaces the binary at destPath with newPath. The
// old binary is restored if the new one cannot be moved into place.
func ReplaceBinary(destPath, newPath string) error {
	destPath, err := filepath.EvalSymlinks(destPath)
	if err != nil {
		return fmt.Errorf("resolve symlink: %w", err)
	}

	bakPath := destPath + ".bak"
	_ = os.Remove(bakPath)

	if err := os.Rename(destPath, bakPath); err != nil {
		return fmt.Errorf("backup old binary: %w", err)
	}
	if err := os.Rename(newPath, destPath); err != nil {
		_ = os.Rename(bakPath, destPath)
		return fmt.Errorf("install new binary: %w", err)
	}

	_ = os.Remove(bakPath)
	return nil
}
