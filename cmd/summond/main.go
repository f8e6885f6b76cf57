// Package main is the entry point for the summond overlay daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/summon/internal/buildinfo"
	"github.com/jmylchreest/summon/internal/config"
	"github.com/jmylchreest/summon/internal/daemon"
	"github.com/jmylchreest/summon/internal/dbus"
	"github.com/jmylchreest/summon/internal/display"
	"github.com/jmylchreest/summon/internal/geometry"
	"github.com/jmylchreest/summon/internal/hotkey"
	"github.com/jmylchreest/summon/internal/tray"
	"github.com/jmylchreest/summon/internal/update"
	"github.com/jmylchreest/summon/internal/views"
	"github.com/jmylchreest/summon/internal/window"
)

const appID = "io.github.jmylchreest.summond"

func main() {
	configPath := flag.String("config", "", "Path to the config file (default $XDG_CONFIG_HOME/summon/summon.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("summond", buildinfo.String())
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("SUMMON_LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			logger.Error("failed to get config path", "error", err)
			os.Exit(1)
		}
	}

	run(path, logger)
}

// logLevel maps SUMMON_LOG_LEVEL to a slog level. Unknown values mean info.
func logLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(configPath string, logger *slog.Logger) {
	logger.Info("starting summond", "version", buildinfo.Version)

	cfg, err := config.LoadFrom(configPath, logger)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// Non-unique so a relaunched process starts instead of activating this one.
	app := adw.NewApplication(appID, gio.ApplicationNonUnique)

	var (
		summon         *daemon.App
		controlServer  *dbus.ControlServer
		trayCtrl       *tray.Controller
		configWatcher  *daemon.ConfigWatcher
		injector       *hotkey.UinputInjector
		releaseBackend func()
		running        atomic.Bool
	)

	ctx, cancel := context.WithCancel(context.Background())
	quit := func() { glib.IdleAdd(app.Quit) }
	relauncher := &update.ExecRelauncher{Args: os.Args[1:], Quit: quit}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()
		quit()
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		display.ApplyStyle(config.ColorScheme(cfg.Theme.ColorScheme), logger)

		// Window
		monitors := display.NewMonitorLister(logger)
		host := display.NewHost(&app.Application, display.HostOptions{
			Size:     geometry.Size{Width: cfg.Window.Width, Height: cfg.Window.Height},
			Monitors: monitors,
			Logger:   logger,
		})
		resolver := geometry.NewResolver(monitors, logger)
		pointer := geometry.NewCommandPointer(cfg.Display.PointerCommand, logger)
		windowCtrl := window.NewController(host, resolver, pointer, window.CurrentPolicy(), logger)
		host.SetFocusCallbacks(windowCtrl.FocusGained, windowCtrl.FocusLost)
		host.SetEscapeCallback(windowCtrl.Escape)

		// Views
		opener := display.NewBrowserOpener(logger)
		display.NativePage(host, cfg.NativeURL(), opener, logger)
		specs := make([]views.SlotSpec, 0, len(cfg.Views))
		for _, v := range cfg.Views {
			specs = append(specs, views.SlotSpec{Name: views.SlotName(v.Name), URL: v.URL})
		}
		mux, err := views.NewMultiplexer(display.NewWebKitFactory(host, logger), opener, host.Bounds, specs, logger)
		if err != nil {
			logger.Error("invalid views", "error", err)
			app.Quit()
			return
		}

		// Hotkeys
		backend, closeBackend := hotkeyBackend(ctx, logger)
		releaseBackend = closeBackend
		registry := hotkey.NewRegistry(backend, display.Dispatch, logger)
		var remap *hotkey.Rearmer
		if cfg.Hotkeys.Remap.Trigger != "" {
			injector, err = hotkey.NewUinputInjector(cfg.Input.UinputDevice, cfg.Hotkeys.Remap.Settle.Duration())
			if err != nil {
				logger.Warn("key remap disabled", "device", cfg.Input.UinputDevice, "error", err)
			} else if remap, err = hotkey.NewRearmer(registry, injector, cfg.Hotkeys.Remap.Trigger, cfg.Hotkeys.Remap.Target, logger); err != nil {
				logger.Warn("key remap disabled", "error", err)
			}
		}

		// Notifications
		var alerts *daemon.InternalNotifier
		if notifier, err := dbus.NewDesktopNotifier(); err != nil {
			logger.Warn("desktop notifications unavailable", "error", err)
		} else {
			alerts = daemon.NewInternalNotifier(notifier.Send, logger)
		}

		// Updates
		controlServer = dbus.NewControlServer(nil, logger)
		var checker *update.Checker
		installer := &update.ExecInstaller{
			Staged: func() string {
				if checker == nil {
					return ""
				}
				return checker.Staged()
			},
			Relauncher: relauncher,
		}
		bridge := update.NewBridge(controlServer, installer, relauncher, logger)

		summon = daemon.NewApp(daemon.Options{
			Config:     cfg,
			ConfigPath: configPath,
			Registry:   registry,
			Window:     windowCtrl,
			Views:      mux,
			Updates:    bridge,
			Remap:      remap,
			UI:         controlServer,
			Alerts:     alerts,
			Dispatch:   display.Dispatch,
			Quit:       app.Quit,
			Logger:     logger,
		})
		summon.Start()

		controlServer.SetHandler(summon.Handler())
		if err := controlServer.Start(); err != nil {
			logger.Error("failed to start D-Bus control server", "error", err)
			app.Quit()
			return
		}

		if cfg.Updates.Enabled {
			checker = update.NewChecker(update.CheckerConfig{
				Feed:           cfg.Updates.Feed,
				CurrentVersion: buildinfo.Version,
				AssetName:      update.AssetName(runtime.GOOS, runtime.GOARCH),
				StagingDir:     stagingDir(),
			}, &loopSink{bridge: bridge, alerts: alerts}, logger)
			go checker.Run(ctx, cfg.Updates.Interval.Duration())
		}

		if cfg.Tray.Enabled {
			trayCtrl = tray.NewController(trayIcon(cfg, logger), cfg.Tray.Tooltip, display.Dispatch, logger)
			trayCtrl.SetActivateCallback(summon.OnTrayActivate)
			trayCtrl.Start()
		}

		configWatcher, err = daemon.NewConfigWatcher(configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.Config) {
				summon.ApplyConfig(newConfig)
				if alerts != nil {
					alerts.NotifyConfigReloaded()
				}
			})
			configWatcher.SetErrorCallback(func(err error) {
				if alerts != nil {
					alerts.NotifyConfigError(err)
				}
			})
			if err := configWatcher.Start(); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		logger.Info("summond ready", "dbus_interface", dbus.DBusInterface, "toggle", summon.Toggle())
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		cancel()
		if configWatcher != nil {
			_ = configWatcher.Stop()
		}
		if trayCtrl != nil {
			trayCtrl.Stop()
		}
		if summon != nil {
			summon.Stop()
		}
		if controlServer != nil {
			_ = controlServer.Stop()
		}
		if injector != nil {
			_ = injector.Close()
		}
		if releaseBackend != nil {
			releaseBackend()
		}
		running.Store(false)
	})

	status := app.Run(os.Args[:1])
	cancel()

	// Started only now so the new process can take the grabs and the uinput
	// device this one just released.
	if err := relauncher.SpawnPending(); err != nil {
		logger.Error("relaunch failed", "error", err)
	}

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}

	logger.Info("summond stopped")
}

// loopSink forwards update progress from the checker goroutine to the main
// loop.
type loopSink struct {
	bridge *update.Bridge
	alerts *daemon.InternalNotifier
}

func (s *loopSink) OnAvailable() {
	display.Dispatch(s.bridge.OnAvailable)
}

func (s *loopSink) OnDownloaded() {
	display.Dispatch(func() {
		s.bridge.OnDownloaded()
		if s.alerts != nil {
			s.alerts.NotifyUpdateDownloaded()
		}
	})
}

func stagingDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "summon", "updates")
	}
	return filepath.Join(os.TempDir(), "summon-updates")
}

func trayIcon(cfg *config.Config, logger *slog.Logger) []byte {
	path := cfg.TrayIcon()
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read tray icon, using default", "path", path, "error", err)
		return nil
	}
	return data
}
