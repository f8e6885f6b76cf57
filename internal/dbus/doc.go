// Package dbus implements the io.github.jmylchreest.Summon control interface
// on the session bus. The daemon exports it so the embedded UI and the summon
// CLI can drive the overlay, and emits signals for events the UI reacts to.
// It also contains the client side used by the CLI and a small sender for
// org.freedesktop.Notifications.
package dbus
