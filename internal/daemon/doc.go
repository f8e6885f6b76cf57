// Package daemon provides the main orchestration for summond.
// It wires the hotkey registry, window controller, view multiplexer and
// update bridge together, answers control requests from the D-Bus server,
// and reloads the configuration when the file changes.
package daemon
