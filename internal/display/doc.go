// Package display binds the overlay to GTK4. It provides the layer-shell host
// window, the monitor list, WebKit surfaces for embedded views and the main
// loop dispatcher. Nothing here is unit tested; it needs a display server.
package display
