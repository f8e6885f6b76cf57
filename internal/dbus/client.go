package dbus

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// ErrNotRunning is returned by the client when no daemon owns the bus name.
var ErrNotRunning = errors.New("summond is not running")

// Client calls the control interface of a running daemon.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

func (c *Client) call(ctx context.Context, method string, args ...interface{}) *dbus.Call {
	return c.obj.CallWithContext(ctx, DBusInterface+"."+method, 0, args...)
}

func wrapCallError(method string, err error) error {
	var name string
	var body []interface{}
	var valErr dbus.Error
	var ptrErr *dbus.Error
	switch {
	case errors.As(err, &ptrErr) && ptrErr != nil:
		name, body = ptrErr.Name, ptrErr.Body
	case errors.As(err, &valErr):
		name, body = valErr.Name, valErr.Body
	default:
		return fmt.Errorf("%s: %w", method, err)
	}

	if name == "org.freedesktop.DBus.Error.ServiceUnknown" {
		return ErrNotRunning
	}
	if len(body) > 0 {
		if msg, ok := body[0].(string); ok {
			return fmt.Errorf("%s: %s", method, msg)
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}

func (c *Client) simple(ctx context.Context, method string, args ...interface{}) error {
	if err := c.call(ctx, method, args...).Err; err != nil {
		return wrapCallError(method, err)
	}
	return nil
}

// Toggle shows or hides the overlay.
func (c *Client) Toggle(ctx context.Context) error { return c.simple(ctx, "Toggle") }

// ShowNative brings the native view to the foreground.
func (c *Client) ShowNative(ctx context.Context) error { return c.simple(ctx, "ShowNative") }

// ShowView brings the named external view to the foreground.
func (c *Client) ShowView(ctx context.Context, name string) error {
	return c.simple(ctx, "ShowView", name)
}

// Minimize hides the overlay.
func (c *Client) Minimize(ctx context.Context) error { return c.simple(ctx, "Minimize") }

// Quit stops the daemon.
func (c *Client) Quit(ctx context.Context) error { return c.simple(ctx, "Quit") }

// ApplyUpdate installs a downloaded update.
func (c *Client) ApplyUpdate(ctx context.Context) error { return c.simple(ctx, "ApplyUpdate") }

// Relaunch restarts the daemon.
func (c *Client) Relaunch(ctx context.Context) error { return c.simple(ctx, "Relaunch") }

// Rebind changes the toggle binding and returns the binding now in effect.
func (c *Client) Rebind(ctx context.Context, accel string) (string, error) {
	var effective string
	if err := c.call(ctx, "Rebind", accel).Store(&effective); err != nil {
		return "", wrapCallError("Rebind", err)
	}
	return effective, nil
}

// Version returns the daemon version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version string
	if err := c.call(ctx, "Version").Store(&version); err != nil {
		return "", wrapCallError("Version", err)
	}
	return version, nil
}

// Status returns the daemon state.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.call(ctx, "Status").Store(&st.State, &st.View, &st.Toggle, &st.UpdateAvailable, &st.UpdateDownloaded)
	if err != nil {
		return Status{}, wrapCallError("Status", err)
	}
	return st, nil
}

// Close is a no-op; the session bus connection is shared.
func (c *Client) Close() error { return nil }
