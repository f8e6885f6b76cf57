package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	busName            = "org.freedesktop.portal.Desktop"
	objectPath         = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	shortcutsInterface = "org.freedesktop.portal.GlobalShortcuts"
	requestInterface   = "org.freedesktop.portal.Request"
	sessionInterface   = "org.freedesktop.portal.Session"
	registryInterface  = "org.freedesktop.host.portal.Registry"
)

// DefaultTimeout bounds a portal request. Binding may open a dialog on the
// compositor side, so it is generous.
const DefaultTimeout = 2 * time.Minute

// ErrCancelled means the user dismissed the portal dialog.
var ErrCancelled = errors.New("portal request cancelled")

type response struct {
	code    uint32
	results map[string]dbus.Variant
}

// DBusSession is a GlobalShortcuts session on the session bus.
type DBusSession struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	timeout time.Duration
	signals chan *dbus.Signal
	done    chan struct{}

	mu          sync.Mutex
	handle      dbus.ObjectPath
	pending     map[dbus.ObjectPath]chan response
	onActivated func(id string)
	tokens      uint64
	closed      bool
}

// Connect opens a GlobalShortcuts session. appID identifies the application
// to portals that cannot infer it from the sandbox; empty skips registration.
// onActivated runs on its own goroutine for every activation.
func Connect(ctx context.Context, appID string, onActivated func(id string), logger *slog.Logger) (*DBusSession, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	s := &DBusSession{
		conn:        conn,
		logger:      logger,
		timeout:     DefaultTimeout,
		signals:     make(chan *dbus.Signal, 16),
		done:        make(chan struct{}),
		pending:     make(map[dbus.ObjectPath]chan response),
		onActivated: onActivated,
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(requestInterface),
		dbus.WithMatchMember("Response"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(objectPath),
		dbus.WithMatchInterface(shortcutsInterface),
		dbus.WithMatchMember("Activated"),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to add match rule: %w", err)
	}
	conn.Signal(s.signals)
	go s.listen()

	if appID != "" {
		err := conn.Object(busName, objectPath).CallWithContext(ctx, registryInterface+".Register", 0,
			appID, map[string]dbus.Variant{}).Err
		if err != nil {
			logger.Debug("portal host registration unavailable", "error", err)
		}
	}

	sessionToken := s.nextToken()
	results, err := s.request(ctx, "CreateSession", func(options map[string]dbus.Variant) []interface{} {
		options["session_handle_token"] = dbus.MakeVariant(sessionToken)
		return []interface{}{options}
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	handle, ok := sessionHandle(results)
	if !ok {
		s.Close()
		return nil, errors.New("CreateSession: portal returned no session handle")
	}

	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	logger.Debug("global shortcuts session created", "session", string(handle))
	return s, nil
}

// Bind implements Session.
func (s *DBusSession) Bind(shortcuts []Shortcut) error {
	s.mu.Lock()
	handle := s.handle
	s.mu.Unlock()

	type shortcut struct {
		ID      string
		Options map[string]dbus.Variant
	}
	entries := make([]shortcut, 0, len(shortcuts))
	for _, sc := range shortcuts {
		entries = append(entries, shortcut{
			ID: sc.ID,
			Options: map[string]dbus.Variant{
				"description":       dbus.MakeVariant(sc.Description),
				"preferred_trigger": dbus.MakeVariant(sc.Trigger),
			},
		})
	}

	_, err := s.request(context.Background(), "BindShortcuts", func(options map[string]dbus.Variant) []interface{} {
		return []interface{}{handle, entries, "", options}
	})
	return err
}

// Close ends the portal session and disconnects.
func (s *DBusSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	handle := s.handle
	s.mu.Unlock()

	if handle != "" {
		if err := s.conn.Object(busName, handle).Call(sessionInterface+".Close", 0).Err; err != nil {
			s.logger.Debug("failed to close portal session", "error", err)
		}
	}
	close(s.done)
	s.conn.RemoveSignal(s.signals)
	return s.conn.Close()
}

func (s *DBusSession) nextToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens++
	return fmt.Sprintf("summon%d_%d", os.Getpid(), s.tokens)
}

// request calls a portal method that answers through a Request object and
// waits for its Response signal. args receives the options map with the
// handle token already set and returns the call arguments.
func (s *DBusSession) request(ctx context.Context, method string, args func(options map[string]dbus.Variant) []interface{}) (map[string]dbus.Variant, error) {
	names := s.conn.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: no unique bus name", method)
	}
	token := s.nextToken()
	path := requestPath(names[0], token)

	ch := make(chan response, 1)
	s.track(path, ch)
	defer func() { s.untrack(path) }()

	options := map[string]dbus.Variant{"handle_token": dbus.MakeVariant(token)}
	var handle dbus.ObjectPath
	call := s.conn.Object(busName, objectPath).CallWithContext(ctx, shortcutsInterface+"."+method, 0, args(options)...)
	if err := call.Store(&handle); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if handle != path {
		s.untrack(path)
		path = handle
		s.track(path, ch)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	select {
	case r := <-ch:
		switch r.code {
		case 0:
			return r.results, nil
		case 1:
			return nil, fmt.Errorf("%s: %w", method, ErrCancelled)
		default:
			return nil, fmt.Errorf("%s: portal request failed with response %d", method, r.code)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", method, ctx.Err())
	}
}

func (s *DBusSession) track(path dbus.ObjectPath, ch chan response) {
	s.mu.Lock()
	s.pending[path] = ch
	s.mu.Unlock()
}

func (s *DBusSession) untrack(path dbus.ObjectPath) {
	s.mu.Lock()
	delete(s.pending, path)
	s.mu.Unlock()
}

func (s *DBusSession) listen() {
	for {
		select {
		case <-s.done:
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			s.handleSignal(sig)
		}
	}
}

func (s *DBusSession) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case requestInterface + ".Response":
		r, ok := parseResponse(sig.Body)
		if !ok {
			return
		}
		s.mu.Lock()
		ch := s.pending[sig.Path]
		s.mu.Unlock()
		if ch != nil {
			select {
			case ch <- r:
			default:
			}
		}

	case shortcutsInterface + ".Activated":
		s.mu.Lock()
		handle := s.handle
		onActivated := s.onActivated
		s.mu.Unlock()

		if id, ok := parseActivated(sig.Body, handle); ok && onActivated != nil {
			go onActivated(id)
		}
	}
}

// requestPath is the object path the portal uses for a request made by
// sender with token.
func requestPath(sender, token string) dbus.ObjectPath {
	sender = strings.ReplaceAll(strings.TrimPrefix(sender, ":"), ".", "_")
	return dbus.ObjectPath(string(objectPath) + "/request/" + sender + "/" + token)
}

func parseResponse(body []interface{}) (response, bool) {
	if len(body) < 2 {
		return response{}, false
	}
	code, ok := body[0].(uint32)
	if !ok {
		return response{}, false
	}
	results, _ := body[1].(map[string]dbus.Variant)
	return response{code: code, results: results}, true
}

// parseActivated returns the shortcut id of an Activated signal for session.
func parseActivated(body []interface{}, session dbus.ObjectPath) (string, bool) {
	if len(body) < 2 || session == "" {
		return "", false
	}
	handle, ok := body[0].(dbus.ObjectPath)
	if !ok || handle != session {
		return "", false
	}
	id, ok := body[1].(string)
	return id, ok && id != ""
}

// sessionHandle extracts the session handle from a CreateSession response.
// Portals have sent it both as a string and as an object path.
func sessionHandle(results map[string]dbus.Variant) (dbus.ObjectPath, bool) {
	v, ok := results["session_handle"]
	if !ok {
		return "", false
	}
	switch h := v.Value().(type) {
	case string:
		return dbus.ObjectPath(h), h != ""
	case dbus.ObjectPath:
		return h, h != ""
	default:
		return "", false
	}
}
