package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4-webkitgtk/pkg/webkit/v6"
	"github.com/diamondburned/gotk4/pkg/gio/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/summon/internal/geometry"
	"github.com/jmylchreest/summon/internal/views"
)

// BrowserOpener opens URLs in the user's default browser.
type BrowserOpener struct {
	logger *slog.Logger
}

// NewBrowserOpener creates a BrowserOpener.
func NewBrowserOpener(logger *slog.Logger) *BrowserOpener {
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserOpener{logger: logger}
}

// OpenExternal implements views.Opener.
func (o *BrowserOpener) OpenExternal(url string) error {
	if err := gio.AppInfoLaunchDefaultForURI(url, nil); err != nil {
		return &Error{Message: "failed to open " + url, Cause: err}
	}
	o.logger.Debug("opened url in browser", "url", url)
	return nil
}

// newWebView creates a web view with networking and JavaScript enabled and
// no script message handlers. Requests for a new window go to opener.
func newWebView(opener views.Opener, logger *slog.Logger) *webkit.WebView {
	view := webkit.NewWebView()

	settings := view.Settings()
	settings.SetEnableDeveloperExtras(false)
	settings.SetJavascriptCanOpenWindowsAutomatically(false)

	openExternal := func(uri string) {
		if uri == "" || opener == nil {
			return
		}
		if err := opener.OpenExternal(uri); err != nil {
			logger.Warn("failed to open link externally", "url", uri, "error", err)
		}
	}

	view.ConnectDecidePolicy(func(decision webkit.PolicyDecisioner, typ webkit.PolicyDecisionType) bool {
		if typ != webkit.PolicyDecisionTypeNewWindowAction {
			return false
		}
		nav, ok := decision.(*webkit.NavigationPolicyDecision)
		if !ok {
			return false
		}
		openExternal(nav.NavigationAction().Request().URI())
		nav.Ignore()
		return true
	})

	// Returning nil refuses the window.
	view.ConnectCreate(func(action *webkit.NavigationAction) gtk.Widgetter {
		openExternal(action.Request().URI())
		return nil
	})

	return view
}

// NativePage loads the native UI as the bottom layer of the overlay. An
// empty url shows a blank page.
func NativePage(host *Host, url string, opener views.Opener, logger *slog.Logger) *webkit.WebView {
	if logger == nil {
		logger = slog.Default()
	}
	view := newWebView(opener, logger)
	if url == "" {
		view.LoadHTML("<!doctype html><html><body></body></html>", "about:blank")
	} else {
		view.LoadURI(url)
	}
	host.Overlay().SetChild(view)
	return view
}

// WebKitFactory creates WebKit surfaces stacked above the native page.
type WebKitFactory struct {
	host   *Host
	logger *slog.Logger
}

// NewWebKitFactory creates a factory adding surfaces to host.
func NewWebKitFactory(host *Host, logger *slog.Logger) *WebKitFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebKitFactory{host: host, logger: logger}
}

// NewSurface implements views.SurfaceFactory.
func (f *WebKitFactory) NewSurface(name views.SlotName, opener views.Opener) (views.Surface, error) {
	if f.host == nil {
		return nil, &Error{Message: "no host window for view " + string(name)}
	}

	view := newWebView(opener, f.logger.With("slot", string(name)))
	view.SetHAlign(gtk.AlignStart)
	view.SetVAlign(gtk.AlignStart)
	view.SetVisible(false)
	f.host.Overlay().AddOverlay(view)

	return &webSurface{view: view}, nil
}

// webSurface keeps its web view alive for the whole process. Detaching only
// hides it, so the page and its session survive.
type webSurface struct {
	view *webkit.WebView
}

func (s *webSurface) Navigate(url string) {
	s.view.LoadURI(url)
}

func (s *webSurface) Attach(bounds geometry.Rect) {
	s.Resize(bounds)
	s.view.SetVisible(true)
	s.view.GrabFocus()
}

func (s *webSurface) Detach() {
	s.view.SetVisible(false)
}

func (s *webSurface) Resize(bounds geometry.Rect) {
	s.view.SetMarginStart(bounds.X)
	s.view.SetMarginTop(bounds.Y)
	s.view.SetSizeRequest(bounds.Width, bounds.Height)
}
