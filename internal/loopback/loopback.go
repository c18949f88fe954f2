// Package loopback completes browser based sign in for command line tools.
// It serves the registered redirect URI on the loopback interface, launches
// the system browser and waits for Kinde to redirect back.
package loopback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/httpx"
	"github.com/aussiebroadwan/kinde/pkg/kinde"
	"github.com/aussiebroadwan/kinde/pkg/slogx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// OptionTimeout is the BrowserOptions key bounding how long Open waits for
// the redirect. The value is a time.Duration or a number of seconds. When it
// elapses Open reports a cancelled result.
const OptionTimeout = "timeout"

// ErrNotLoopback is returned when the redirect URI cannot be served locally.
var ErrNotLoopback = errors.New("loopback: redirect uri must be http on a loopback host with an explicit port")

// Browser implements kinde.Browser and kinde.URLOpener for desktop sessions.
type Browser struct {
	// Launch opens a URL in the user's browser. Defaults to the platform
	// opener (open, xdg-open or rundll32).
	Launch func(ctx context.Context, url string) error
	Logger *slog.Logger
	// Limit bounds requests to the redirect handler per client address.
	Limit httpx.RateLimitConfig
}

var (
	_ kinde.Browser   = (*Browser)(nil)
	_ kinde.URLOpener = (*Browser)(nil)
)

func New(logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		Launch: OpenSystemBrowser,
		Logger: logger,
		Limit:  httpx.CallbackLimit,
	}
}

// OpenURL launches url without waiting for a redirect.
func (b *Browser) OpenURL(ctx context.Context, u string) error {
	return b.launch(ctx, u)
}

// Open serves redirectURI, launches authURL and blocks until the browser is
// redirected back, the timeout option elapses or ctx is done.
func (b *Browser) Open(ctx context.Context, authURL, redirectURI string, opts kinde.BrowserOptions) (kinde.BrowserResult, error) {
	target, err := parseRedirect(redirectURI)
	if err != nil {
		return kinde.BrowserResult{}, err
	}

	ln, err := net.Listen("tcp", target.Host)
	if err != nil {
		return kinde.BrowserResult{}, fmt.Errorf("listen on %s: %w", target.Host, err)
	}
	// Shutdown only closes listeners Serve has already picked up.
	defer ln.Close()

	results := make(chan string, 1)
	srv := &http.Server{
		Handler:           b.routes(target, results),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			b.logger().Error("loopback server stopped", "error", err)
		}
	}()
	defer b.shutdown(srv)

	b.logger().Info("waiting for browser redirect", "addr", ln.Addr().String(), "path", target.Path)

	if err := b.launch(ctx, authURL); err != nil {
		return kinde.BrowserResult{}, err
	}

	var timeout <-chan time.Time
	if d := timeoutOption(opts); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case redirected := <-results:
		return kinde.BrowserResult{Type: kinde.BrowserResultSuccess, URL: redirected}, nil
	case <-timeout:
		b.logger().Warn("timed out waiting for browser redirect")
		return kinde.BrowserResult{Type: kinde.BrowserResultCancel}, nil
	case <-ctx.Done():
		return kinde.BrowserResult{Type: kinde.BrowserResultCancel}, ctx.Err()
	}
}

func (b *Browser) routes(target *url.URL, results chan<- string) http.Handler {
	r := chi.NewRouter()
	r.Use(slogx.HTTPMiddleware(b.logger()))
	r.Use(middleware.Recoverer)
	r.Use(httpx.RateLimitByIP(b.Limit))

	path := target.Path
	if path == "" {
		path = "/"
	}

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		redirected := *target
		redirected.RawQuery = req.URL.RawQuery

		select {
		case results <- redirected.String():
		default:
		}

		httpx.NoCache(w)
		if req.URL.Query().Get("error") != "" {
			httpx.WriteHTMLPage(w, http.StatusOK, "Sign in failed",
				"Kinde reported an error. Return to the terminal for details.")
			return
		}
		httpx.WriteHTMLPage(w, http.StatusOK, "All done",
			"You can close this window and return to the terminal.")
	})

	return r
}

func (b *Browser) launch(ctx context.Context, u string) error {
	launch := b.Launch
	if launch == nil {
		launch = OpenSystemBrowser
	}
	if err := launch(ctx, u); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	return nil
}

func (b *Browser) shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		b.logger().Warn("loopback server shutdown", "error", err)
	}
}

func (b *Browser) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}

func parseRedirect(redirectURI string) (*url.URL, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotLoopback, err)
	}
	if u.Scheme != "http" || u.Port() == "" {
		return nil, ErrNotLoopback
	}

	if host := u.Hostname(); host != "localhost" {
		ip := net.ParseIP(host)
		if ip == nil || !ip.IsLoopback() {
			return nil, ErrNotLoopback
		}
	}

	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func timeoutOption(opts kinde.BrowserOptions) time.Duration {
	switch v := opts[OptionTimeout].(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	default:
		return 0
	}
}
