package kinde

import (
	"context"
	"maps"
)

// BrowserOptions are passed through to the browser collaborator untouched.
type BrowserOptions map[string]any

type BrowserResultType string

const (
	BrowserResultSuccess BrowserResultType = "success"
	BrowserResultCancel  BrowserResultType = "cancel"
)

// BrowserResult is how an interactive browser session ended. URL is the
// redirect the browser was sent to and is only set on success.
type BrowserResult struct {
	Type BrowserResultType
	URL  string
}

// Browser opens url and blocks until the browser is redirected to a URL
// starting with redirectURI, or the user dismisses it. Implementations must
// return when ctx is done.
type Browser interface {
	Open(ctx context.Context, url, redirectURI string, opts BrowserOptions) (BrowserResult, error)
}

// BrowserFunc adapts a function to Browser.
type BrowserFunc func(ctx context.Context, url, redirectURI string, opts BrowserOptions) (BrowserResult, error)

func (f BrowserFunc) Open(ctx context.Context, url, redirectURI string, opts BrowserOptions) (BrowserResult, error) {
	return f(ctx, url, redirectURI, opts)
}

// URLOpener launches a URL without waiting for any outcome. It is enough for
// logout but cannot drive a login.
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// browserOptions layers per-call options over the configured defaults.
func (s *SDK) browserOptions(opts BrowserOptions) BrowserOptions {
	if len(opts) == 0 {
		return s.cfg.BrowserOptions
	}
	out := make(BrowserOptions, len(s.cfg.BrowserOptions)+len(opts))
	maps.Copy(out, s.cfg.BrowserOptions)
	maps.Copy(out, opts)
	return out
}
