package kinde

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/jwtx"
	"github.com/aussiebroadwan/kinde/pkg/store"
)

// Option configures an SDK.
type Option func(*SDK)

// WithStore sets the session store. The default is an in-memory store.
func WithStore(st *store.Store) Option {
	return func(s *SDK) { s.store = st }
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *SDK) { s.httpClient = c }
}

// WithBrowser sets the interactive browser used by Login, Register,
// CreateOrg and Logout.
func WithBrowser(b Browser) Option {
	return func(s *SDK) { s.browser = b }
}

// WithURLOpener sets a fire-and-forget launcher used by Logout when no
// Browser is configured.
func WithURLOpener(o URLOpener) Option {
	return func(s *SDK) { s.opener = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *SDK) { s.logger = l }
}

// WithStatusTracking persists an AuthStatus to the store on every flow
// transition.
func WithStatusTracking() Option {
	return func(s *SDK) { s.observers = append(s.observers, &statusTracker{sdk: s}) }
}

// WithIDTokenVerifier verifies every ID token before it is stored. Without
// it the ID token is trusted because it arrived directly from the token
// endpoint over TLS.
func WithIDTokenVerifier(v jwtx.Verifier) Option {
	return func(s *SDK) { s.verifier = v }
}

// WithObserver registers an observer for flow transitions.
func WithObserver(o FlowObserver) Option {
	return func(s *SDK) { s.observers = append(s.observers, o) }
}

// WithClock overrides time.Now for expiry computations.
func WithClock(now func() time.Time) Option {
	return func(s *SDK) { s.now = now }
}
