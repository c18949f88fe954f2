package kinde

import (
	"context"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/idx"
	"github.com/aussiebroadwan/kinde/pkg/jwtx"
	"github.com/aussiebroadwan/kinde/pkg/slogx"
	"github.com/aussiebroadwan/kinde/pkg/store"
)

// SDK drives the Authorization Code + PKCE flow against one Kinde
// application and exposes the resulting session.
//
// An SDK holds one logical session. Starting two flows concurrently against
// the same store races: each start clears the session, so the loser's state
// and verifier are silently replaced.
type SDK struct {
	cfg Config

	store      *store.Store
	httpClient *http.Client
	browser    Browser
	opener     URLOpener
	logger     *slog.Logger
	verifier   jwtx.Verifier
	now        func() time.Time

	mu        sync.Mutex
	state     FlowState
	attempt   idx.ID
	observers []FlowObserver
}

// New validates cfg and builds an SDK.
func New(cfg Config, opts ...Option) (*SDK, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &SDK{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
		state:  FlowIdle,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = store.New(store.NewMemory())
	}

	return s, nil
}

// Config returns a copy of the validated configuration. Mutating its maps
// does not affect the SDK.
func (s *SDK) Config() Config {
	cfg := s.cfg
	cfg.AdditionalParameters = maps.Clone(s.cfg.AdditionalParameters)
	cfg.BrowserOptions = maps.Clone(s.cfg.BrowserOptions)
	return cfg
}

// Store returns the session store the SDK writes to.
func (s *SDK) Store() *store.Store { return s.store }

func (s *SDK) AuthorizationEndpoint() string { return s.cfg.Issuer + "/oauth2/auth" }
func (s *SDK) TokenEndpoint() string         { return s.cfg.Issuer + "/oauth2/token" }
func (s *SDK) LogoutEndpoint() string        { return s.cfg.Issuer + "/logout" }

func (s *SDK) log(ctx context.Context) *slog.Logger {
	l := slogx.FromContextOr(ctx, s.logger)
	if id := s.attemptID(); !id.IsZero() {
		l = l.With("attempt_id", id.String())
	}
	return l
}
