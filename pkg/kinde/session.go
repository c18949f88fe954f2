package kinde

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/idx"
	"golang.org/x/oauth2"
)

// CleanUp wipes the local session.
func (s *SDK) CleanUp(ctx context.Context) error {
	if err := s.store.ClearAll(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.transition(ctx, FlowIdle)
	s.setAttempt(idx.Zero)
	return nil
}

// LogoutURL is the hosted logout URL, for server-side redirects.
func (s *SDK) LogoutURL() string {
	q := url.Values{}
	q.Set("redirect", s.cfg.LogoutRedirectURI)
	return s.LogoutEndpoint() + "?" + q.Encode()
}

// Logout clears the local session and then ends the session at Kinde through
// the browser. The local session is cleared whatever the browser reports.
// The result is true when the browser completed the redirect, or, with only
// a URLOpener configured, once the URL was launched.
func (s *SDK) Logout(ctx context.Context, opts BrowserOptions) (bool, error) {
	if err := s.CleanUp(ctx); err != nil {
		return false, err
	}

	logoutURL := s.LogoutURL()

	switch {
	case s.browser != nil:
		res, err := s.browser.Open(ctx, logoutURL, s.cfg.LogoutRedirectURI, s.browserOptions(opts))
		if err != nil {
			return false, fmt.Errorf("browser: %w", err)
		}
		return res.Type == BrowserResultSuccess, nil

	case s.opener != nil:
		if err := s.opener.OpenURL(ctx, logoutURL); err != nil {
			return false, fmt.Errorf("open logout url: %w", err)
		}
		return true, nil

	default:
		return false, &PropertyRequiredError{Property: "browser"}
	}
}

// TokenSource exposes the session as an oauth2.TokenSource, refreshing
// through the SDK when the stored token has expired.
func (s *SDK) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &sdkTokenSource{ctx: ctx, sdk: s})
}

type sdkTokenSource struct {
	ctx context.Context
	sdk *SDK
}

func (ts *sdkTokenSource) Token() (*oauth2.Token, error) {
	if !ts.sdk.IsAuthenticated(ts.ctx) {
		return nil, &UnauthenticatedError{Description: "no valid session"}
	}

	token, err := ts.sdk.store.GetToken(ts.ctx)
	if err != nil {
		return nil, err
	}
	if token == nil || token.AccessToken == "" {
		return nil, &UnauthenticatedError{Description: "no access token stored"}
	}

	expiredAt, err := ts.sdk.store.GetExpiredAt(ts.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       time.UnixMilli(expiredAt),
	}, nil
}
