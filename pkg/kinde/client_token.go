package kinde

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetToken returns the stored token set when the session is authenticated.
// Otherwise it completes the flow: callbackURL is the redirect the browser
// landed on, and its code is exchanged for tokens which are then stored.
func (s *SDK) GetToken(ctx context.Context, callbackURL string) (*TokenSet, error) {
	if s.IsAuthenticated(ctx) {
		token, err := s.store.GetToken(ctx)
		if err == nil && token != nil {
			return token, nil
		}
	}

	token, err := s.exchangeCallback(ctx, callbackURL)
	if err != nil {
		s.transition(ctx, FlowFailed)
		return nil, err
	}
	return token, nil
}

func (s *SDK) exchangeCallback(ctx context.Context, callbackURL string) (*TokenSet, error) {
	if callbackURL == "" {
		return nil, &PropertyRequiredError{Property: "URL"}
	}

	cb, err := parseCallback(callbackURL)
	if err != nil {
		return nil, err
	}

	state, err := s.store.GetState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	verifier, err := s.store.GetCodeVerifier(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read code verifier: %w", err)
	}

	if cb.state != "" && state != "" && cb.state != state {
		return nil, &UnauthenticatedError{
			Code:        ErrorCodeInvalidState,
			Description: "state returned on the redirect does not match this session",
		}
	}

	s.transition(ctx, FlowExchanging)

	form := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {cb.code},
		"client_id":    {s.cfg.ClientID},
		"redirect_uri": {s.cfg.RedirectURI},
	}
	if s.cfg.ClientSecret != "" {
		form.Set("client_secret", s.cfg.ClientSecret)
	}
	if state != "" {
		form.Set("state", state)
	}
	if verifier != "" {
		form.Set("code_verifier", verifier)
	}

	return s.fetchToken(ctx, form)
}

// UseRefreshToken exchanges the refresh token of token, or of the stored
// token set when token is nil, and stores the result.
func (s *SDK) UseRefreshToken(ctx context.Context, token *TokenSet) (*TokenSet, error) {
	if token == nil {
		stored, err := s.store.GetToken(ctx)
		if err != nil {
			return nil, err
		}
		token = stored
	}

	if token == nil || token.RefreshToken == "" {
		return nil, &UnauthenticatedError{Description: "no refresh token available"}
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {s.cfg.ClientID},
		"refresh_token": {token.RefreshToken},
	}
	if s.cfg.ClientSecret != "" {
		form.Set("client_secret", s.cfg.ClientSecret)
	}

	return s.fetchToken(ctx, form)
}

// IsAuthenticated reports whether the stored token is unexpired, refreshing
// it once if not. Failures are logged and reported as false, and a
// previously authenticated flow returns to FlowIdle.
func (s *SDK) IsAuthenticated(ctx context.Context) bool {
	expiredAt, err := s.store.GetExpiredAt(ctx)
	if err != nil {
		s.log(ctx).Debug("failed to read token expiry", "error", err)
	} else if expiredAt > s.now().UnixMilli() {
		return true
	}

	token, err := s.UseRefreshToken(ctx, nil)
	if err != nil {
		s.log(ctx).Debug("silent refresh failed", "error", err)
		s.dropSession(ctx)
		return false
	}
	return token.ExpiresIn > 0
}

// dropSession moves a settled flow back to idle after its token lapsed, so
// a tracked auth status stops reporting AUTHENTICATED. Flows still waiting
// on a redirect or exchange are left alone.
func (s *SDK) dropSession(ctx context.Context) {
	switch s.FlowState() {
	case FlowAuthenticated, FlowIdle:
		s.transition(ctx, FlowIdle)
	}
}

// fetchToken posts form to the token endpoint and commits a successful
// response. Nothing is written when the endpoint returns an error.
func (s *SDK) fetchToken(ctx context.Context, form url.Values) (*TokenSet, error) {
	grantType := form.Get("grant_type")
	log := s.log(ctx).With("grant_type", grantType)

	body, contentType, err := encodeMultipartForm(form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.TokenEndpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	token, err := decodeTokenResponse(resp)
	if err != nil {
		log.Warn("token request failed", "error", err)
		return nil, err
	}

	if s.verifier != nil && token.IDToken != "" {
		if err := s.verifier.Verify(ctx, token.IDToken); err != nil {
			log.Warn("id token rejected", "error", err)
			return nil, &UnauthenticatedError{Code: ErrorCodeInvalidIDToken, Description: err.Error()}
		}
	}

	if err := s.store.SetToken(ctx, *token, s.now()); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	log.Info("token stored", "expires_in", token.ExpiresIn)
	s.transition(ctx, FlowAuthenticated)

	return token, nil
}
