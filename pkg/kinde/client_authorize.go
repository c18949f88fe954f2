package kinde

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/kinde/pkg/idx"
)

// Login starts a sign-in on the hosted login page, waits for the browser to
// return to the redirect URI and exchanges the code. is_create_org is not
// accepted here; use CreateOrg.
func (s *SDK) Login(ctx context.Context, params AdditionalParameters, opts BrowserOptions) (*TokenSet, error) {
	if _, ok := params["is_create_org"]; ok {
		return nil, &ParameterError{Kind: ErrUnexpectedKey, Key: "is_create_org", Got: params["is_create_org"]}
	}
	return s.authenticate(ctx, StartPageLogin, params, opts)
}

// Register is Login starting on the registration page.
func (s *SDK) Register(ctx context.Context, params AdditionalParameters, opts BrowserOptions) (*TokenSet, error) {
	return s.authenticate(ctx, StartPageRegistration, params, opts)
}

// CreateOrg registers a user together with a new organization.
func (s *SDK) CreateOrg(ctx context.Context, params AdditionalParameters, opts BrowserOptions) (*TokenSet, error) {
	if _, ok := params["is_create_org"]; ok {
		return nil, &ParameterError{Kind: ErrUnexpectedKey, Key: "is_create_org", Got: params["is_create_org"]}
	}

	withOrg := mergeParameters(params, AdditionalParameters{"is_create_org": true})
	return s.authenticate(ctx, StartPageRegistration, withOrg, opts)
}

// BeginLogin prepares a login exactly as Login does but returns the
// authorize URL instead of opening a browser. Hand the redirect URL to
// GetToken to finish. Server-side integrations use this.
func (s *SDK) BeginLogin(ctx context.Context, params AdditionalParameters) (string, error) {
	if _, ok := params["is_create_org"]; ok {
		return "", &ParameterError{Kind: ErrUnexpectedKey, Key: "is_create_org", Got: params["is_create_org"]}
	}
	return s.beginAuth(ctx, StartPageLogin, params)
}

// BeginRegister is BeginLogin starting on the registration page.
func (s *SDK) BeginRegister(ctx context.Context, params AdditionalParameters) (string, error) {
	return s.beginAuth(ctx, StartPageRegistration, params)
}

func (s *SDK) authenticate(
	ctx context.Context,
	page StartPage,
	params AdditionalParameters,
	opts BrowserOptions,
) (*TokenSet, error) {
	if s.browser == nil {
		return nil, &PropertyRequiredError{Property: "browser"}
	}

	authURL, err := s.beginAuth(ctx, page, params)
	if err != nil {
		return nil, err
	}

	res, err := s.browser.Open(ctx, authURL, s.cfg.RedirectURI, s.browserOptions(opts))
	if err != nil {
		s.transition(ctx, FlowFailed)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return nil, fmt.Errorf("browser: %w", err)
	}

	if res.Type != BrowserResultSuccess {
		s.log(ctx).Info("browser dismissed before redirect", "start_page", string(page), "result", string(res.Type))
		s.transition(ctx, FlowFailed)
		return nil, ErrCancelled
	}

	return s.GetToken(ctx, res.URL)
}

// beginAuth validates params, clears the session, persists a fresh challenge
// and returns the authorize URL.
func (s *SDK) beginAuth(ctx context.Context, page StartPage, params AdditionalParameters) (string, error) {
	checked, err := CheckAdditionalParameters(params)
	if err != nil {
		return "", err
	}

	if err := s.store.ClearAll(ctx); err != nil {
		return "", fmt.Errorf("failed to clear session: %w", err)
	}
	s.setAttempt(idx.New())

	challenge, err := GenerateChallenge()
	if err != nil {
		return "", err
	}

	// Persisted before navigation: the browser may outlive this process.
	if err := s.store.SetChallenge(ctx, challenge.State, challenge.CodeVerifier); err != nil {
		return "", fmt.Errorf("failed to persist challenge: %w", err)
	}

	authURL := s.buildAuthorizeURL(page, challenge, mergeParameters(s.cfg.AdditionalParameters, checked))

	s.log(ctx).Info("authorization started", "start_page", string(page))
	s.transition(ctx, FlowAwaitingRedirect)

	return authURL, nil
}

func (s *SDK) buildAuthorizeURL(page StartPage, challenge *PKCEChallenge, params AdditionalParameters) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURI)
	q.Set("scope", s.cfg.Scope)
	q.Set("state", challenge.State)
	q.Set("code_challenge", challenge.CodeChallenge)
	q.Set("code_challenge_method", "S256")
	q.Set("start_page", string(page))

	AddAdditionalParameters(q, params)

	return s.AuthorizationEndpoint() + "?" + q.Encode()
}

// callback is the parsed redirect back to the application.
type callback struct {
	code  string
	state string
}

// parseCallback extracts the authorization response from a redirect URL.
func parseCallback(callbackURL string) (*callback, error) {
	u, err := url.Parse(strings.TrimSpace(callbackURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse callback URL: %w", err)
	}

	q := u.Query()
	if code := q.Get("error"); code != "" {
		return nil, &UnauthenticatedError{Code: code, Description: q.Get("error_description")}
	}

	code := q.Get("code")
	if code == "" {
		return nil, &PropertyRequiredError{Property: "code"}
	}

	return &callback{code: code, state: q.Get("state")}, nil
}
