/*
Package kinde is a client SDK for signing users in to a Kinde application
with the OAuth2 Authorization Code flow and PKCE.

# Overview

An SDK is built from a Config and a set of options:

	sdk, err := kinde.New(kinde.Config{
		Issuer:            "https://yourapp.kinde.com",
		RedirectURI:       "http://127.0.0.1:53682/callback",
		ClientID:          "client-id",
		LogoutRedirectURI: "http://127.0.0.1:53682/",
	},
		kinde.WithBrowser(browser),
		kinde.WithStore(store.New(backend)),
	)

Login, Register and CreateOrg open the hosted pages through a Browser,
wait for the redirect and exchange the authorization code:

	token, err := sdk.Login(ctx, nil, nil)
	if errors.Is(err, kinde.ErrCancelled) {
		// the user closed the browser
	}

Applications that own the redirect themselves (a web server, for example)
use BeginLogin to get the authorize URL and GetToken to finish:

	authURL, err := sdk.BeginLogin(ctx, kinde.AdditionalParameters{"org_code": "org_123"})
	// redirect the user to authURL; then, in the callback handler:
	token, err := sdk.GetToken(ctx, r.URL.String())

# Session

Everything the flow needs to survive the redirect is kept in a store.Store:
the state and code verifier while the browser is away, then the token set,
its absolute expiry and the user profile decoded from the ID token. Every
new login clears the session first, so a stale state or verifier can never
be replayed. Logout clears the session before contacting Kinde and does so
even if the browser never reports back.

IsAuthenticated checks the stored expiry and, once expired, tries a single
silent refresh. TokenSource adapts the session for golang.org/x/oauth2 HTTP
clients.

# Flow state

The SDK moves through FlowIdle, FlowAwaitingRedirect, FlowExchanging and
then FlowAuthenticated or FlowFailed. Observers registered with WithObserver
see every transition; WithStatusTracking records them in the store as an
AuthStatus.

# Errors

Errors match the sentinels with errors.Is: ErrPropertyRequired for missing
values, ErrUnexpectedType, ErrUnexpectedKey and ErrInvalidType for rejected
additional parameters, ErrUnauthenticated for refused or missing sessions
(including *OAuth2Error responses from the token endpoint), ErrUnexpected
for unsupported token kinds and ErrCancelled for dismissed browsers.

# ID tokens

By default the ID token is decoded without verifying its signature: it
arrives directly from the token endpoint over TLS. WithIDTokenVerifier
enables full verification through go-oidc before anything is stored.
*/
package kinde
