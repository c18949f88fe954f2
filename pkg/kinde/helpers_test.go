package kinde

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/slogx"
	"github.com/aussiebroadwan/kinde/pkg/store"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer         = "https://x.kinde.com"
	testRedirectURI    = "app://callback"
	testClientID       = "client-123"
	testLogoutRedirect = "app://logout"
)

// fakeIdP stands in for the Kinde token endpoint. It is used as the SDK's
// transport, so the issuer can be any URL.
type fakeIdP struct {
	mu      sync.Mutex
	forms   []url.Values
	respond func(form url.Values) (int, any)
}

func newFakeIdP(respond func(form url.Values) (int, any)) *fakeIdP {
	return &fakeIdP{respond: respond}
}

func (f *fakeIdP) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)
	return rec.Result(), nil
}

func (f *fakeIdP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/oauth2/token" {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	form := url.Values(r.MultipartForm.Value)

	f.mu.Lock()
	f.forms = append(f.forms, form)
	f.mu.Unlock()

	status, body := f.respond(form)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeIdP) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forms)
}

func (f *fakeIdP) lastForm(t *testing.T) url.Values {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.forms, "token endpoint was never called")
	return f.forms[len(f.forms)-1]
}

func testConfig() Config {
	return Config{
		Issuer:            testIssuer,
		RedirectURI:       testRedirectURI,
		ClientID:          testClientID,
		LogoutRedirectURI: testLogoutRedirect,
	}
}

func newTestSDK(t *testing.T, idp *fakeIdP, opts ...Option) (*SDK, *store.Memory) {
	t.Helper()
	return newTestSDKWithConfig(t, testConfig(), idp, opts...)
}

func newTestSDKWithConfig(t *testing.T, cfg Config, idp *fakeIdP, opts ...Option) (*SDK, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	base := []Option{
		WithStore(store.New(mem)),
		WithLogger(slogx.Discard()),
	}
	if idp != nil {
		base = append(base, WithHTTPClient(&http.Client{Transport: idp}))
	}

	sdk, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	return sdk, mem
}

func mintJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return raw
}

func testIDToken(t *testing.T) string {
	return mintJWT(t, jwt.MapClaims{
		"sub":         "kp_123",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"email":       "ada@example.com",
		"org_codes":   []string{"org_a", "org_b"},
	})
}

// successBrowser completes the redirect with code and the state from the
// authorize URL it was given.
func successBrowser(code string) (Browser, *[]string) {
	var opened []string
	var mu sync.Mutex

	return BrowserFunc(func(_ context.Context, authURL, redirectURI string, _ BrowserOptions) (BrowserResult, error) {
		mu.Lock()
		opened = append(opened, authURL)
		mu.Unlock()

		u, err := url.Parse(authURL)
		if err != nil {
			return BrowserResult{}, err
		}
		state := u.Query().Get("state")

		return BrowserResult{
			Type: BrowserResultSuccess,
			URL:  redirectURI + "?code=" + url.QueryEscape(code) + "&state=" + url.QueryEscape(state),
		}, nil
	}), &opened
}

func cancelBrowser() Browser {
	return BrowserFunc(func(context.Context, string, string, BrowserOptions) (BrowserResult, error) {
		return BrowserResult{Type: BrowserResultCancel}, nil
	})
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

// tokenResponse is a successful token endpoint body.
func tokenResponse(access, idToken, refresh string, expiresIn int64) map[string]any {
	body := map[string]any{
		"access_token": access,
		"expires_in":   expiresIn,
		"token_type":   "bearer",
	}
	if idToken != "" {
		body["id_token"] = idToken
	}
	if refresh != "" {
		body["refresh_token"] = refresh
	}
	return body
}
