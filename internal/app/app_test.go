package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/kinde/pkg/kinde"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testRedirectURI = "http://127.0.0.1:53682/callback"
	testLogoutURI   = "http://127.0.0.1:53682/logout"
)

func mintJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return raw
}

// newIdP serves the token and user profile endpoints for one user.
func newIdP(t *testing.T) *httptest.Server {
	t.Helper()

	access := mintJWT(t, jwt.MapClaims{
		"sub":         "kp_123",
		"org_code":    "org_a",
		"permissions": []string{"write:posts", "read:posts"},
	})
	idToken := mintJWT(t, jwt.MapClaims{
		"sub":         "kp_123",
		"given_name":  "Ada",
		"family_name": "Lovelace",
		"email":       "ada@example.com",
		"org_codes":   []string{"org_a"},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  access,
			"id_token":      idToken,
			"refresh_token": "R",
			"expires_in":    3600,
			"token_type":    "bearer",
		})
	})
	mux.HandleFunc("GET /oauth2/v2/user_profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+access {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "kp_123",
			"sub":   "kp_123",
			"name":  "Ada Lovelace",
			"email": "ada@example.com",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeBrowser completes any authorize URL with a code and reports logout as
// completed.
func fakeBrowser() kinde.Browser {
	return kinde.BrowserFunc(func(_ context.Context, authURL, redirectURI string, _ kinde.BrowserOptions) (kinde.BrowserResult, error) {
		if redirectURI == testLogoutURI {
			return kinde.BrowserResult{Type: kinde.BrowserResultSuccess, URL: redirectURI}, nil
		}
		u, err := url.Parse(authURL)
		if err != nil {
			return kinde.BrowserResult{}, err
		}
		return kinde.BrowserResult{
			Type: kinde.BrowserResultSuccess,
			URL:  redirectURI + "?code=abc&state=" + url.QueryEscape(u.Query().Get("state")),
		}, nil
	})
}

func newTestApp(t *testing.T) *Application {
	t.Helper()

	idp := newIdP(t)
	cfg := defaultConfig()
	cfg.Issuer = idp.URL
	cfg.RedirectURI = testRedirectURI
	cfg.LogoutRedirectURI = testLogoutURI
	cfg.ClientID = "cli"
	cfg.Store.Driver = StoreMemory
	cfg.LogLevel = "error"

	application, err := New(context.Background(), cfg,
		kinde.WithBrowser(fakeBrowser()),
		kinde.WithHTTPClient(idp.Client()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })
	return application
}

func run(t *testing.T, application *Application, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, application.Run(context.Background(), args, &out))
	return out.String()
}

func TestCommands(t *testing.T) {
	application := newTestApp(t)

	require.Equal(t, "Signed in as ada@example.com\n", run(t, application, "login", "-org-code", "org_a"))

	token := run(t, application, "token")
	require.NotEmpty(t, token)

	var profile map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, application, "whoami")), &profile))
	require.Equal(t, "ada@example.com", profile["email"])

	require.NoError(t, json.Unmarshal([]byte(run(t, application, "whoami", "-remote")), &profile))
	require.Equal(t, "Ada Lovelace", profile["name"])

	require.Equal(t, "\"Ada\"\n", run(t, application, "claims", "-id", "given_name"))

	var perms struct {
		OrgCode     string   `json:"org_code"`
		Permissions []string `json:"permissions"`
		OrgCodes    []string `json:"org_codes"`
	}
	require.NoError(t, json.Unmarshal([]byte(run(t, application, "permissions")), &perms))
	require.Equal(t, "org_a", perms.OrgCode)
	require.Equal(t, []string{"read:posts", "write:posts"}, perms.Permissions)
	require.Equal(t, []string{"org_a"}, perms.OrgCodes)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(run(t, application, "status")), &status))
	require.Equal(t, true, status["authenticated"])
	require.Equal(t, "AUTHENTICATED", status["auth_status"])

	require.Equal(t, "Signed out\n", run(t, application, "logout"))

	require.NoError(t, json.Unmarshal([]byte(run(t, application, "status")), &status))
	require.Equal(t, false, status["authenticated"])
	require.Equal(t, "UNAUTHENTICATED", status["auth_status"])
}

func TestLogoutLocal(t *testing.T) {
	application := newTestApp(t)

	run(t, application, "login")
	require.Equal(t, "Local session cleared\n", run(t, application, "logout", "-local"))

	var out bytes.Buffer
	err := application.Run(context.Background(), []string{"whoami"}, &out)
	require.ErrorIs(t, err, kinde.ErrUnauthenticated)
}

func TestRunUsage(t *testing.T) {
	application := newTestApp(t)

	var out bytes.Buffer
	require.ErrorIs(t, application.Run(context.Background(), nil, &out), ErrUsage)
	require.Contains(t, out.String(), "usage: kinde")

	out.Reset()
	require.ErrorIs(t, application.Run(context.Background(), []string{"frobnicate"}, &out), ErrUsage)

	out.Reset()
	require.ErrorIs(t, application.Run(context.Background(), []string{"login", "-bogus"}, &out), ErrUsage)
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Driver = StoreMemory
	cfg.LogLevel = "error"

	_, err := New(context.Background(), cfg)
	require.ErrorIs(t, err, kinde.ErrPropertyRequired)
}
