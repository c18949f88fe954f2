package kinde

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresProperties(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*Config){
		"Issuer":              func(c *Config) { c.Issuer = "" },
		"Redirect URI":        func(c *Config) { c.RedirectURI = "" },
		"Client Id":           func(c *Config) { c.ClientID = "" },
		"Logout Redirect URI": func(c *Config) { c.LogoutRedirectURI = " " },
	}

	for property, mutate := range cases {
		t.Run(property, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)

			_, err := New(cfg)
			require.ErrorIs(t, err, ErrPropertyRequired)

			var pre *PropertyRequiredError
			require.ErrorAs(t, err, &pre)
			require.Equal(t, property, pre.Property)
		})
	}
}

func TestNewValidatesDefaultParameters(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AdditionalParameters = AdditionalParameters{"nope": "x"}

	_, err := New(cfg)
	require.ErrorIs(t, err, ErrUnexpectedKey)

	cfg.AdditionalParameters = AdditionalParameters{"is_create_org": true}
	_, err = New(cfg)
	require.ErrorIs(t, err, ErrUnexpectedKey)

	var pe *ParameterError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "is_create_org", pe.Key)
}

func TestConfigReturnsCopy(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AdditionalParameters = AdditionalParameters{"audience": "api"}
	cfg.BrowserOptions = BrowserOptions{"ephemeral": true}

	sdk, err := New(cfg)
	require.NoError(t, err)

	got := sdk.Config()
	got.AdditionalParameters["audience"] = "other"
	got.AdditionalParameters["lang"] = "en"
	got.BrowserOptions["ephemeral"] = false

	require.Equal(t, AdditionalParameters{"audience": "api"}, sdk.Config().AdditionalParameters)
	require.Equal(t, BrowserOptions{"ephemeral": true}, sdk.Config().BrowserOptions)

	authURL, err := sdk.BeginLogin(context.Background(), nil)
	require.NoError(t, err)
	require.Contains(t, authURL, "audience=api")
	require.NotContains(t, authURL, "lang=")
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Issuer = testIssuer + "/"

	sdk, err := New(cfg)
	require.NoError(t, err)

	require.Equal(t, DefaultScope, sdk.Config().Scope)
	require.NotNil(t, sdk.Store())
	require.Equal(t, FlowIdle, sdk.FlowState())

	require.Equal(t, "https://x.kinde.com/oauth2/auth", sdk.AuthorizationEndpoint())
	require.Equal(t, "https://x.kinde.com/oauth2/token", sdk.TokenEndpoint())
	require.Equal(t, "https://x.kinde.com/logout", sdk.LogoutEndpoint())
}

func TestNewNormalizesScope(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Scope = "  openid   email \t offline "

	sdk, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, "openid email offline", sdk.Config().Scope)

	cfg.Scope = "   "
	sdk, err = New(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultScope, sdk.Config().Scope)
}
