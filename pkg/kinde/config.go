package kinde

import (
	"strings"

	"github.com/aussiebroadwan/kinde/pkg/httpx"
)

// DefaultScope is requested when Config.Scope is empty.
const DefaultScope = "openid profile email offline"

// Config describes the Kinde application the SDK signs users in to.
type Config struct {
	// Issuer is the Kinde domain, e.g. https://yourapp.kinde.com.
	Issuer string
	// RedirectURI must match a callback URL registered for the application.
	RedirectURI string
	ClientID    string
	// ClientSecret is only sent when set. Public clients leave it empty.
	ClientSecret      string
	LogoutRedirectURI string
	Scope             string

	// AdditionalParameters are added to every authorize URL. Per-call
	// parameters override them. is_create_org is rejected here; use
	// SDK.CreateOrg.
	AdditionalParameters AdditionalParameters
	// BrowserOptions are the default options handed to the Browser.
	BrowserOptions BrowserOptions
}

func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"Issuer", c.Issuer},
		{"Redirect URI", c.RedirectURI},
		{"Client Id", c.ClientID},
		{"Logout Redirect URI", c.LogoutRedirectURI},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &PropertyRequiredError{Property: r.name}
		}
	}

	params, err := CheckAdditionalParameters(c.AdditionalParameters)
	if err != nil {
		return err
	}
	if v, ok := params["is_create_org"]; ok {
		return &ParameterError{Kind: ErrUnexpectedKey, Key: "is_create_org", Got: v}
	}
	c.AdditionalParameters = params

	c.Issuer = strings.TrimSuffix(c.Issuer, "/")
	if scopes := httpx.ParseSpaceDelimitedFields(c.Scope); len(scopes) > 0 {
		c.Scope = strings.Join(scopes, " ")
	} else {
		c.Scope = DefaultScope
	}
	return nil
}
