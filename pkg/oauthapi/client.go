// Package oauthapi calls the Kinde endpoints that describe the signed in
// user. Requests carry the session's access token as a bearer token and are
// paced by a client side rate limiter.
package oauthapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/httpx"
	"golang.org/x/oauth2"
)

const (
	pathUserProfile   = "/oauth2/user_profile"
	pathUserProfileV2 = "/oauth2/v2/user_profile"
)

// Client calls the Kinde user profile endpoints.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client for issuer that authenticates with tokens from
// ts. Outbound requests are limited according to limit. ctx is only used to
// pick up an oauth2.HTTPClient override; the base transport is otherwise
// http.DefaultTransport.
func NewClient(ctx context.Context, issuer string, ts oauth2.TokenSource, limit httpx.RateLimitConfig) *Client {
	var base http.RoundTripper
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		base = c.Transport
	}

	limited := &http.Client{
		Transport: httpx.NewTransport(base, limit),
		Timeout:   10 * time.Second,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, limited)

	return &Client{
		BaseURL:    strings.TrimSuffix(issuer, "/"),
		HTTPClient: oauth2.NewClient(ctx, ts),
	}
}

// GetUser returns the id, names and email of the signed in user.
func (c *Client) GetUser(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.get(ctx, pathUserProfile, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetUserProfileV2 returns the OIDC shaped profile of the signed in user.
func (c *Client) GetUserProfileV2(ctx context.Context) (*UserProfileV2, error) {
	var profile UserProfileV2
	if err := c.get(ctx, pathUserProfileV2, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	return decodeJSON(resp, target)
}

func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
