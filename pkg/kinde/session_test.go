package kinde

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/kinde/pkg/store"
	"github.com/stretchr/testify/require"
)

type recordingOpener struct {
	urls []string
	err  error
}

func (o *recordingOpener) OpenURL(_ context.Context, u string) error {
	o.urls = append(o.urls, u)
	return o.err
}

func seedSession(t *testing.T, sdk *SDK) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, sdk.Store().SetToken(ctx, store.TokenSet{
		AccessToken:  "A",
		IDToken:      testIDToken(t),
		RefreshToken: "R",
		ExpiresIn:    3600,
	}, sdk.now()))
	require.NoError(t, sdk.Store().SetChallenge(ctx, "state", "verifier"))
}

func TestLogoutURL(t *testing.T) {
	t.Parallel()

	sdk, _ := newTestSDK(t, nil)

	u, err := url.Parse(sdk.LogoutURL())
	require.NoError(t, err)
	require.Equal(t, "x.kinde.com", u.Host)
	require.Equal(t, "/logout", u.Path)
	require.Equal(t, testLogoutRedirect, u.Query().Get("redirect"))
}

func TestLogoutClearsOnCancel(t *testing.T) {
	t.Parallel()

	var gotURL, gotRedirect string
	browser := BrowserFunc(func(_ context.Context, u, redirectURI string, _ BrowserOptions) (BrowserResult, error) {
		gotURL, gotRedirect = u, redirectURI
		return BrowserResult{Type: BrowserResultCancel}, nil
	})
	sdk, mem := newTestSDK(t, nil, WithBrowser(browser))
	seedSession(t, sdk)

	ok, err := sdk.Logout(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, mem.Snapshot())
	require.Equal(t, sdk.LogoutURL(), gotURL)
	require.Equal(t, testLogoutRedirect, gotRedirect)
	require.Equal(t, FlowIdle, sdk.FlowState())
}

func TestLogoutSuccess(t *testing.T) {
	t.Parallel()

	browser := BrowserFunc(func(_ context.Context, _, redirectURI string, _ BrowserOptions) (BrowserResult, error) {
		return BrowserResult{Type: BrowserResultSuccess, URL: redirectURI}, nil
	})
	sdk, mem := newTestSDK(t, nil, WithBrowser(browser))
	seedSession(t, sdk)

	ok, err := sdk.Logout(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, mem.Snapshot())
}

func TestLogoutBrowserErrorStillClears(t *testing.T) {
	t.Parallel()

	browser := BrowserFunc(func(context.Context, string, string, BrowserOptions) (BrowserResult, error) {
		return BrowserResult{}, errors.New("no display")
	})
	sdk, mem := newTestSDK(t, nil, WithBrowser(browser))
	seedSession(t, sdk)

	ok, err := sdk.Logout(context.Background(), nil)
	require.Error(t, err)
	require.False(t, ok)
	require.Empty(t, mem.Snapshot())
}

func TestLogoutWithURLOpener(t *testing.T) {
	t.Parallel()

	opener := &recordingOpener{}
	sdk, mem := newTestSDK(t, nil, WithURLOpener(opener))
	seedSession(t, sdk)

	ok, err := sdk.Logout(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{sdk.LogoutURL()}, opener.urls)
	require.Empty(t, mem.Snapshot())
}

func TestLogoutWithoutBrowser(t *testing.T) {
	t.Parallel()

	sdk, mem := newTestSDK(t, nil)
	seedSession(t, sdk)

	ok, err := sdk.Logout(context.Background(), nil)
	require.False(t, ok)
	require.ErrorIs(t, err, ErrPropertyRequired)
	require.Empty(t, mem.Snapshot())
}

func TestLogoutWithStatusTracking(t *testing.T) {
	t.Parallel()

	sdk, mem := newTestSDK(t, nil, WithStatusTracking(), WithURLOpener(&recordingOpener{}))
	seedSession(t, sdk)

	_, err := sdk.Logout(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		store.KeyAuthStatus: string(store.AuthStatusUnauthenticated),
	}, mem.Snapshot())
}

func TestTokenSource(t *testing.T) {
	t.Parallel()

	const now = int64(1_700_000_000_000)

	t.Run("stored token", func(t *testing.T) {
		sdk, _ := newTestSDK(t, newFakeIdP(nil), WithClock(fixedClock(now)))
		seedSession(t, sdk)

		token, err := sdk.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, "A", token.AccessToken)
		require.Equal(t, "R", token.RefreshToken)
		require.Equal(t, now+3_600_000, token.Expiry.UnixMilli())
	})

	t.Run("refreshes when expired", func(t *testing.T) {
		idp := newFakeIdP(func(url.Values) (int, any) {
			return http.StatusOK, tokenResponse("A2", "", "R2", 60)
		})
		sdk, _ := newTestSDK(t, idp, WithClock(fixedClock(now)))
		require.NoError(t, sdk.Store().SetToken(context.Background(), store.TokenSet{AccessToken: "A1", RefreshToken: "R1"}, sdk.now()))

		token, err := sdk.TokenSource(context.Background()).Token()
		require.NoError(t, err)
		require.Equal(t, "A2", token.AccessToken)
		require.Equal(t, 1, idp.calls())
	})

	t.Run("no session", func(t *testing.T) {
		sdk, _ := newTestSDK(t, newFakeIdP(nil))

		_, err := sdk.TokenSource(context.Background()).Token()
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}
