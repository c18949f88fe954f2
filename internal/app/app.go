package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/kinde/internal/loopback"
	"github.com/aussiebroadwan/kinde/pkg/jwtx"
	"github.com/aussiebroadwan/kinde/pkg/kinde"
	"github.com/aussiebroadwan/kinde/pkg/oauthapi"
	"github.com/aussiebroadwan/kinde/pkg/slogx"
	"github.com/aussiebroadwan/kinde/pkg/store"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the SDK to its session store, browser and logger for the
// command line tool.
type Application struct {
	cfg    Config
	logger *slog.Logger

	store *store.Store
	sdk   *kinde.SDK
}

// New opens the session store and builds the SDK. opts are applied after the
// defaults, so callers can replace the browser or HTTP client.
func New(ctx context.Context, cfg Config, opts ...kinde.Option) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "kinde-cli",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	app.store = st

	if err := app.initSDK(ctx, opts); err != nil {
		_ = st.Close()
		return nil, err
	}

	app.logger.Debug("application initialized", "store", cfg.Store.Driver, "session", cfg.Store.Session)
	return app, nil
}

func (app *Application) initSDK(ctx context.Context, extra []kinde.Option) error {
	browser := loopback.New(app.logger)

	opts := []kinde.Option{
		kinde.WithStore(app.store),
		kinde.WithLogger(app.logger),
		kinde.WithBrowser(browser),
		kinde.WithURLOpener(browser),
		kinde.WithStatusTracking(),
	}

	if app.cfg.VerifyIDToken {
		verifier, err := jwtx.NewOIDCVerifier(ctx, app.cfg.Issuer, app.cfg.ClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize id token verifier: %w", err)
		}
		opts = append(opts, kinde.WithIDTokenVerifier(verifier))
	}

	var params kinde.AdditionalParameters
	if app.cfg.Audience != "" {
		params = kinde.AdditionalParameters{"audience": app.cfg.Audience}
	}

	sdk, err := kinde.New(kinde.Config{
		Issuer:               app.cfg.Issuer,
		RedirectURI:          app.cfg.RedirectURI,
		ClientID:             app.cfg.ClientID,
		ClientSecret:         app.cfg.ClientSecret,
		LogoutRedirectURI:    app.cfg.LogoutRedirectURI,
		Scope:                app.cfg.Scope,
		AdditionalParameters: params,
	}, append(opts, extra...)...)
	if err != nil {
		return fmt.Errorf("invalid kinde configuration: %w", err)
	}

	app.sdk = sdk
	return nil
}

func (app *Application) SDK() *kinde.SDK { return app.sdk }

// API returns a management API client authenticated as the current session.
func (app *Application) API(ctx context.Context) *oauthapi.Client {
	return oauthapi.NewClient(ctx, app.sdk.Config().Issuer, app.sdk.TokenSource(ctx), app.cfg.APIRateLimit)
}

// Close releases the session store.
func (app *Application) Close() error {
	if err := app.store.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
		return err
	}
	return nil
}
