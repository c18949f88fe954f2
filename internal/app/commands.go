package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"

	"github.com/aussiebroadwan/kinde/pkg/kinde"
)

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage")

const usage = `usage: kinde <command> [flags]

commands:
  login        sign in through the browser
  register     open the registration page
  create-org   register and create an organization
  logout       clear the session and sign out at Kinde
  status       report whether the session is authenticated
  whoami       print the signed in user (-remote asks Kinde)
  token        print the current access token, refreshing if needed
  claims       print token claims (-id for the ID token)
  permissions  print granted permissions and organizations
`

type command func(ctx context.Context, args []string, out io.Writer) error

func (app *Application) commands() map[string]command {
	return map[string]command{
		"login":       app.runLogin,
		"register":    app.runRegister,
		"create-org":  app.runCreateOrg,
		"logout":      app.runLogout,
		"status":      app.runStatus,
		"whoami":      app.runWhoami,
		"token":       app.runToken,
		"claims":      app.runClaims,
		"permissions": app.runPermissions,
	}
}

// Run dispatches args[0] to a command writing its output to out.
func (app *Application) Run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return ErrUsage
	}

	cmd, ok := app.commands()[args[0]]
	if !ok {
		fmt.Fprint(out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	app.logger.Debug("running command", "command", args[0])
	return cmd(ctx, args[1:], out)
}

// authFlags are shared by the commands that open the hosted pages.
type authFlags struct {
	orgCode   string
	orgName   string
	loginHint string
	lang      string
}

func (f *authFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.orgCode, "org-code", "", "sign in to this organization")
	fs.StringVar(&f.loginHint, "login-hint", "", "prefill the email field")
	fs.StringVar(&f.lang, "lang", "", "hosted page language")
}

func (f *authFlags) params() kinde.AdditionalParameters {
	params := kinde.AdditionalParameters{}
	for k, v := range map[string]string{
		"org_code":   f.orgCode,
		"org_name":   f.orgName,
		"login_hint": f.loginHint,
		"lang":       f.lang,
	} {
		if v != "" {
			params[k] = v
		}
	}
	return params
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func (app *Application) runLogin(ctx context.Context, args []string, out io.Writer) error {
	var f authFlags
	fs := newFlagSet("login", out)
	f.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := app.sdk.Login(ctx, f.params(), nil); err != nil {
		return err
	}
	return app.printSignedIn(ctx, out)
}

func (app *Application) runRegister(ctx context.Context, args []string, out io.Writer) error {
	var f authFlags
	fs := newFlagSet("register", out)
	f.register(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := app.sdk.Register(ctx, f.params(), nil); err != nil {
		return err
	}
	return app.printSignedIn(ctx, out)
}

func (app *Application) runCreateOrg(ctx context.Context, args []string, out io.Writer) error {
	var f authFlags
	fs := newFlagSet("create-org", out)
	f.register(fs)
	fs.StringVar(&f.orgName, "org-name", "", "name of the new organization")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if _, err := app.sdk.CreateOrg(ctx, f.params(), nil); err != nil {
		return err
	}
	return app.printSignedIn(ctx, out)
}

func (app *Application) printSignedIn(ctx context.Context, out io.Writer) error {
	profile, err := app.sdk.GetUserDetails(ctx)
	if err != nil {
		return err
	}
	if profile == nil || profile.Email == "" {
		fmt.Fprintln(out, "Signed in")
		return nil
	}
	fmt.Fprintf(out, "Signed in as %s\n", profile.Email)
	return nil
}

func (app *Application) runLogout(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("logout", out)
	local := fs.Bool("local", false, "only clear the local session")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *local {
		if err := app.sdk.CleanUp(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Local session cleared")
		return nil
	}

	ok, err := app.sdk.Logout(ctx, nil)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(out, "Signed out")
	} else {
		fmt.Fprintln(out, "Local session cleared; sign out at Kinde was not completed")
	}
	return nil
}

func (app *Application) runStatus(ctx context.Context, _ []string, out io.Writer) error {
	authenticated := app.sdk.IsAuthenticated(ctx)

	status, err := app.store.GetAuthStatus(ctx)
	if err != nil {
		return err
	}
	expiredAt, err := app.store.GetExpiredAt(ctx)
	if err != nil {
		return err
	}

	return writeJSON(out, map[string]any{
		"authenticated": authenticated,
		"auth_status":   status,
		"expired_at":    expiredAt,
	})
}

func (app *Application) runWhoami(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("whoami", out)
	remote := fs.Bool("remote", false, "fetch the profile from Kinde instead of the ID token")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *remote {
		profile, err := app.API(ctx).GetUserProfileV2(ctx)
		if err != nil {
			return err
		}
		return writeJSON(out, profile)
	}

	profile, err := app.sdk.GetUserDetails(ctx)
	if err != nil {
		return err
	}
	if profile == nil {
		return &kinde.UnauthenticatedError{Description: "no user profile stored"}
	}
	return writeJSON(out, profile)
}

func (app *Application) runToken(ctx context.Context, _ []string, out io.Writer) error {
	token, err := app.sdk.TokenSource(ctx).Token()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token.AccessToken)
	return nil
}

func (app *Application) runClaims(ctx context.Context, args []string, out io.Writer) error {
	fs := newFlagSet("claims", out)
	useID := fs.Bool("id", false, "read the ID token instead of the access token")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	kind := kinde.TokenKindAccess
	if *useID {
		kind = kinde.TokenKindID
	}

	if name := fs.Arg(0); name != "" {
		v, ok, err := app.sdk.GetClaim(ctx, name, kind)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("claim %q not present in %s", name, kind)
		}
		return writeJSON(out, v)
	}

	claims, err := app.sdk.GetClaims(ctx, kind)
	if err != nil {
		return err
	}
	return writeJSON(out, claims)
}

func (app *Application) runPermissions(ctx context.Context, _ []string, out io.Writer) error {
	perms, err := app.sdk.GetPermissions(ctx)
	if err != nil {
		return err
	}
	orgs, err := app.sdk.GetUserOrganizations(ctx)
	if err != nil {
		return err
	}

	sort.Strings(perms.Permissions)
	return writeJSON(out, map[string]any{
		"org_code":    perms.OrgCode,
		"permissions": perms.Permissions,
		"org_codes":   orgs.OrgCodes,
	})
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
