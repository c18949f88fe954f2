// Package store persists the state of a single login session: the token set,
// its absolute expiry, the PKCE state and verifier, the cached user profile and
// the authentication status.
//
// Store defines the key schema and typed accessors. The storage engine is a
// Backend; this package ships an in-memory one and an encrypting decorator,
// and drivers/sqlite and drivers/redis provide durable ones.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/kinde/pkg/jwtx"
)

// Session keys. Every key is separately addressable and all of them are
// cleared together by ClearAll.
const (
	KeyToken        = "token"
	KeyExpiredAt    = "expired_at"
	KeyUserProfile  = "user_profile"
	KeyState        = "state"
	KeyCodeVerifier = "code_verifier"
	KeyAuthStatus   = "auth_status"
)

// Keys lists every key of the session schema.
var Keys = []string{
	KeyToken,
	KeyExpiredAt,
	KeyUserProfile,
	KeyState,
	KeyCodeVerifier,
	KeyAuthStatus,
}

var ErrUnsupportedTokenKind = errors.New("store: unsupported token kind")

// Backend is a flat string key/value map scoped to one session.
type Backend interface {
	// Get returns the value stored under key. ok is false when absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes every entry as one atomic batch. An empty value deletes the
	// key. Readers never observe half of a batch.
	Set(ctx context.Context, values map[string]string) error

	// Clear removes every key of the session atomically.
	Clear(ctx context.Context) error

	// Close releases any underlying resources.
	Close() error
}

// TokenSet is the token endpoint's successful response, stored verbatim.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// TokenKind names one of the tokens in a TokenSet.
type TokenKind string

const (
	TokenKindAccess TokenKind = "access_token"
	TokenKindID     TokenKind = "id_token"
)

// Valid reports whether the kind can be looked up with GetTokenType.
func (k TokenKind) Valid() bool {
	return k == TokenKindAccess || k == TokenKindID
}

// UserProfile is derived from the ID token payload.
type UserProfile struct {
	ID         string `json:"id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
}

type AuthStatus string

const (
	AuthStatusUnauthenticated AuthStatus = "UNAUTHENTICATED"
	AuthStatusAuthenticating  AuthStatus = "AUTHENTICATING"
	AuthStatusAuthenticated   AuthStatus = "AUTHENTICATED"
)

// Store is the typed session schema over a Backend.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Backend returns the storage engine the store writes to.
func (s *Store) Backend() Backend { return s.backend }

func (s *Store) Close() error { return s.backend.Close() }

// SetToken commits the token set, its absolute expiry (now + expires_in
// seconds, in epoch millis) and the profile decoded from its ID token in one
// batch. If the ID token cannot be decoded nothing is written.
func (s *Store) SetToken(ctx context.Context, token TokenSet, now time.Time) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	profile := ""
	if token.IDToken != "" {
		p, err := ProfileFromIDToken(token.IDToken)
		if err != nil {
			return err
		}
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode user profile: %w", err)
		}
		profile = string(b)
	}

	expiredAt := now.UnixMilli() + token.ExpiresIn*1000

	return s.backend.Set(ctx, map[string]string{
		KeyToken:       string(raw),
		KeyExpiredAt:   strconv.FormatInt(expiredAt, 10),
		KeyUserProfile: profile,
	})
}

// GetToken returns the stored token set, or nil when there is none.
func (s *Store) GetToken(ctx context.Context) (*TokenSet, error) {
	raw, ok, err := s.backend.Get(ctx, KeyToken)
	if err != nil || !ok {
		return nil, err
	}

	var token TokenSet
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decode stored token: %w", err)
	}
	return &token, nil
}

// GetTokenType returns one raw token from the stored set, or "" when absent.
func (s *Store) GetTokenType(ctx context.Context, kind TokenKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedTokenKind, kind)
	}

	token, err := s.GetToken(ctx)
	if err != nil || token == nil {
		return "", err
	}

	if kind == TokenKindID {
		return token.IDToken, nil
	}
	return token.AccessToken, nil
}

// GetExpiredAt returns the absolute expiry in epoch millis, 0 when absent.
func (s *Store) GetExpiredAt(ctx context.Context) (int64, error) {
	raw, ok, err := s.backend.Get(ctx, KeyExpiredAt)
	if err != nil || !ok {
		return 0, err
	}

	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode stored expiry: %w", err)
	}
	return ms, nil
}

func (s *Store) SetExpiredAt(ctx context.Context, epochMillis int64) error {
	return s.set(ctx, KeyExpiredAt, strconv.FormatInt(epochMillis, 10))
}

func (s *Store) GetState(ctx context.Context) (string, error) {
	return s.get(ctx, KeyState)
}

func (s *Store) SetState(ctx context.Context, state string) error {
	return s.set(ctx, KeyState, state)
}

func (s *Store) GetCodeVerifier(ctx context.Context) (string, error) {
	return s.get(ctx, KeyCodeVerifier)
}

func (s *Store) SetCodeVerifier(ctx context.Context, verifier string) error {
	return s.set(ctx, KeyCodeVerifier, verifier)
}

// SetChallenge persists the state and verifier of a PKCE challenge together.
func (s *Store) SetChallenge(ctx context.Context, state, verifier string) error {
	return s.backend.Set(ctx, map[string]string{
		KeyState:        state,
		KeyCodeVerifier: verifier,
	})
}

// GetUserProfile returns the cached profile, or nil when there is none.
func (s *Store) GetUserProfile(ctx context.Context) (*UserProfile, error) {
	raw, ok, err := s.backend.Get(ctx, KeyUserProfile)
	if err != nil || !ok {
		return nil, err
	}

	var profile UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decode stored user profile: %w", err)
	}
	return &profile, nil
}

// SetUserProfile replaces the cached profile. nil removes it.
func (s *Store) SetUserProfile(ctx context.Context, profile *UserProfile) error {
	if profile == nil {
		return s.set(ctx, KeyUserProfile, "")
	}

	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	return s.set(ctx, KeyUserProfile, string(raw))
}

// GetAuthStatus returns the tracked status, AuthStatusUnauthenticated when
// nothing has been recorded.
func (s *Store) GetAuthStatus(ctx context.Context) (AuthStatus, error) {
	raw, err := s.get(ctx, KeyAuthStatus)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return AuthStatusUnauthenticated, nil
	}
	return AuthStatus(raw), nil
}

func (s *Store) SetAuthStatus(ctx context.Context, status AuthStatus) error {
	return s.set(ctx, KeyAuthStatus, string(status))
}

// ClearAll wipes the whole session.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.backend.Clear(ctx)
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.backend.Get(ctx, key)
	return v, err
}

func (s *Store) set(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, map[string]string{key: value})
}

// ProfileFromIDToken decodes the user profile from an ID token payload. The
// signature is not checked here.
func ProfileFromIDToken(idToken string) (*UserProfile, error) {
	claims, err := jwtx.Decode(idToken)
	if err != nil {
		return nil, fmt.Errorf("decode id token: %w", err)
	}

	return &UserProfile{
		ID:         claims.String("sub"),
		GivenName:  claims.String("given_name"),
		FamilyName: claims.String("family_name"),
		Email:      claims.String("email"),
	}, nil
}
