package kinde

import (
	"context"
	"slices"

	"github.com/aussiebroadwan/kinde/pkg/jwtx"
)

// GetUserDetails returns the profile decoded from the stored ID token, or
// nil when there is none.
func (s *SDK) GetUserDetails(ctx context.Context) (*UserProfile, error) {
	return s.store.GetUserProfile(ctx)
}

// GetClaims decodes the payload of the stored access or ID token.
func (s *SDK) GetClaims(ctx context.Context, kind TokenKind) (jwtx.Claims, error) {
	if !kind.Valid() {
		return nil, &UnexpectedError{Name: "tokenType"}
	}

	raw, err := s.store.GetTokenType(ctx, kind)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, &UnauthenticatedError{}
	}

	return jwtx.Decode(raw)
}

// GetClaim returns a single claim. ok is false when the token lacks it.
func (s *SDK) GetClaim(ctx context.Context, name string, kind TokenKind) (jwtx.Value, bool, error) {
	claims, err := s.GetClaims(ctx, kind)
	if err != nil {
		return jwtx.Value{}, false, err
	}
	v, ok := claims.Get(name)
	return v, ok, nil
}

func (s *SDK) GetPermissions(ctx context.Context) (*Permissions, error) {
	claims, err := s.GetClaims(ctx, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	return &Permissions{
		OrgCode:     claims.String("org_code"),
		Permissions: claims.Strings("permissions"),
	}, nil
}

func (s *SDK) GetPermission(ctx context.Context, permission string) (*Permission, error) {
	claims, err := s.GetClaims(ctx, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	return &Permission{
		OrgCode:   claims.String("org_code"),
		IsGranted: slices.Contains(claims.Strings("permissions"), permission),
	}, nil
}

func (s *SDK) GetOrganization(ctx context.Context) (*Organization, error) {
	claims, err := s.GetClaims(ctx, TokenKindAccess)
	if err != nil {
		return nil, err
	}
	return &Organization{OrgCode: claims.String("org_code")}, nil
}

func (s *SDK) GetUserOrganizations(ctx context.Context) (*UserOrganizations, error) {
	claims, err := s.GetClaims(ctx, TokenKindID)
	if err != nil {
		return nil, err
	}
	return &UserOrganizations{OrgCodes: claims.Strings("org_codes")}, nil
}
