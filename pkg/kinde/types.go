package kinde

import "github.com/aussiebroadwan/kinde/pkg/store"

type (
	TokenSet    = store.TokenSet
	UserProfile = store.UserProfile
	TokenKind   = store.TokenKind
	AuthStatus  = store.AuthStatus
)

const (
	TokenKindAccess = store.TokenKindAccess
	TokenKindID     = store.TokenKindID
)

// StartPage selects which hosted page the authorize URL opens on.
type StartPage string

const (
	StartPageLogin        StartPage = "login"
	StartPageRegistration StartPage = "registration"
)

// Permissions lists the permissions granted in the access token.
type Permissions struct {
	OrgCode     string   `json:"orgCode"`
	Permissions []string `json:"permissions"`
}

// Permission reports whether a single permission is granted.
type Permission struct {
	OrgCode   string `json:"orgCode"`
	IsGranted bool   `json:"isGranted"`
}

type Organization struct {
	OrgCode string `json:"orgCode"`
}

// UserOrganizations lists the organizations in the ID token's org_codes claim.
type UserOrganizations struct {
	OrgCodes []string `json:"orgCodes"`
}
