package oauthapi

// UserProfile is the response of GET /oauth2/user_profile.
type UserProfile struct {
	ID             string `json:"id"`
	ProvidedID     string `json:"provided_id,omitempty"`
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	PreferredEmail string `json:"preferred_email"`
}

// UserProfileV2 is the response of GET /oauth2/v2/user_profile.
type UserProfileV2 struct {
	ID         string `json:"id"`
	Sub        string `json:"sub"`
	ProvidedID string `json:"provided_id,omitempty"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	// UpdatedAt is seconds since the epoch.
	UpdatedAt int64  `json:"updated_at"`
	Email     string `json:"email"`
	Picture   string `json:"picture"`
}
