package domain

import "time"

// User roles.
const (
	RoleBuyer  = "buyer"
	RoleArtist = "artist"
	RoleAdmin  = "admin"
)

// User represents the signed-in marketplace user.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// TokenPair holds the access/refresh credential pair issued by the
// marketplace API. The access token is short-lived; the refresh token is
// long-lived and exchanged for new access tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
