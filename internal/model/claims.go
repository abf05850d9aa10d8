package model

import "github.com/golang-jwt/jwt/v5"

// UserClaim is the payload carried inside an access token and attached to
// the request context once the token is verified.
type UserClaim struct {
	jwt.RegisteredClaims
	ID    int64  `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	// PasswordTemporary is set for tokens issued against an admin-generated
	// password. Such tokens may only be used to change it.
	PasswordTemporary bool `json:"pwdTemp,omitempty"`
}

func (c UserClaim) Identity() Identity {
	return Identity{
		ID:                c.ID,
		Role:              c.Role,
		Email:             c.Email,
		Name:              c.Name,
		PasswordTemporary: c.PasswordTemporary,
	}
}

// HasRole reports whether the claim role is one of roles.
func (c UserClaim) HasRole(roles ...string) bool {
	if c.Role == "" {
		return false
	}
	for _, r := range roles {
		if r == c.Role {
			return true
		}
	}
	return false
}

// Identity is the caller description exposed to clients.
type Identity struct {
	ID                int64  `json:"id"`
	Role              string `json:"role"`
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PasswordTemporary bool   `json:"passwordTemporary"`
}
