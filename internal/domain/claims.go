package domain

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleNgo is the only role issued by this service.
const RoleNgo = "ngo"

// Claims is the JWT payload of an NGO access token. The registered Subject
// claim carries the NGO's UUID; protected handlers must derive the acting
// identity from here and nowhere else.
type Claims struct {
	Email   string `json:"email"`
	OrgName string `json:"org_name"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// NgoID parses the Subject claim as the NGO's UUID.
func (c *Claims) NgoID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenDetails is the envelope returned by signup and login.
type TokenDetails struct {
	NgoID       uuid.UUID
	Email       string
	OrgName     string
	AccessToken string
	ExpiresIn   int64 // seconds
}
