package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the signed-in principal as reported by the auth provider.
type Identity struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

type UserProfile struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ShortlistEntry struct {
	PropertyId string    `json:"propertyId"`
	AddedAt    time.Time `json:"addedAt"`
}
