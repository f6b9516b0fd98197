package auth

import "github.com/shopmandi/shopmandi-backend/internal/users"

// LoginRequest is the credentials payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by both register and login: a bearer token plus
// the public profile.
type AuthResponse struct {
	AccessToken string         `json:"accessToken"`
	User        *users.UserDTO `json:"user"`
}
