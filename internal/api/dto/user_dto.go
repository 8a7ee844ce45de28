package dto

import "time"

// LoginRequest carries the directory login email.
type LoginRequest struct {
	Email string `json:"email"`
}

// OAuthCallbackRequest carries the authorization code returned by the IdP.
type OAuthCallbackRequest struct {
	Code string `json:"code"`
}

// SessionResponse is returned on successful authentication.
type SessionResponse struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
