// Package auth performs the authentication calls against the backend:
// credential exchange, session invalidation and identity resolution.
package auth

import "time"

// Role is the coarse permission class returned by the backend.
type Role string

const (
	RoleAdmin  Role = "ROLE_ADMIN"
	RoleClient Role = "ROLE_CLIENT"
)

// User is the resolved identity of the authenticated user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Credentials is the result of a successful login. The token is opaque
// to the client; ExpiresIn bounds its lifetime.
type Credentials struct {
	Token     string
	ExpiresIn time.Duration
}
