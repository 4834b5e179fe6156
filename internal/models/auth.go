package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin         UserRole = "ADMIN"
	RoleScheduleMaker UserRole = "SCHEDULE_MAKER"
	RoleEmployee      UserRole = "EMPLOYEE"
	RoleStudent       UserRole = "STUDENT"
)

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleScheduleMaker, RoleEmployee, RoleStudent:
		return true
	}
	return false
}
