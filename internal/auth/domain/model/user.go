package model

import (
	"errors"
	"time"
)

// Roles a user may hold.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// User is a dashboard account. Non-admin users belong to one organization.
type User struct {
	ID             string    `json:"id" bson:"_id"`
	Email          string    `json:"email" bson:"email"`
	Name           string    `json:"name,omitempty" bson:"name,omitempty"`
	Role           string    `json:"role" bson:"role"`
	OrganizationID string    `json:"organization_id,omitempty" bson:"organization_id,omitempty"`
	PasswordHash   string    `json:"-" bson:"password_hash"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email is already taken")
)
