package usecase

import (
	"context"

	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/utils"
)

// Roles understood by the dashboard.
const (
	RoleAdmin  = "admin"
	RoleUser   = "user"
	RoleViewer = "viewer"
)

// CanWrite reports whether role may create or change records.
func CanWrite(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// authorize checks that the caller may access orgID, and may write when write is set.
// Admins reach every organization; other roles only their own.
func authorize(ctx context.Context, orgID string, write bool) (utils.Principal, error) {
	p, err := utils.PrincipalFromContext(ctx)
	if err != nil {
		return p, errors.NewAuthenticationError("authentication required").WithCause(err)
	}
	if write && !CanWrite(p.Role) {
		return p, errors.NewAuthorizationError("role " + p.Role + " cannot modify records")
	}
	if orgID != "" && p.Role != RoleAdmin && p.OrganizationID != orgID {
		return p, errors.NewAuthorizationError("access to organization denied")
	}
	return p, nil
}

// principalOf returns the caller's user id, empty when anonymous.
func principalOf(ctx context.Context) (string, bool) {
	p, err := utils.PrincipalFromContext(ctx)
	if err != nil {
		return "", false
	}
	return p.UserID, true
}
