package utils

import (
	"context"
	"errors"
	"fmt"

	"emr-metadata-dashboard/internal/shared/contextkeys"
)

var (
	ErrValueNotFound  = errors.New("value not found in context")
	ErrValueNotString = errors.New("value in context is not a string")
	ErrNoPrincipal    = errors.New("no authenticated user in context")
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID         string
	Email          string
	Role           string
	OrganizationID string
}

func stringFromContext(ctx context.Context, key interface{ String() string }) (string, error) {
	val := ctx.Value(key)
	if val == nil {
		return "", fmt.Errorf("%s: %w", key, ErrValueNotFound)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrValueNotString)
	}
	return s, nil
}

func GetUserIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.UserIDKey)
}

func GetOrganizationIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.OrganizationIDKey)
}

func GetProjectIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.ProjectIDKey)
}

func GetRequestIDFromContext(ctx context.Context) (string, error) {
	return stringFromContext(ctx, contextkeys.RequestIDKey)
}

func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, contextkeys.ProjectIDKey, projectID)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextkeys.RequestIDKey, requestID)
}

func WithOperation(ctx context.Context, component, operation string) context.Context {
	ctx = context.WithValue(ctx, contextkeys.ComponentKey, component)
	return context.WithValue(ctx, contextkeys.OperationKey, operation)
}

// WithPrincipal stores every identity attribute of p under its own key.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, p.UserID)
	ctx = context.WithValue(ctx, contextkeys.UserEmailKey, p.Email)
	ctx = context.WithValue(ctx, contextkeys.UserRoleKey, p.Role)
	return context.WithValue(ctx, contextkeys.OrganizationIDKey, p.OrganizationID)
}

// PrincipalFromContext requires at least a user id to be present.
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil || userID == "" {
		return Principal{}, ErrNoPrincipal
	}
	p := Principal{UserID: userID}
	p.Email, _ = ctx.Value(contextkeys.UserEmailKey).(string)
	p.Role, _ = ctx.Value(contextkeys.UserRoleKey).(string)
	p.OrganizationID, _ = ctx.Value(contextkeys.OrganizationIDKey).(string)
	return p, nil
}
