package repository

import (
	"context"
	"time"

	"emr-metadata-dashboard/internal/auth/domain/model"
)

// UserRepository stores dashboard accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error
	CountUsers(ctx context.Context) (int64, error)
}

// RevocationStore remembers logged out tokens until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
