package contextkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKey_String(t *testing.T) {
	key := contextKey("testKey")
	assert.Equal(t, "emr-metadata-dashboard context key testKey", key.String())
}

func TestContextKeys_Usage(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, UserIDKey, "user-123")
	ctx = context.WithValue(ctx, UserEmailKey, "user@example.com")
	ctx = context.WithValue(ctx, UserRoleKey, "admin")
	ctx = context.WithValue(ctx, OrganizationIDKey, "org-abc")
	ctx = context.WithValue(ctx, ProjectIDKey, "project-789")
	ctx = context.WithValue(ctx, RequestIDKey, "req-456")
	ctx = context.WithValue(ctx, ComponentKey, "report")
	ctx = context.WithValue(ctx, OperationKey, "coverage")

	assert.Equal(t, "user-123", ctx.Value(UserIDKey))
	assert.Equal(t, "user@example.com", ctx.Value(UserEmailKey))
	assert.Equal(t, "admin", ctx.Value(UserRoleKey))
	assert.Equal(t, "org-abc", ctx.Value(OrganizationIDKey))
	assert.Equal(t, "project-789", ctx.Value(ProjectIDKey))
	assert.Equal(t, "req-456", ctx.Value(RequestIDKey))
	assert.Equal(t, "report", ctx.Value(ComponentKey))
	assert.Equal(t, "coverage", ctx.Value(OperationKey))

	// keys with the same underlying string in another package must not collide
	assert.Nil(t, ctx.Value("userID"))
}
