package auth

import (
	"context"
	"fmt"

	authhttp "emr-metadata-dashboard/internal/auth/adapter/http"
	"emr-metadata-dashboard/internal/auth/adapter/persistence/mongodb"
	"emr-metadata-dashboard/internal/auth/adapter/security"
	"emr-metadata-dashboard/internal/auth/config"
	"emr-metadata-dashboard/internal/auth/usecase"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthModule represents the complete authentication module
type AuthModule struct {
	usecase    usecase.AuthUsecaseInterface
	handler    *authhttp.AuthHTTPHandler
	middleware *authhttp.AuthMiddleware
	config     *config.Config
}

// NewAuthModule wires the Mongo user store, the JWT service and the HTTP
// layer. Indexes are created on the way.
func NewAuthModule(ctx context.Context, db *mongo.Database, cfg *config.Config, log logger.Logger) (*AuthModule, error) {
	authRepo, err := mongodb.NewMongoAuthRepository(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth repository: %w", err)
	}

	tokenSvc, err := security.NewJWTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	authUsecase := usecase.NewAuthUsecase(authRepo, authRepo, tokenSvc, cfg, log)

	return &AuthModule{
		usecase:    authUsecase,
		handler:    authhttp.NewAuthHTTPHandler(authUsecase, cfg, log),
		middleware: authhttp.NewAuthMiddleware(authUsecase, cfg),
		config:     cfg,
	}, nil
}

// RegisterRoutes registers authentication routes with the provided router
func (am *AuthModule) RegisterRoutes(router fiber.Router) {
	am.handler.SetupAuthRoutesWithMiddleware(router, am.middleware)
}

// GetUsecase returns the auth usecase for external access
func (am *AuthModule) GetUsecase() usecase.AuthUsecaseInterface {
	return am.usecase
}

// GetMiddleware returns the auth middleware
func (am *AuthModule) GetMiddleware() *authhttp.AuthMiddleware {
	return am.middleware
}
