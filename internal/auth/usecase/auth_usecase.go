package usecase

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"emr-metadata-dashboard/internal/auth/config"
	"emr-metadata-dashboard/internal/auth/domain/model"
	"emr-metadata-dashboard/internal/auth/domain/repository"
	"emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = stderrors.New("invalid credentials")
	ErrInvalidEmailFormat = stderrors.New("invalid email format")
	ErrTokenInvalid       = stderrors.New("token is invalid")
	ErrTokenRevoked       = stderrors.New("token has been revoked")
	ErrWeakPassword       = stderrors.New("password must mix upper and lower case letters, digits and symbols")
)

// Password validation constants
const (
	minPasswordLength = 8
	maxPasswordLength = 128
)

const tokenTypeBearer = "bearer"

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	numberRegex  = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>_\-]`)
)

// AuthUsecaseInterface defines the contract for authentication use cases.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Logout(ctx context.Context, tokenString string) error
	ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error)
	RefreshToken(ctx context.Context, tokenString string) (*TokenResponse, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	ResetPassword(ctx context.Context, userID string, req ResetPasswordRequest) error
}

// RegisterRequest creates an account. The first account is always an admin.
type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

// LoginRequest is the OAuth2 password form: username carries the email.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type ResetPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AuthUsecase implements the authentication logic.
type AuthUsecase struct {
	users       repository.UserRepository
	revocations repository.RevocationStore
	tokenSvc    repository.TokenService
	config      *config.Config
	log         logger.Logger
	now         func() time.Time
}

func NewAuthUsecase(
	users repository.UserRepository,
	revocations repository.RevocationStore,
	tokenSvc repository.TokenService,
	cfg *config.Config,
	log logger.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		users:       users,
		revocations: revocations,
		tokenSvc:    tokenSvc,
		config:      cfg,
		log:         log.WithComponent("auth_usecase"),
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return errors.NewValidationError("email is required")
	}
	if !emailRegex.MatchString(email) {
		return errors.NewValidationError(ErrInvalidEmailFormat.Error()).WithCause(ErrInvalidEmailFormat)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password) > maxPasswordLength {
		return errors.NewValidationError(fmt.Sprintf("password must be at most %d characters", maxPasswordLength))
	}
	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) ||
		!numberRegex.MatchString(password) || !specialRegex.MatchString(password) {
		return errors.NewValidationError(ErrWeakPassword.Error()).WithCause(ErrWeakPassword)
	}
	return nil
}

// Register creates an account. While no account exists anyone may register
// and becomes admin; afterwards only admins may create accounts.
func (uc *AuthUsecase) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	count, err := uc.users.CountUsers(ctx)
	if err != nil {
		return nil, errors.NewInfrastructureError("failed to count users").WithCause(err)
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	if count == 0 {
		role = model.RoleAdmin
	} else {
		caller, perr := utils.PrincipalFromContext(ctx)
		if perr != nil {
			return nil, errors.NewAuthorizationError("only administrators can register users").WithCause(perr)
		}
		if caller.Role != model.RoleAdmin {
			return nil, errors.NewAuthorizationError("only administrators can register users")
		}
	}
	if role == "" {
		role = model.RoleViewer
	}
	if !model.ValidRole(role) {
		return nil, errors.NewValidationError("role must be one of admin, user, viewer")
	}
	orgID := strings.TrimSpace(req.OrganizationID)
	if role != model.RoleAdmin && orgID == "" {
		return nil, errors.NewValidationError("organization_id is required for non-admin users")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password").WithCause(err)
	}

	now := uc.now().UTC()
	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		Role:           role,
		OrganizationID: orgID,
		PasswordHash:   string(hashedPassword),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.users.CreateUser(ctx, user); err != nil {
		if stderrors.Is(err, model.ErrEmailTaken) {
			return nil, errors.NewConflictError("Email already registered").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to create user").WithCause(err)
	}

	uc.log.WithContext(ctx).Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.String("organization_id", user.OrganizationID))

	user.PasswordHash = ""
	return user, nil
}

// Login checks the password and issues an access token.
func (uc *AuthUsecase) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := normalizeEmail(req.Username)
	if email == "" || req.Password == "" {
		return nil, errors.NewValidationError("username and password are required")
	}

	user, err := uc.users.GetUserByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return nil, invalidCredentials()
		}
		return nil, errors.NewInfrastructureError("failed to load user").WithCause(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		uc.log.WithContext(ctx).Warn("login rejected", zap.String("user_id", user.ID))
		return nil, invalidCredentials()
	}
	return uc.issue(ctx, user)
}

func invalidCredentials() error {
	return errors.NewAuthenticationError("Incorrect username or password").WithCause(ErrInvalidCredentials)
}

func (uc *AuthUsecase) issue(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token, err := uc.tokenSvc.GenerateToken(ctx, user)
	if err != nil {
		return nil, errors.NewInternalError("failed to generate token").WithCause(err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(uc.config.AccessTokenTTL.Seconds()),
	}, nil
}

// Logout revokes the token until it would have expired.
func (uc *AuthUsecase) Logout(ctx context.Context, tokenString string) error {
	claims, err := uc.ValidateToken(ctx, tokenString)
	if err != nil {
		return err
	}
	return uc.revoke(ctx, claims)
}

func (uc *AuthUsecase) revoke(ctx context.Context, claims *repository.Claims) error {
	if uc.revocations == nil || claims.ID == "" {
		return nil
	}
	expiresAt := uc.now().Add(uc.config.AccessTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := uc.revocations.Revoke(ctx, claims.ID, expiresAt); err != nil {
		return errors.NewInfrastructureError("failed to revoke token").WithCause(err)
	}
	return nil
}

// ValidateToken verifies the signature and expiry and rejects revoked tokens.
func (uc *AuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	claims, err := uc.tokenSvc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, errors.NewAuthenticationError("Invalid token").WithCause(ErrTokenInvalid)
	}
	if uc.revocations != nil && claims.ID != "" {
		revoked, err := uc.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, errors.NewInfrastructureError("failed to check token revocation").WithCause(err)
		}
		if revoked {
			return nil, errors.NewAuthenticationError("Invalid token").WithCause(ErrTokenRevoked)
		}
	}
	return claims, nil
}

// RefreshToken swaps a valid token for a fresh one carrying the user's
// current role and organization. The old token is revoked.
func (uc *AuthUsecase) RefreshToken(ctx context.Context, tokenString string) (*TokenResponse, error) {
	claims, err := uc.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return nil, errors.NewAuthenticationError("Invalid token").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load user").WithCause(err)
	}
	resp, err := uc.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := uc.revoke(ctx, claims); err != nil {
		uc.log.WithContext(ctx).Warn("previous token not revoked on refresh", zap.Error(err))
	}
	return resp, nil
}

func (uc *AuthUsecase) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, errors.NewValidationError("user ID is required")
	}
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return nil, errors.NewNotFoundError("user").WithCause(err)
		}
		return nil, errors.NewInfrastructureError("failed to load user").WithCause(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// ResetPassword replaces the password after checking the current one.
func (uc *AuthUsecase) ResetPassword(ctx context.Context, userID string, req ResetPasswordRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}
	user, err := uc.users.GetUserByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, model.ErrUserNotFound) {
			return errors.NewNotFoundError("user").WithCause(err)
		}
		return errors.NewInfrastructureError("failed to load user").WithCause(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return errors.NewAuthenticationError("current password is incorrect").WithCause(ErrInvalidCredentials)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.NewInternalError("failed to hash password").WithCause(err)
	}
	if err := uc.users.UpdatePassword(ctx, userID, string(hash), uc.now().UTC()); err != nil {
		return errors.NewInfrastructureError("failed to update password").WithCause(err)
	}
	uc.log.WithContext(ctx).Info("password reset", zap.String("user_id", userID))
	return nil
}

var _ AuthUsecaseInterface = (*AuthUsecase)(nil)
