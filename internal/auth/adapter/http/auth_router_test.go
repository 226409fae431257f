package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	authhttp "emr-metadata-dashboard/internal/auth/adapter/http"
	"emr-metadata-dashboard/internal/auth/domain/model"
	"emr-metadata-dashboard/internal/auth/domain/repository"
	"emr-metadata-dashboard/internal/auth/usecase"
	apperrors "emr-metadata-dashboard/internal/shared/errors"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AuthRouterTestSuite struct {
	suite.Suite
	uc  *mockAuthUsecase
	app *fiber.App
}

func (suite *AuthRouterTestSuite) SetupTest() {
	suite.uc = new(mockAuthUsecase)
	cfg := testConfig()
	handler := authhttp.NewAuthHTTPHandler(suite.uc, cfg, logger.NewLoggerWithWriter(io.Discard, "error", "json"))
	middleware := authhttp.NewAuthMiddleware(suite.uc, cfg)

	suite.app = fiber.New()
	handler.SetupAuthRoutesWithMiddleware(suite.app.Group("/auth"), middleware)
}

func (suite *AuthRouterTestSuite) TearDownTest() {
	suite.uc.AssertExpectations(suite.T())
}

func (suite *AuthRouterTestSuite) do(req *http.Request) (*http.Response, map[string]interface{}) {
	resp, err := suite.app.Test(req)
	require.NoError(suite.T(), err)
	var body map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	return resp, body
}

func loginForm(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return req
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (suite *AuthRouterTestSuite) expectToken(token string, role string) {
	suite.uc.On("ValidateToken", mock.Anything, token).
		Return(&repository.Claims{UserID: "user-1", Role: role, OrganizationID: "org-1"}, nil)
}

func (suite *AuthRouterTestSuite) TestLogin_SetsCookie() {
	suite.uc.On("Login", mock.Anything, usecase.LoginRequest{Username: "a@example.org", Password: "pw"}).
		Return(&usecase.TokenResponse{AccessToken: "signed", TokenType: "bearer", ExpiresIn: 3600}, nil)

	resp, body := suite.do(loginForm("a@example.org", "pw"))

	assert.Equal(suite.T(), fiber.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "signed", body["access_token"])
	assert.Equal(suite.T(), "bearer", body["token_type"])
	cookie := resp.Header.Get("Set-Cookie")
	assert.Contains(suite.T(), cookie, "emr_auth_token=signed")
	assert.Contains(suite.T(), strings.ToLower(cookie), "httponly")
}

func (suite *AuthRouterTestSuite) TestLogin_InvalidCredentials() {
	suite.uc.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAuthenticationError("Incorrect username or password").WithCause(usecase.ErrInvalidCredentials))

	resp, body := suite.do(loginForm("a@example.org", "bad"))

	assert.Equal(suite.T(), fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(suite.T(), "unauthorized", body["error"])
	assert.Equal(suite.T(), "Incorrect username or password", body["message"])
}

func (suite *AuthRouterTestSuite) TestLogin_RateLimited() {
	suite.uc.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAuthenticationError("Incorrect username or password"))

	for i := 0; i < 2; i++ {
		resp, _ := suite.do(loginForm("a@example.org", "bad"))
		assert.Equal(suite.T(), fiber.StatusUnauthorized, resp.StatusCode)
	}
	resp, body := suite.do(loginForm("a@example.org", "bad"))
	assert.Equal(suite.T(), fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(suite.T(), "rate_limited", body["error"])
}

func (suite *AuthRouterTestSuite) TestLogin_RateLimitIgnoresForwardedFor() {
	suite.uc.On("Login", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAuthenticationError("Incorrect username or password"))

	for i, addr := range []string{"203.0.113.1", "203.0.113.2"} {
		req := loginForm("a@example.org", "bad")
		req.Header.Set("X-Forwarded-For", addr)
		resp, _ := suite.do(req)
		assert.Equal(suite.T(), fiber.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}
	req := loginForm("a@example.org", "bad")
	req.Header.Set("X-Forwarded-For", "203.0.113.3")
	resp, body := suite.do(req)
	assert.Equal(suite.T(), fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(suite.T(), "rate_limited", body["error"])
}

func (suite *AuthRouterTestSuite) TestRegister_Bootstrap() {
	req := usecase.RegisterRequest{Email: "root@example.org", Password: "Passw0rd!x"}
	suite.uc.On("Register", mock.Anything, req).
		Return(&model.User{ID: "u1", Email: "root@example.org", Role: model.RoleAdmin}, nil)

	payload, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(string(payload)))
	httpReq.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, body := suite.do(httpReq)

	assert.Equal(suite.T(), fiber.StatusCreated, resp.StatusCode)
	assert.Equal(suite.T(), "admin", body["role"])
	assert.NotContains(suite.T(), body, "password_hash")
}

func (suite *AuthRouterTestSuite) TestRegister_Forbidden() {
	suite.uc.On("Register", mock.Anything, mock.Anything).
		Return(nil, apperrors.NewAuthorizationError("only administrators can register users"))

	httpReq := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"x@example.org"}`))
	httpReq.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, body := suite.do(httpReq)

	assert.Equal(suite.T(), fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(suite.T(), "forbidden", body["error"])
}

func (suite *AuthRouterTestSuite) TestMe() {
	suite.expectToken("tok", model.RoleViewer)
	suite.uc.On("GetUserByID", mock.Anything, "user-1").
		Return(&model.User{ID: "user-1", Email: "a@example.org", Role: model.RoleViewer}, nil)

	resp, body := suite.do(bearer(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "tok"))

	assert.Equal(suite.T(), fiber.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "a@example.org", body["email"])
}

func (suite *AuthRouterTestSuite) TestMe_Unauthenticated() {
	resp, _ := suite.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(suite.T(), fiber.StatusUnauthorized, resp.StatusCode)
}

func (suite *AuthRouterTestSuite) TestLogout_RevokesAndClearsCookie() {
	suite.expectToken("tok", model.RoleUser)
	suite.uc.On("Logout", mock.Anything, "tok").Return(nil)

	resp, _ := suite.do(bearer(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "tok"))

	assert.Equal(suite.T(), fiber.StatusOK, resp.StatusCode)
	assert.Contains(suite.T(), resp.Header.Get("Set-Cookie"), "emr_auth_token=;")
}

func (suite *AuthRouterTestSuite) TestRefresh() {
	suite.uc.On("RefreshToken", mock.Anything, "old").
		Return(&usecase.TokenResponse{AccessToken: "new", TokenType: "bearer", ExpiresIn: 3600}, nil)

	resp, body := suite.do(bearer(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), "old"))

	assert.Equal(suite.T(), fiber.StatusOK, resp.StatusCode)
	assert.Equal(suite.T(), "new", body["access_token"])
	assert.Contains(suite.T(), resp.Header.Get("Set-Cookie"), "emr_auth_token=new")
}

func (suite *AuthRouterTestSuite) TestRefresh_NoToken() {
	resp, body := suite.do(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.Equal(suite.T(), fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(suite.T(), "Authentication required", body["message"])
}

func (suite *AuthRouterTestSuite) TestResetPassword() {
	suite.expectToken("tok", model.RoleUser)
	req := usecase.ResetPasswordRequest{CurrentPassword: "old", NewPassword: "N3w-Password"}
	suite.uc.On("ResetPassword", mock.Anything, "user-1", req).Return(nil)

	payload, _ := json.Marshal(req)
	httpReq := bearer(httptest.NewRequest(http.MethodPost, "/auth/reset-password", strings.NewReader(string(payload))), "tok")
	httpReq.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, _ := suite.do(httpReq)

	assert.Equal(suite.T(), fiber.StatusOK, resp.StatusCode)
}

func (suite *AuthRouterTestSuite) TestInfrastructureErrorIsMasked() {
	suite.expectToken("tok", model.RoleUser)
	suite.uc.On("GetUserByID", mock.Anything, "user-1").
		Return(nil, apperrors.NewInfrastructureError("failed to load user").WithCause(errors.New("mongo: connection refused")))

	resp, body := suite.do(bearer(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "tok"))

	assert.Equal(suite.T(), fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(suite.T(), "Internal server error", body["message"])
}

func TestAuthRouterTestSuite(t *testing.T) {
	suite.Run(t, new(AuthRouterTestSuite))
}
