package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"emr-metadata-dashboard/internal/auth"
	"emr-metadata-dashboard/internal/auth/config"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AuthIntegrationTestSuite struct {
	suite.Suite
	app      *fiber.App
	client   *mongo.Client
	database *mongo.Database
}

func (suite *AuthIntegrationTestSuite) SetupSuite() {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		suite.T().Skip("MongoDB not available for integration tests")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		suite.T().Skip("MongoDB not available for integration tests")
	}
	suite.client = client
	suite.database = client.Database("emr_auth_it_" + uuid.NewString()[:8])

	cfg := &config.Config{
		MongoDBURI:     uri,
		JWTSecretKey:   "integration-secret-key-0123456789",
		JWTIssuer:      "emr-metadata-dashboard",
		AccessTokenTTL: 15 * time.Minute,
		CookieName:     "emr_auth_token",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		LoginRateLimit: 100,
	}
	module, err := auth.NewAuthModule(ctx, suite.database, cfg, logger.NewLoggerWithWriter(io.Discard, "error", "json"))
	require.NoError(suite.T(), err)

	suite.app = fiber.New()
	module.RegisterRoutes(suite.app.Group("/auth"))
}

func (suite *AuthIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		_ = suite.database.Drop(context.Background())
		_ = suite.client.Disconnect(context.Background())
	}
}

func (suite *AuthIntegrationTestSuite) call(req *http.Request) (int, map[string]interface{}) {
	resp, err := suite.app.Test(req, 10000)
	require.NoError(suite.T(), err)
	var body map[string]interface{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body
}

func (suite *AuthIntegrationTestSuite) TestBootstrapLoginLogout() {
	register := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"root@example.org","password":"Passw0rd!x"}`))
	register.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	status, body := suite.call(register)
	require.Equal(suite.T(), fiber.StatusCreated, status, body)
	assert.Equal(suite.T(), "admin", body["role"])

	// a second anonymous registration is refused once an account exists
	again := httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"email":"other@example.org","password":"Passw0rd!x","organization_id":"org-1"}`))
	again.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	status, _ = suite.call(again)
	assert.Equal(suite.T(), fiber.StatusForbidden, status)

	form := url.Values{"username": {"root@example.org"}, "password": {"Passw0rd!x"}}
	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	login.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	status, body = suite.call(login)
	require.Equal(suite.T(), fiber.StatusOK, status, body)
	token, _ := body["access_token"].(string)
	require.NotEmpty(suite.T(), token)

	me := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+token)
	status, body = suite.call(me)
	assert.Equal(suite.T(), fiber.StatusOK, status)
	assert.Equal(suite.T(), "root@example.org", body["email"])

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.Header.Set("Authorization", "Bearer "+token)
	status, _ = suite.call(logout)
	assert.Equal(suite.T(), fiber.StatusOK, status)

	me = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	me.Header.Set("Authorization", "Bearer "+token)
	status, _ = suite.call(me)
	assert.Equal(suite.T(), fiber.StatusUnauthorized, status)
}

func TestAuthIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthIntegrationTestSuite))
}
