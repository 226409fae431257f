package dashboard

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"emr-metadata-dashboard/internal/dashboard/config"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The mongo client connects lazily, so wiring and routing can be checked
// without a server.
func newTestModule(t *testing.T) *DashboardModule {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	m, err := NewDashboardModule(cfg, logger.NewLoggerWithWriter(io.Discard, "error", "json"),
		client.Database("emr_dashboard_test"), nil, metrics.New(nil))
	require.NoError(t, err)
	return m
}

func TestRegisterRoutes_GuardsOnlyDashboardPrefixes(t *testing.T) {
	m := newTestModule(t)

	app := fiber.New()
	api := app.Group("/api")
	v1 := api.Group("/v1")
	v1.Post("/auth/login", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	deny := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusUnauthorized) }
	m.RegisterRoutes(app, api, v1, deny)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", fiber.StatusOK},
		{http.MethodPost, "/api/v1/auth/login", fiber.StatusOK},
		{http.MethodGet, "/api/sample-report", fiber.StatusOK},
		{http.MethodGet, "/api/v1/organizations", fiber.StatusUnauthorized},
		{http.MethodGet, "/api/v1/projects/p1/report", fiber.StatusUnauthorized},
		{http.MethodGet, "/api/v1/form-generator/forms", fiber.StatusUnauthorized},
		{http.MethodGet, "/ws/form-generator/jobs/job-1", fiber.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tc.method, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestStop_NoSchedulerNoPendingWork(t *testing.T) {
	m := newTestModule(t)
	assert.False(t, m.Scheduler.Enabled())
	assert.NoError(t, m.Stop(context.Background()))
}
