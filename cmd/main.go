package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authconfig "emr-metadata-dashboard/internal/auth/config"
	dashconfig "emr-metadata-dashboard/internal/dashboard/config"
	"emr-metadata-dashboard/internal/di"
	"emr-metadata-dashboard/internal/shared/logger"

	"github.com/caarlos0/env/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Host      string `env:"SERVER_HOST" envDefault:"localhost"`
	Port      string `env:"SERVER_PORT" envDefault:"8000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	BodyLimit int    `env:"BODY_LIMIT_MB" envDefault:"50"`

	// ProxyHeader is honoured only for requests from TrustedProxies.
	ProxyHeader    string   `env:"PROXY_HEADER"`
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}
	serverCfg := &ServerConfig{}
	if err := env.Parse(serverCfg); err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	appLogger := logger.NewLoggerWithConfig(serverCfg.LogLevel, serverCfg.LogFormat)
	appLogger.Info("Starting EMR metadata dashboard")

	authCfg, err := authconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load auth configuration: %v", err)
	}
	dashCfg, err := dashconfig.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load dashboard configuration: %v", err)
	}

	container := di.NewContainer(appLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := container.ConnectMongo(ctx, authCfg); err != nil {
		log.Fatalf("%v", err)
	}
	if err := container.InitializeAuth(ctx); err != nil {
		log.Fatalf("Failed to initialize auth module: %v", err)
	}
	if err := container.InitializeDashboard(ctx, dashCfg); err != nil {
		log.Fatalf("Failed to initialize dashboard module: %v", err)
	}

	authModule := container.AuthModule
	dashboardModule := container.DashboardModule
	authMiddleware := authModule.GetMiddleware()

	app := fiber.New(fiber.Config{
		AppName:      "EMR Metadata Dashboard API",
		BodyLimit:    serverCfg.BodyLimit * 1024 * 1024,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,

		ProxyHeader:             serverCfg.ProxyHeader,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          serverCfg.TrustedProxies,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				appLogger.WithContext(c.UserContext()).Error("unhandled HTTP error",
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   "error",
				"message": statusMessage(code),
			})
		},
	})

	app.Use(recover.New())
	app.Use(authMiddleware.RequestID(), authMiddleware.RequestContext())
	app.Use(authMiddleware.CORS())
	app.Use(authMiddleware.SecurityHeaders())

	app.Get("/health", func(c *fiber.Ctx) error {
		healthCtx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		if err := container.HealthCheck(healthCtx); err != nil {
			appLogger.Error("Health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "UNHEALTHY",
				"message": "One or more services are unhealthy",
			})
		}
		return c.JSON(fiber.Map{
			"status":    "HEALTHY",
			"timestamp": time.Now().UTC(),
			"modules": fiber.Map{
				"auth":         "initialized",
				"dashboard":    "initialized",
				"report_cache": container.Redis != nil,
			},
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	v1 := api.Group("/v1")
	authModule.RegisterRoutes(v1.Group("/auth"))
	dashboardModule.RegisterRoutes(app, api, v1, authMiddleware.Protect())

	if err := dashboardModule.Start(ctx); err != nil {
		log.Fatalf("Failed to start dashboard module: %v", err)
	}

	serverAddr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	appLogger.Info("HTTP server starting", zap.String("addr", serverAddr))

	serverShutdown := make(chan error, 1)
	go func() {
		serverShutdown <- app.Listen(serverAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverShutdown:
		if err != nil {
			appLogger.Error("Server failed", zap.Error(err))
		}
	case sig := <-quit:
		appLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			appLogger.Error("Server forced to shutdown", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// the scheduler and queued verifications stop before connections close
	if err := container.Close(shutdownCtx); err != nil {
		appLogger.Error("Failed to close container", zap.Error(err))
	}

	appLogger.Info("Application stopped")
}

func statusMessage(code int) string {
	if code >= fiber.StatusInternalServerError {
		return "Internal server error"
	}
	return fiberutils.StatusMessage(code)
}
