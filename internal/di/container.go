package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"emr-metadata-dashboard/internal/auth"
	authconfig "emr-metadata-dashboard/internal/auth/config"
	"emr-metadata-dashboard/internal/dashboard"
	dashconfig "emr-metadata-dashboard/internal/dashboard/config"
	"emr-metadata-dashboard/internal/shared/logger"
	"emr-metadata-dashboard/internal/shared/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Container owns the process wide connections and the application modules.
type Container struct {
	mu sync.RWMutex

	Logger   logger.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	MongoClient *mongo.Client
	MongoDB     *mongo.Database
	Redis       *redis.Client

	AuthConfig      *authconfig.Config
	DashboardConfig *dashconfig.Config

	AuthModule      *auth.AuthModule
	DashboardModule *dashboard.DashboardModule
}

// NewContainer creates a container with its own metrics registry.
func NewContainer(log logger.Logger) *Container {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Container{
		Logger:   log,
		Registry: reg,
		Metrics:  metrics.New(reg),
	}
}

// ConnectMongo opens the MongoDB connection shared by all modules.
func (c *Container) ConnectMongo(ctx context.Context, authCfg *authconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(authCfg.MongoDBURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.MongoClient = client
	c.MongoDB = client.Database(authCfg.DatabaseName)
	c.AuthConfig = authCfg
	c.Logger.Info("MongoDB connection established", zap.String("database", authCfg.DatabaseName))
	return nil
}

// InitializeAuth builds the auth module on the shared database.
func (c *Container) InitializeAuth(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoDB == nil {
		return fmt.Errorf("MongoDB must be connected before the auth module")
	}
	authModule, err := auth.NewAuthModule(ctx, c.MongoDB, c.AuthConfig, c.Logger.WithComponent("auth"))
	if err != nil {
		return fmt.Errorf("failed to create auth module: %w", err)
	}
	c.AuthModule = authModule
	return nil
}

// InitializeDashboard builds the dashboard module. When Redis cannot be
// reached the dashboard runs without a report cache.
func (c *Container) InitializeDashboard(ctx context.Context, cfg *dashconfig.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.MongoDB == nil {
		return fmt.Errorf("MongoDB must be connected before the dashboard module")
	}

	var cache redis.UniversalClient
	rdb := dashconfig.NewRedisClient(cfg.Redis)
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("Redis unavailable, report cache disabled",
			zap.String("addr", cfg.Redis.GetAddr()),
			zap.Error(err))
		_ = rdb.Close()
	} else {
		c.Redis = rdb
		cache = rdb
	}

	module, err := dashboard.NewDashboardModule(cfg, c.Logger, c.MongoDB, cache, c.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create dashboard module: %w", err)
	}
	c.DashboardConfig = cfg
	c.DashboardModule = module
	return nil
}

// HealthCheck pings every backing store concurrently.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	if c.MongoClient != nil {
		g.Go(func() error {
			if err := c.MongoClient.Ping(gctx, nil); err != nil {
				return fmt.Errorf("MongoDB health check failed: %w", err)
			}
			return nil
		})
	}
	if c.Redis != nil {
		g.Go(func() error {
			if err := c.Redis.Ping(gctx).Err(); err != nil {
				return fmt.Errorf("Redis health check failed: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close stops the modules and then releases the connections.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.DashboardModule != nil {
		if err := c.DashboardModule.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("dashboard: %w", err))
		}
		c.DashboardModule = nil
	}
	c.AuthModule = nil

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
		c.Redis = nil
	}
	if c.MongoClient != nil {
		disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := c.MongoClient.Disconnect(disconnectCtx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb: %w", err))
		}
		c.MongoClient = nil
		c.MongoDB = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	c.Logger.Info("Container resources closed")
	return nil
}
