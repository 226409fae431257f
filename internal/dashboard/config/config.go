package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/service"

	"github.com/caarlos0/env/v6"
)

// UpstreamConfig points at the external collaborators.
type UpstreamConfig struct {
	// FormGeneratorURL serves /sheets, /generate, /status and /forms.
	FormGeneratorURL string `env:"FORM_GENERATOR_API_URL" envDefault:"http://localhost:8000"`
	// ConceptFlowURL answers the proxied health check. Defaults to the form generator.
	ConceptFlowURL         string        `env:"CONCEPT_FLOW_API_URL"`
	VerificationWebhookURL string        `env:"VERIFICATION_WEBHOOK_URL"`
	OCLSourceURL           string        `env:"OCL_SOURCE_URL"`
	OCLCollectionURL       string        `env:"OCL_COLLECTION_URL"`
	OCLAPIToken            string        `env:"OCL_API_TOKEN"`
	Timeout                time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"30s"`
}

// JobConfig tunes form generator job polling.
type JobConfig struct {
	PollInterval time.Duration `env:"JOB_POLL_INTERVAL" envDefault:"3s"`
	RetryDelay   time.Duration `env:"JOB_RETRY_DELAY" envDefault:"10s"`
	MaxErrors    int           `env:"JOB_MAX_CONSECUTIVE_ERRORS" envDefault:"0"`
	WaitTimeout  time.Duration `env:"JOB_WAIT_TIMEOUT" envDefault:"10m"`
}

// ReportConfig holds the display policy for coverage reports.
type ReportConfig struct {
	GoodThreshold    int           `env:"REPORT_GOOD_THRESHOLD" envDefault:"90"`
	WarnThreshold    int           `env:"REPORT_WARN_THRESHOLD" envDefault:"80"`
	DeployRule       string        `env:"TAB_DEPLOY_RULE" envDefault:"env.contains(\"OpenMRS\")"`
	MetadataRule     string        `env:"TAB_METADATA_RULE" envDefault:"env.contains(\"OCL\")"`
	IntegrationRule  string        `env:"TAB_INTEGRATION_RULE" envDefault:"env.contains(\"DHIS2\")"`
	CacheTTL         time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`
	SampleReportPath string        `env:"SAMPLE_REPORT_PATH"`
}

// SchedulerConfig drives periodic re-verification. An empty schedule disables it.
type SchedulerConfig struct {
	VerificationSchedule string   `env:"VERIFICATION_SCHEDULE"`
	Environments         []string `env:"VERIFICATION_ENVIRONMENTS" envSeparator:","`
	Concurrency          int      `env:"VERIFICATION_CONCURRENCY" envDefault:"4"`
}

// RedisConfig is the report cache connection.
type RedisConfig struct {
	Host            string `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string `env:"REDIS_PORT" envDefault:"6379"`
	Password        string `env:"REDIS_PASSWORD"`
	Database        int    `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int    `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool   `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime string `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime string `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

func (c RedisConfig) GetAddr() string {
	return c.Host + ":" + c.Port
}

// Config holds all configuration for the dashboard module.
type Config struct {
	DatabaseName string `env:"DATABASE_NAME" envDefault:"emr_dashboard"`
	Upstream     UpstreamConfig
	Jobs         JobConfig
	Report       ReportConfig
	Scheduler    SchedulerConfig
	Redis        RedisConfig
}

// LoadConfig reads the dashboard configuration from the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load dashboard configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Upstream.FormGeneratorURL == "" {
		return errors.New("FORM_GENERATOR_API_URL must be set")
	}
	for name, raw := range map[string]string{
		"FORM_GENERATOR_API_URL":   c.Upstream.FormGeneratorURL,
		"CONCEPT_FLOW_API_URL":     c.Upstream.ConceptFlowURL,
		"VERIFICATION_WEBHOOK_URL": c.Upstream.VerificationWebhookURL,
		"OCL_SOURCE_URL":           c.Upstream.OCLSourceURL,
		"OCL_COLLECTION_URL":       c.Upstream.OCLCollectionURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
		}
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("UPSTREAM_TIMEOUT must be positive")
	}
	if c.Jobs.PollInterval <= 0 || c.Jobs.WaitTimeout <= 0 {
		return errors.New("JOB_POLL_INTERVAL and JOB_WAIT_TIMEOUT must be positive")
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("invalid report thresholds: %w", err)
	}
	if c.Scheduler.Concurrency <= 0 {
		c.Scheduler.Concurrency = 1
	}
	return nil
}

// Thresholds is the configured bucket policy.
func (c *Config) Thresholds() service.ThresholdPolicy {
	return service.ThresholdPolicy{Good: c.Report.GoodThreshold, Warn: c.Report.WarnThreshold}
}

// TabRules are the configured CEL rules per tab.
func (c *Config) TabRules() service.TabRules {
	return service.TabRules{
		service.TabDeploy:      c.Report.DeployRule,
		service.TabMetadata:    c.Report.MetadataRule,
		service.TabIntegration: c.Report.IntegrationRule,
	}
}

// HealthURL is the upstream base used by the proxied health check.
func (c *Config) HealthURL() string {
	if c.Upstream.ConceptFlowURL != "" {
		return c.Upstream.ConceptFlowURL
	}
	return c.Upstream.FormGeneratorURL
}
