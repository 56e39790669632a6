// Package config defines all configuration structures for the
// EntityRisk-Intelligence platform.  No I/O or parsing logic lives here;
// only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// RedisConfig holds Redis connection parameters for the record store.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	GroupID         string   `mapstructure:"group_id"`
	AutoOffsetReset string   `mapstructure:"auto_offset_reset"` // "earliest" | "latest"
	TimeoutMS       int      `mapstructure:"timeout_ms"`
	ProducerRetries int      `mapstructure:"producer_retries"`
	BatchSize       int      `mapstructure:"batch_size"`
}

// OpenSearchConfig holds the internal corpus search cluster parameters.
type OpenSearchConfig struct {
	Addresses          []string `mapstructure:"addresses"`
	User               string   `mapstructure:"user"`
	Password           string   `mapstructure:"password"`
	InsecureSkipVerify bool     `mapstructure:"insecure_skip_verify"`
	Index              string   `mapstructure:"index"`
}

// SerperConfig holds the external web search gateway parameters.
type SerperConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig holds the risk-scoring inference endpoint parameters.
type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	TopP        float32       `mapstructure:"top_p"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CallDelay   time.Duration `mapstructure:"call_delay"`
}

// WorkflowConfig holds the synchronous-mode workflow engine parameters.
type WorkflowConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	StateMachine string        `mapstructure:"state_machine"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollCeiling  time.Duration `mapstructure:"poll_ceiling"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScreeningConfig holds entity-screening fan-out parameters.
type ScreeningConfig struct {
	MaxQueriesPerCategory int     `mapstructure:"max_queries_per_category"`
	SearchRatePerSecond   float64 `mapstructure:"search_rate_per_second"`
	DefaultResultCount    int     `mapstructure:"default_result_count"`
}

// StoreConfig holds record retention parameters.
type StoreConfig struct {
	SearchTTL      time.Duration `mapstructure:"search_ttl"`
	RiskTTL        time.Duration `mapstructure:"risk_ttl"`
	SweepBatchSize int           `mapstructure:"sweep_batch_size"`
}

// WorkerConfig holds background-worker execution parameters.
type WorkerConfig struct {
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// Config is the root configuration structure for the entire platform.
// Every infrastructure component and application service reads its settings
// from the relevant sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Serper     SerperConfig     `mapstructure:"serper"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Workflow   WorkflowConfig   `mapstructure:"workflow"`
	Screening  ScreeningConfig  `mapstructure:"screening"`
	Store      StoreConfig      `mapstructure:"store"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Redis
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}

	// Serper
	if c.Serper.BaseURL == "" {
		return fmt.Errorf("config: serper.base_url is required")
	}

	// LLM
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("config: llm.base_url is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config: llm.temperature %v is out of range [0, 2]", c.LLM.Temperature)
	}

	// Workflow
	if c.Workflow.PollInterval <= 0 {
		return fmt.Errorf("config: workflow.poll_interval must be positive")
	}
	if c.Workflow.PollCeiling < c.Workflow.PollInterval {
		return fmt.Errorf("config: workflow.poll_ceiling must be >= workflow.poll_interval")
	}

	// Screening
	if c.Screening.MaxQueriesPerCategory < 1 {
		return fmt.Errorf("config: screening.max_queries_per_category must be >= 1, got %d", c.Screening.MaxQueriesPerCategory)
	}
	if c.Screening.SearchRatePerSecond <= 0 {
		return fmt.Errorf("config: screening.search_rate_per_second must be positive")
	}
	if c.Screening.DefaultResultCount < 1 || c.Screening.DefaultResultCount > 100 {
		return fmt.Errorf("config: screening.default_result_count %d is out of range [1, 100]", c.Screening.DefaultResultCount)
	}

	// Store
	if c.Store.SearchTTL <= 0 {
		return fmt.Errorf("config: store.search_ttl must be positive")
	}
	if c.Store.RiskTTL <= 0 {
		return fmt.Errorf("config: store.risk_ttl must be positive")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
