// Package config provides configuration loading, defaults, and validation for
// the EntityRisk-Intelligence platform.
package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker  = "localhost:9092"
	DefaultKafkaGroupID = "erisk-group"

	DefaultSerperBaseURL = "https://google.serper.dev/search"
	DefaultSerperTimeout = 30 * time.Second

	DefaultLLMBaseURL   = "http://localhost:8000/v1"
	DefaultLLMModel     = "risk-analyst-v1"
	DefaultLLMMaxTokens = 500
	DefaultLLMCallDelay = 200 * time.Millisecond

	DefaultWorkflowPollInterval = 2 * time.Second
	DefaultWorkflowPollCeiling  = 60 * time.Second

	DefaultMaxQueriesPerCategory = 5
	DefaultSearchRatePerSecond   = 2.0
	DefaultResultCount           = 10

	DefaultSearchTTL      = 30 * 24 * time.Hour
	DefaultRiskTTL        = 90 * 24 * time.Hour
	DefaultSweepBatchSize = 100

	DefaultWorkerConcurrency = 4

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the platform
// default.  Fields that have already been set by the caller (non-zero values)
// are left unchanged so that explicit configuration always wins.  It must be
// called after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "erisk"
	}
	// Redis.DB is an int; 0 is a valid explicit value so we cannot distinguish
	// "not set" from "set to 0".  We leave it as-is (0 is also the default).

	// Kafka
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.AutoOffsetReset == "" {
		cfg.Kafka.AutoOffsetReset = "earliest"
	}

	// Serper
	if cfg.Serper.BaseURL == "" {
		cfg.Serper.BaseURL = DefaultSerperBaseURL
	}
	if cfg.Serper.Timeout == 0 {
		cfg.Serper.Timeout = DefaultSerperTimeout
	}

	// LLM
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.9
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = DefaultLLMMaxTokens
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.CallDelay == 0 {
		cfg.LLM.CallDelay = DefaultLLMCallDelay
	}

	// Workflow
	if cfg.Workflow.PollInterval == 0 {
		cfg.Workflow.PollInterval = DefaultWorkflowPollInterval
	}
	if cfg.Workflow.PollCeiling == 0 {
		cfg.Workflow.PollCeiling = DefaultWorkflowPollCeiling
	}
	if cfg.Workflow.Timeout == 0 {
		cfg.Workflow.Timeout = 30 * time.Second
	}

	// Screening
	if cfg.Screening.MaxQueriesPerCategory == 0 {
		cfg.Screening.MaxQueriesPerCategory = DefaultMaxQueriesPerCategory
	}
	if cfg.Screening.SearchRatePerSecond == 0 {
		cfg.Screening.SearchRatePerSecond = DefaultSearchRatePerSecond
	}
	if cfg.Screening.DefaultResultCount == 0 {
		cfg.Screening.DefaultResultCount = DefaultResultCount
	}

	// Store
	if cfg.Store.SearchTTL == 0 {
		cfg.Store.SearchTTL = DefaultSearchTTL
	}
	if cfg.Store.RiskTTL == 0 {
		cfg.Store.RiskTTL = DefaultRiskTTL
	}
	if cfg.Store.SweepBatchSize == 0 {
		cfg.Store.SweepBatchSize = DefaultSweepBatchSize
	}

	// Worker
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.MaxRetries == 0 {
		cfg.Worker.MaxRetries = 3
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
