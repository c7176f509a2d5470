// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Engine     EngineConfig            `mapstructure:"engine"`
	Classifier ClassifierConfig        `mapstructure:"classifier"`
	Vocabulary VocabularyConfig        `mapstructure:"vocabulary"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// Enabled reports whether a postgres host is configured.
func (p PostgresConfig) Enabled() bool { return p.Host != "" }

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a redis address is configured.
func (r RedisConfig) Enabled() bool { return r.Address != "" }

// EngineConfig tunes the resolution pipeline and the conversation store.
type EngineConfig struct {
	ContextTTL            int    `mapstructure:"context_ttl"` // seconds
	HistorySize           int    `mapstructure:"history_size"`
	KeywordsFile          string `mapstructure:"keywords_file"`
	LearnedReloadInterval int    `mapstructure:"learned_reload_interval"` // seconds, 0 disables
	LearningEnabled       bool   `mapstructure:"learning_enabled"`
	StatusField           string `mapstructure:"status_field"`
	ConfirmationMaxTokens int    `mapstructure:"confirmation_max_tokens"`
	PersistContext        bool   `mapstructure:"persist_context"`
}

// ContextTTLDuration returns the inactivity TTL.
func (e EngineConfig) ContextTTLDuration() time.Duration {
	return time.Duration(e.ContextTTL) * time.Second
}

// ClassifierConfig selects and configures the external classifier.
type ClassifierConfig struct {
	Provider   string   `mapstructure:"provider"` // none | http | gemini
	BaseURL    string   `mapstructure:"base_url"`
	Model      string   `mapstructure:"model"`
	APIKeys    []string `mapstructure:"api_keys"`
	DailyLimit int      `mapstructure:"daily_limit"`
	Timeout    int      `mapstructure:"timeout"` // milliseconds
}

// Enabled reports whether a provider is selected.
func (c ClassifierConfig) Enabled() bool {
	return c.Provider != "" && c.Provider != "none"
}

// VocabularyConfig describes where brand/branch/buyer snapshots come from.
type VocabularyConfig struct {
	Source          string `mapstructure:"source"` // none | postgres | elasticsearch
	RefreshInterval int    `mapstructure:"refresh_interval"` // seconds
	BrandsQuery     string `mapstructure:"brands_query"`
	BranchesQuery   string `mapstructure:"branches_query"`
	BuyersQuery     string `mapstructure:"buyers_query"`
	Index           string `mapstructure:"index"`
	BrandsField     string `mapstructure:"brands_field"`
	BranchesField   string `mapstructure:"branches_field"`
	BuyersField     string `mapstructure:"buyers_field"`
	MaxTerms        int    `mapstructure:"max_terms"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
	MaxRows       int  `mapstructure:"max_rows"`    // rows copied into process variables, 0 uses the worker default
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
