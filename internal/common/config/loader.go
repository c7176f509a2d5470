// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are commonly provided only through the
// environment.
func overrideEmptyConfig(cfg *Config) {
	if len(cfg.Classifier.APIKeys) == 0 {
		if val := os.Getenv("GEMINI_API_KEYS"); val != "" {
			for _, k := range strings.Split(val, ",") {
				if k = strings.TrimSpace(k); k != "" {
					cfg.Classifier.APIKeys = append(cfg.Classifier.APIKeys, k)
				}
			}
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "intent-engine"
	}
	if cfg.App.MetricsPort == 0 {
		cfg.App.MetricsPort = 9090
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.Engine.ContextTTL == 0 {
		cfg.Engine.ContextTTL = 3600
	}
	if cfg.Engine.HistorySize == 0 {
		cfg.Engine.HistorySize = 10
	}
	if cfg.Engine.StatusField == "" {
		cfg.Engine.StatusField = "status"
	}
	if cfg.Engine.ConfirmationMaxTokens == 0 {
		cfg.Engine.ConfirmationMaxTokens = 3
	}

	if cfg.Classifier.Provider == "" {
		cfg.Classifier.Provider = "none"
	}
	if cfg.Classifier.Timeout == 0 {
		cfg.Classifier.Timeout = 8000
	}
	if cfg.Classifier.Model == "" {
		cfg.Classifier.Model = "gemini-2.0-flash"
	}
	if cfg.Classifier.DailyLimit == 0 {
		cfg.Classifier.DailyLimit = 1500
	}

	if cfg.Vocabulary.Source == "" {
		cfg.Vocabulary.Source = "none"
	}
	if cfg.Vocabulary.RefreshInterval == 0 {
		cfg.Vocabulary.RefreshInterval = 900
	}
	if cfg.Vocabulary.MaxTerms == 0 {
		cfg.Vocabulary.MaxTerms = 5000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig checks the combinations the process cannot start without.
func validateConfig(cfg *Config) error {
	switch cfg.Classifier.Provider {
	case "none":
	case "http":
		if cfg.Classifier.BaseURL == "" {
			return fmt.Errorf("classifier.base_url is required for provider http")
		}
	case "gemini":
		if len(cfg.Classifier.APIKeys) == 0 {
			return fmt.Errorf("classifier.api_keys is required for provider gemini")
		}
	default:
		return fmt.Errorf("classifier.provider %q is not supported", cfg.Classifier.Provider)
	}

	switch cfg.Vocabulary.Source {
	case "none":
	case "postgres":
		if !cfg.Database.Postgres.Enabled() {
			return fmt.Errorf("database.postgres.host is required for vocabulary source postgres")
		}
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch.addresses or url is required for vocabulary source elasticsearch")
		}
		if cfg.Vocabulary.Index == "" {
			return fmt.Errorf("vocabulary.index is required for vocabulary source elasticsearch")
		}
	default:
		return fmt.Errorf("vocabulary.source %q is not supported", cfg.Vocabulary.Source)
	}

	if cfg.Engine.PersistContext && !cfg.Database.Redis.Enabled() {
		return fmt.Errorf("database.redis.address is required when engine.persist_context is set")
	}
	if cfg.Engine.LearnedReloadInterval > 0 && !cfg.Database.Postgres.Enabled() {
		return fmt.Errorf("database.postgres.host is required for the learned keyword table")
	}
	if cfg.Engine.HistorySize < 0 {
		return fmt.Errorf("engine.history_size must not be negative")
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}
	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
