// internal/workers/ai-conversation/resolve-question/config.go
package resolvequestion

import (
	"fmt"
	"time"

	"intent-engine/internal/common/config"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
	// MaxRows caps the rows copied into process variables. The session keeps
	// every row regardless. 0 disables the cap.
	MaxRows int
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
		MaxRows: 500,
	}
}

// ConfigFromApp reads the worker section for TaskType, falling back to LoadConfig
// defaults for anything unset.
func ConfigFromApp(cfg *config.Config) *Config {
	c := LoadConfig()
	if cfg == nil {
		return c
	}
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	c.Enabled = wcfg.Enabled
	if wcfg.Timeout > 0 {
		c.Timeout = config.GetDuration(wcfg.Timeout)
	}
	if wcfg.MaxRows > 0 {
		c.MaxRows = wcfg.MaxRows
	}
	return c
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRows < 0 {
		return fmt.Errorf("max rows must not be negative")
	}
	return nil
}
