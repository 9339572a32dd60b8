package generateplan

import (
	"time"

	"yoga-guide/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// NewConfig derives the handler timeout from the worker's job timeout so a
// job is completed before Zeebe hands it to another worker.
func NewConfig(wcfg config.WorkerConfig) *Config {
	timeout := time.Duration(wcfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 150 * time.Second
	}
	return &Config{Timeout: timeout}
}
