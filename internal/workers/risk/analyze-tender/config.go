// internal/workers/risk/analyze-tender/config.go
package analyzetender

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	// LLM analysis of a single tender regularly takes over a minute.
	return &Config{
		Timeout: 3 * time.Minute,
	}
}
