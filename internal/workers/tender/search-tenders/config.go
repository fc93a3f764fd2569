// internal/workers/tender/search-tenders/config.go
package searchtenders

import "time"

type Config struct {
	Timeout  time.Duration
	PageSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		PageSize: 15,
	}
}
