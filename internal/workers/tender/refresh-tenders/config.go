// internal/workers/tender/refresh-tenders/config.go
package refreshtenders

import "time"

type Config struct {
	Timeout   time.Duration
	Index     string
	BatchSize int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:   5 * time.Minute,
		Index:     "tenders",
		BatchSize: 500,
	}
}
