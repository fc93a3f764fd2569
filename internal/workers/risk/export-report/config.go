// internal/workers/risk/export-report/config.go
package exportreport

import "time"

type Config struct {
	Timeout      time.Duration
	EmailEnabled bool
	TopicEnabled bool
	FromEmail    string
	TopicARN     string
	AWSRegion    string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
