package config

import "time"

// Config exposes the externally configurable settings of the console.
type Config interface {
	GetAppName() string
	GetBaseURL() string
	GetHTTPTimeout() time.Duration
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
