package config

import (
	"os"
	"strconv"
	"time"
)

const (
	appNameVar  = "APP_NAME"
	baseURLVar  = "BANK_API_BASE_URL"
	timeoutVar  = "HTTP_TIMEOUT_SECONDS"
	logLevelVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "BankDesk")
}

// GetBaseURL returns the base URL of the banking REST backend.
func (EnvVars) GetBaseURL() string {
	return GetEnv(baseURLVar, "http://localhost:5000")
}

func (EnvVars) GetHTTPTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(timeoutVar, "30"))
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
