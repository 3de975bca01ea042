package config_test

import (
	"testing"
	"time"

	"github.com/mleroy-dev/bankdesk/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()

	require.Equal(t, "BankDesk", c.GetAppName())
	require.Equal(t, "http://localhost:5000", c.GetBaseURL())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "info", c.GetLogLevel())
	require.Equal(t, "DEV", c.GetEnv())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "TestDesk")
	t.Setenv("BANK_API_BASE_URL", "https://bank.example.com")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("LOG_LEVEL", "debug")

	c := config.New()

	require.Equal(t, "TestDesk", c.GetAppName())
	require.Equal(t, "https://bank.example.com", c.GetBaseURL())
	require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "debug", c.GetLogLevel())
}

func TestInvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "not-a-number")
	require.Equal(t, 30*time.Second, config.New().GetHTTPTimeout())
}
