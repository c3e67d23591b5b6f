package telemetry

import (
	"testing"

	"github.com/milkdesk/internal/config"

	"github.com/stretchr/testify/require"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown := Setup(t.Context(), config.TelemetryConfig{})
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(t.Context()))

	shutdown = Setup(t.Context(), config.TelemetryConfig{Enabled: true, Endpoint: "  "})
	require.NoError(t, shutdown(t.Context()))
}

func TestServiceName(t *testing.T) {
	require.Equal(t, DefaultServiceName, ServiceName(config.TelemetryConfig{}))
	require.Equal(t, "milk-api", ServiceName(config.TelemetryConfig{ServiceName: " milk-api "}))
}
