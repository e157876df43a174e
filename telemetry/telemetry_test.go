package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/connect6-live/config"
)

func TestSetupDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Telemetry
	}{
		{"no endpoint", config.Telemetry{Enabled: true}},
		{"disabled", config.Telemetry{Enabled: false, Endpoint: "http://localhost:4318"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), test.cfg, "test")
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestSetupWithEndpoint(t *testing.T) {
	cfg := config.Telemetry{Enabled: true, Endpoint: "http://127.0.0.1:4318", ServiceName: "connect6-test"}

	// the exporter connects lazily, so setup succeeds without a collector
	shutdown, err := Setup(context.Background(), cfg, "test")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = shutdown(ctx)
}
