package otel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/people-api/internal/config"
	"github.com/phrazzld/people-api/internal/platform/otel"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := otel.Setup(context.Background(), config.TelemetryConfig{ServiceName: "people-test"})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := otel.Setup(context.Background(), config.TelemetryConfig{
		OTLPEndpoint: "http://192.0.2.1:4318",
		ServiceName:  "people-test",
	})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
