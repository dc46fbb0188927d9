package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGRPCTarget(t *testing.T) {
	tests := []struct {
		in       string
		target   string
		insecure bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317/v1/metrics", "collector:4317", true},
		{"https://otel.example.com:4317", "otel.example.com:4317", false},
	}
	for _, tt := range tests {
		target, insecure, err := grpcTarget(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.target, target)
		require.Equal(t, tt.insecure, insecure)
	}

	_, _, err := grpcTarget("http://")
	require.Error(t, err)
}

func TestNoEndpointIsLocalOnly(t *testing.T) {
	p, err := NewProvider(context.Background(), "", "auth", "test")
	require.NoError(t, err)
	require.NotNil(t, p.Meters.Meter("x"))
	require.NoError(t, p.Shutdown(context.Background()))
}
