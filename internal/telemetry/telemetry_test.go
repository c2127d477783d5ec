package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		wantErr  bool
	}{
		{"default", "", false},
		{"none", "none", false},
		{"console", "console", false},
		{"unknown", "jaeger", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			shutdown, err := setup(context.Background(), tt.exporter, "", "test", &buf)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.exporter)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestSetup_ConsoleWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := setup(context.Background(), "console", "", "v1.2.3", &buf)
	require.NoError(t, err)

	_, span := otel.Tracer(serviceName).Start(context.Background(), "updater.Run")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "updater.Run")
	assert.Contains(t, buf.String(), serviceName)
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestSetup_FromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER", "none")

	shutdown, err := Setup(context.Background(), "dev")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
