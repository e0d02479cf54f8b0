package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tel)
	require.Nil(t, tel.meterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestShutdown_NilSafe(t *testing.T) {
	var tel *Telemetry
	require.NoError(t, tel.Shutdown(context.Background()))
}
