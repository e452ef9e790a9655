package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultcoh/vault/internal/config"
)

func TestFromConfig_Defaults(t *testing.T) {
	cfg := FromConfig(config.OTelConfig{Enabled: true}, nil)
	assert.Equal(t, "vault", cfg.ServiceName)
	assert.Equal(t, defaultBatchTimeout, cfg.BatchTimeout)

	cfg = FromConfig(config.OTelConfig{ServiceName: "decoder", BatchTimeout: time.Second, Endpoint: "collector:4318"}, nil)
	assert.Equal(t, "decoder", cfg.ServiceName)
	assert.Equal(t, time.Second, cfg.BatchTimeout)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
}

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.NotNil(t, p.Meter("test"))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "vault"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_WriterExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(FromConfig(config.OTelConfig{Enabled: true}, &buf))
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())

	ctx := context.Background()
	assert.NoError(t, p.Flush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
}
