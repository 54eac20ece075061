package tracer

import (
	"context"
	"testing"

	"bigsis-chat/internal/config"
	"bigsis-chat/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestInitTracerDisabled(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{Enabled: false}, logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerEnabled(t *testing.T) {
	shutdown := InitTracer(config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:1",
		ServiceName: "bigsis-test",
	}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was exported, so shutdown has nothing to flush.
	_ = shutdown(ctx)
}
