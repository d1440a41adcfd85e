package otellib

import (
	"context"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"testing"
)

func TestExtract_Without_Logger(t *testing.T) {
	logger := Extract(context.Background())
	assert.NotNil(t, logger)
	logger.Info("nothing")
}

func TestExtract_With_Logger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := ToContext(context.Background(), zap.New(core))

	Extract(ctx).Info("hello", zap.String("bank", "hdfc"))

	assert.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "hdfc", entry.ContextMap()["bank"])
}
