package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LegacyCodeHQ/kettle/logging"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "target", "zlib")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "target=zlib")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud")

	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestFromContext(t *testing.T) {
	logger, err := logging.New(&bytes.Buffer{}, "info")
	require.NoError(t, err)

	ctx := logging.WithLogger(context.Background(), logger)

	assert.Same(t, logger, logging.FromContext(ctx))
	assert.Same(t, log.Default(), logging.FromContext(context.Background()))
}
