package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"", zerolog.WarnLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" error ", zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("tree", zerolog.DebugLevel, &buf)

	logger.Debug().Msg("node created")
	assert.Contains(t, buf.String(), "node created")
	assert.Contains(t, buf.String(), `"component":"tree"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewLoggerWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("tree", zerolog.InfoLevel, &buf)

	logger.Debug().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	})

	require.NoError(t, Configure("info", FormatJSON))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	logger := NewLogger("app")
	logger.Info().Msg("configured")
	assert.Contains(t, buf.String(), `"component":"app"`)
	assert.Contains(t, buf.String(), `"message":"configured"`)

	log.Logger = zerolog.Nop()
}

func TestConfigure_Errors(t *testing.T) {
	assert.Error(t, Configure("loud", FormatJSON))
	assert.Error(t, Configure("info", "xml"))
}
