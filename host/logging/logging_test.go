package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))
}

func TestLoggerFiltersAndTags(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "delphi-host", "warn")
	logger.Info().Msg("hidden")
	station := Component(logger, "station")
	station.Warn().Msg("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "shown")
	require.Contains(t, out, "app=delphi-host")
	require.Contains(t, out, "component=station")
}
