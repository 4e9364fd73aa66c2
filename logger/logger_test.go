package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", &buf)
	require.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())

	l := WithComponent("listener")
	l.Info().Msg("hidden")
	l.Warn().Msg("transfer failed")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "transfer failed")
	require.Contains(t, out, "listener")
}

func TestInitUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("chatty", &buf)
	require.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	InitWithWriter("", &buf)
	require.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
}
