package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandRejectsInvalidConfig(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bogus")

	cmd := newCommand(slog.New(slog.NewTextHandler(io.Discard, nil)))
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.ErrorContains(t, err, "load config")
	require.ErrorContains(t, err, "not supported")
}

func TestCommandFlags(t *testing.T) {
	cmd := newCommand(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, cmd.ParseFlags([]string{"--static-dir", "/tmp/feeds", "--source", "a", "--source", "b", "--window", "48h"}))

	dir, err := cmd.Flags().GetString("static-dir")
	require.NoError(t, err)
	require.Equal(t, "/tmp/feeds", dir)
	sources, err := cmd.Flags().GetStringSlice("source")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, sources)
	require.True(t, cmd.Flags().Changed("window"))
}
