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
