package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func parseEntries(t *testing.T, buf *bytes.Buffer) []logEntry {
	t.Helper()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry logEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestLoggerWritesStructuredFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.WithFields(map[string]any{"policy": "patience"}).Info("starting run")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "starting run", entries[0]["message"])
	require.Equal(t, "patience", entries[0]["policy"])
}

func TestLoggerLevelFiltersDebug(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "shown", entries[0]["message"])
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestLoggerErrorIncludesCause(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Error(errors.New("no verdicts"), "iteration aborted")

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "no verdicts", entries[0]["error"])
}

func TestLoggerIterationFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.WithComponent("engine").Iteration(2, 0.75, 3, 4)

	entries := parseEntries(t, buf)
	require.Len(t, entries, 1)
	require.Equal(t, "engine", entries[0]["component"])
	require.Equal(t, float64(2), entries[0]["iteration"])
	require.InDelta(t, 0.75, entries[0]["success_rate"].(float64), 1e-9)
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	require.NotPanics(t, func() {
		log.Info("noop")
		log.Debug("noop")
		log.Warn("noop")
		log.Error(nil, "noop")
		log.Iteration(1, 0.5, 1, 2)
		_ = log.WithFields(map[string]any{"k": "v"})
		_ = log.WithComponent("engine")
	})
}
