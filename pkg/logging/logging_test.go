package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFromVerbosity(t *testing.T) {
	level, err := LevelFromVerbosity("", 0)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)

	level, _ = LevelFromVerbosity("", 1)
	assert.Equal(t, slog.LevelDebug, level)

	level, _ = LevelFromVerbosity("", 3)
	assert.Equal(t, LevelTrace, level)

	level, _ = LevelFromVerbosity("warn", 3)
	assert.Equal(t, slog.LevelWarn, level, "explicit name wins")
}

func TestCompactHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	log.With("build", "current").Log(context.Background(), LevelTrace, "built graph",
		"nodes", 3, "durationMs", int64(12), "delta", int64(512), "label", "two words",
		"error", errors.New("boom"))

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[TRACE] "), line)
	assert.Contains(t, line, "built graph | build=current nodes=3")
	assert.Contains(t, line, "duration=12ms")
	assert.Contains(t, line, "delta=+512")
	assert.Contains(t, line, `label="two words"`)
	assert.Contains(t, line, `error="boom"`)
	assert.True(t, strings.HasSuffix(line, "\n"))

	buf.Reset()
	log.WithGroup("graph").Info("grouped", "nodes", 3)
	assert.Contains(t, buf.String(), "grouped | graph.nodes=3")
}

func TestCompactHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewCompactHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]  ")
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", seen)
}
