package logging

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	prev := logger
	SetLogger(zap.New(core))
	t.Cleanup(func() { logger = prev })
	return logs
}

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")
	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("logger should be a no-op when no level is configured")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")
	t.Setenv(LogFileEnvVar, t.TempDir()+"/topology.log")
	if err := InitializeFromEnv(); err != nil {
		t.Fatalf("InitializeFromEnv() error = %v", err)
	}
	defer Sync()

	if GetLogger().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !GetLogger().Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogTransition(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	LogTransition("tls", "reverse-proxy", "advance", "reverse_proxy")
	LogTransition("intro", "intro", "back", "")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "Screen transition" {
		t.Errorf("first message = %q", entries[0].Message)
	}
	if entries[0].ContextMap()["option"] != "reverse_proxy" {
		t.Errorf("option field = %v", entries[0].ContextMap()["option"])
	}
	if entries[1].Message != "Screen unchanged" {
		t.Errorf("second message = %q", entries[1].Message)
	}
	if _, ok := entries[1].ContextMap()["option"]; ok {
		t.Error("empty option should not be logged")
	}
}

func TestLogHTTPRequest(t *testing.T) {
	logs := observe(t, zapcore.InfoLevel)

	LogHTTPRequest("127.0.0.1:5000", "GET", "/api/state", 200, time.Millisecond)
	LogHTTPRequest("127.0.0.1:5000", "GET", "/api/render/homeserver", 500, time.Millisecond)

	if got := logs.FilterLevelExact(zapcore.WarnLevel).Len(); got != 1 {
		t.Errorf("warn entries = %d, want 1", got)
	}
	if got := logs.FilterMessage("HTTP request").Len(); got != 1 {
		t.Errorf("info entries = %d, want 1", got)
	}
}

func TestLogWebSocketMessage_Truncates(t *testing.T) {
	logs := observe(t, zapcore.DebugLevel)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = 'x'
	}
	LogWebSocketMessage("127.0.0.1:5000", "sent", payload)

	entry := logs.All()[0]
	content, _ := entry.ContextMap()["content"].(string)
	if len(content) != 515 {
		t.Errorf("content length = %d, want 515", len(content))
	}
	if entry.ContextMap()["length"] != int64(600) {
		t.Errorf("length = %v", entry.ContextMap()["length"])
	}
}
