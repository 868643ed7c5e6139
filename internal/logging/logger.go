package logging

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "TOPOLOGY_LOG_LEVEL"

// LogFileEnvVar optionally redirects log output to a file. The interactive
// wizard owns the terminal, so this is the only way to see its debug output.
const LogFileEnvVar = "TOPOLOGY_LOG_FILE"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks TOPOLOGY_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	output := "stderr"
	if path := os.Getenv(LogFileEnvVar); path != "" {
		output = path
	}

	return build(ParseLevel(level), output)
}

// InitializeFromEnv initializes the logger from the TOPOLOGY_LOG_LEVEL
// environment variable. CLI commands use this so they stay silent by default.
func InitializeFromEnv() error {
	return Initialize("")
}

// ParseLevel maps a level name onto a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func build(level zapcore.Level, output string) error {
	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if output == "stderr" || output == "stdout" {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// SetLogger replaces the global logger. Tests use it with an observer core.
func SetLogger(l *zap.Logger) {
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogTransition records a wizard screen change.
func LogTransition(from, to, action, option string) {
	fields := []zap.Field{
		zap.String("from", from),
		zap.String("to", to),
		zap.String("action", action),
	}
	if option != "" {
		fields = append(fields, zap.String("option", option))
	}
	if from == to {
		Debug("Screen unchanged", fields...)
		return
	}
	Debug("Screen transition", fields...)
}

// LogConnection logs a connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogTLSHandshake logs TLS handshake details
func LogTLSHandshake(remoteAddr string, state tls.ConnectionState) {
	Info("TLS handshake completed",
		zap.String("remote_addr", remoteAddr),
		zap.String("tls_version", tls.VersionName(state.Version)),
		zap.String("cipher_suite", tls.CipherSuiteName(state.CipherSuite)),
		zap.String("server_name", state.ServerName),
	)
}

// LogHTTPRequest logs a completed HTTP request
func LogHTTPRequest(remoteAddr, method, path string, status int, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	}
	if status >= 500 {
		Warn("HTTP request failed", fields...)
		return
	}
	Info("HTTP request", fields...)
}

// LogWebSocketMessage logs a WebSocket message. Payloads are only included at
// debug level and are truncated.
func LogWebSocketMessage(remoteAddr string, direction string, data []byte) {
	fields := []zap.Field{
		zap.String("remote_addr", remoteAddr),
		zap.String("direction", direction),
		zap.Int("length", len(data)),
	}
	if GetLogger().Core().Enabled(zapcore.DebugLevel) {
		fields = append(fields, zap.String("content", truncate(data, 512)))
	}
	Debug("WebSocket message", fields...)
}

func truncate(data []byte, max int) string {
	if len(data) > max {
		return string(data[:max]) + "..."
	}
	return string(data)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
