// Package logging builds the zap loggers used across the node, transport and
// pub/sub components.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	red          = "\033[31m"
	white        = "\033[37m"
	gray         = "\033[90m"
	brightRed    = "\033[91m"
	brightYellow = "\033[93m"
	brightWhite  = "\033[97m"
)

// Component tags log lines with the part of the system they came from.
type Component string

const (
	ComponentNode      Component = "NODE"
	ComponentTransport Component = "TRANSPORT"
	ComponentPubSub    Component = "PUBSUB"
	ComponentGeneral   Component = "GENERAL"
)

func levelColor(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return gray
	case zapcore.InfoLevel:
		return brightWhite
	case zapcore.WarnLevel:
		return brightYellow
	case zapcore.ErrorLevel:
		return brightRed
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return red
	default:
		return white
	}
}

// consoleEncoder creates a compact console encoder, optionally colored.
func consoleEncoder(enableColors bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()

	// Ultra-short timestamp: HH:MM:SS (no milliseconds, no date, no timezone)
	config.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		timeStr := t.Format("15:04:05")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", dim, timeStr, reset))
		} else {
			enc.AppendString(timeStr)
		}
	}

	// Single letter level: D, I, W, E
	config.EncodeLevel = func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		levelMap := map[zapcore.Level]string{
			zapcore.DebugLevel: "D",
			zapcore.InfoLevel:  "I",
			zapcore.WarnLevel:  "W",
			zapcore.ErrorLevel: "E",
		}
		levelStr := levelMap[level]
		if levelStr == "" {
			levelStr = "?"
		}
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s%s", levelColor(level), bold, levelStr, reset))
		} else {
			enc.AppendString(levelStr)
		}
	}

	// Just the filename, no line number, .go stripped
	config.EncodeCaller = func(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		file := caller.File
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			file = file[idx+1:]
		}
		file = strings.TrimSuffix(file, ".go")
		if enableColors {
			enc.AppendString(fmt.Sprintf("%s%s%s", dim, file, reset))
		} else {
			enc.AppendString(file)
		}
	}

	return zapcore.NewConsoleEncoder(config)
}

// NewLogger creates a zap.Logger based on quiet mode preference. Quiet mode
// returns a production logger at Warn+ with reduced noise; otherwise a
// development logger with the compact console encoder.
func NewLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		return cfg.Build()
	}

	core := zapcore.NewCore(
		consoleEncoder(true),
		zapcore.AddSync(os.Stdout),
		zapcore.DebugLevel,
	)
	return zap.New(core, zap.AddCaller()), nil
}

// ComponentLogger returns a component-named logger honoring quiet mode.
func ComponentLogger(component Component, quiet bool) (*zap.Logger, error) {
	logger, err := NewLogger(quiet)
	if err != nil {
		return nil, err
	}
	return logger.Named(string(component)), nil
}
