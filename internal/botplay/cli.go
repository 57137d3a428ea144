package botplay

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/okian/scramble/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends run output to both the console and a file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "bot_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	opts := []logger.Option{logger.WithWriter(multiWriter)}
	if verbose {
		opts = append(opts, logger.WithLevel(slog.LevelDebug))
	}
	if err := logger.Init(opts...); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the bot tool.
func ShowHelp() {
	os.Stdout.WriteString(`Scramble Bot Tool
=================

Plays concurrent rounds of the word scramble game against a running server
and checks every final score against the scoring rules.

Usage:
  go run cmd/scramble-bot/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -bots int
        Number of bots, each playing one round in its own session (default 10)
  -category string
        Category to play (default: bots spread over every server category)
  -catalog string
        Word catalog YAML used by the solver (default: built-in catalog)
  -workers int
        Maximum bots playing at once (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: bot_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/scramble-bot/main.go

  # Fifty bots on one category
  go run cmd/scramble-bot/main.go -bots 50 -category animals

  # Against a server with a custom catalog
  go run cmd/scramble-bot/main.go -catalog words.yaml -url http://localhost:8080
`)
}
