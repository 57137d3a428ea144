package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"github.com/okian/scramble/internal/botplay"
)

// Default configuration constants.
const (
	defaultBots       = 10
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL     = flag.String("url", envOr("SCRAMBLE_BOT_URL", "http://localhost:9080"), "Base URL of the service")
		bots        = flag.Int("bots", defaultBots, "Number of bots, one round each")
		category    = flag.String("category", "", "Category to play (default: spread over every server category)")
		catalogFile = flag.String("catalog", os.Getenv("SCRAMBLE_CATALOG_FILE"), "Word catalog YAML used by the solver (default: built-in)")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Maximum bots playing at once")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for run output (default: bot_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		botplay.ShowHelp()
		return
	}

	closer, err := botplay.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &botplay.Config{
		BaseURL:     *baseURL,
		Bots:        *bots,
		Category:    *category,
		CatalogFile: *catalogFile,
		Workers:     *workers,
		Timeout:     *timeout,
		LogFile:     *logFile,
		Verbose:     *verbose,
		ThinkTime:   botplay.DefaultThinkTime,
	}

	report, err := botplay.Run(ctx, config)
	if err != nil {
		os.Stderr.WriteString("Bot run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel is called above
	}
	if report.Failures > 0 || report.Mismatches > 0 {
		cancel()
		os.Exit(2) //nolint:gocritic // exitAfterDefer: cancel is called above
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
