// Package main is the entry point for the hostcart collection server.
//
// The main package stays minimal. It:
//  1. Loads .env and reads the entry-point settings
//  2. Builds the configuration store
//  3. Opens the collection database
//  4. Starts the HTTP server
//
// All actual logic lives in the internal packages.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sakif/hostcart/internal/config"
	sqliteRepo "github.com/sakif/hostcart/internal/repository/sqlite"
	"github.com/sakif/hostcart/internal/server"
)

func main() {
	// === 1. ENVIRONMENT ===
	// A .env file is optional; real environment variables always win
	// because godotenv.Load never overwrites them.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", slog.String("error", err.Error()))
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	// === 2. CONFIGURATION ===
	opts := config.DefaultOptions()
	if path := os.Getenv("HOSTCART_CONFIG"); path != "" {
		opts.Path = path
	}
	variant, err := config.ParseVariant(os.Getenv("HOSTCART_CONFIG_MODE"))
	if err != nil {
		logger.Error("invalid HOSTCART_CONFIG_MODE", slog.String("error", err.Error()))
		os.Exit(1)
	}
	opts.Variant = variant

	cfg, err := config.Default(opts)
	if err != nil {
		logger.Error("failed to load configuration",
			slog.String("path", opts.Path),
			slog.String("mode", variant.String()),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 3. DATABASE ===
	db, err := sqliteRepo.NewFromConfig(cfg)
	if err != nil {
		logger.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 4. SERVER ===
	srvCfg, err := server.ConfigFromStore(cfg)
	if err != nil {
		db.Close()
		logger.Error("failed to read server configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	// and closes the database on the way out.
	if err := server.New(srvCfg, db, logger).Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// parseLogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
