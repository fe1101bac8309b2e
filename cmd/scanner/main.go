package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"

	"github.com/roman-kulish/radio-scanner/cmd/scanner/app"
)

type options struct {
	Config   string `usage:"Path to the configuration file"`
	Database string `usage:"Database to scan, overrides the saved settings"`
}

func main() {
	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &logLevel}))

	opts := options{Config: "scanner.yaml"}
	goconfig.Read(&opts)

	config, err := app.LoadConfig(opts.Config)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to load configuration file: %s", err.Error()), slog.String("path", opts.Config))
		os.Exit(1)
	}

	if err = logLevel.UnmarshalText([]byte(config.Settings.LogLevel)); err != nil {
		logger.Error(fmt.Sprintf("invalid log level: %s", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err = app.Run(ctx, config, opts.Database, logger); err != nil {
		logger.Error(err.Error())

		cancel()
		os.Exit(1)
	}
}
