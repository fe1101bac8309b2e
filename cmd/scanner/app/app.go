package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/radio"
	"github.com/roman-kulish/radio-scanner/internal/radio/sdrconnect"
	"github.com/roman-kulish/radio-scanner/internal/radio/sim"
	"github.com/roman-kulish/radio-scanner/internal/scan"
	"github.com/roman-kulish/radio-scanner/internal/scanner"
	"github.com/roman-kulish/radio-scanner/internal/settings"
	"github.com/roman-kulish/radio-scanner/internal/storage"
)

const (
	storageDir = "data"
)

// Run scans until the user quits or ctx is cancelled. database, when set,
// replaces the database named in the saved settings.
func Run(ctx context.Context, config *Config, database string, logger *slog.Logger) (err error) {
	rx, err := createReceiver(ctx, &config.Receiver, logger)
	if err != nil {
		return fmt.Errorf("failed to create receiver: %w", err)
	}
	defer func() {
		if cErr := rx.Close(); cErr != nil {
			logger.Error(fmt.Sprintf("error closing receiver: %s", cErr.Error()))
		}
	}()

	s, err := settings.Load(config.Scanner.SettingsFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if database != "" {
		s.Database = database
	}

	out := newConsole(os.Stdout)

	options := []func(c *scanner.Controller){
		scanner.WithLogger(logger),
		scanner.WithSettings(s, config.Scanner.SettingsFile),
		scanner.WithMaxEntries(config.Scanner.MaxEntries),
		scanner.WithSampleRate(config.Receiver.Rate),
		scanner.WithObserver(out.show),
		scanner.WithWorkerOptions(
			scan.WithInterval(time.Duration(config.Scanner.Interval)),
			scan.WithSettleDelay(time.Duration(config.Scanner.SettleDelay)),
		),
	}

	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		options = append(options, scanner.WithStore(store, string(config.Receiver.Type)))
	}

	ctrl := scanner.New(rx, config.Scanner.DatabaseDir, options...)
	defer func() {
		out.clear()
		if cErr := ctrl.Close(); cErr != nil {
			logger.Error(fmt.Sprintf("error closing scanner: %s", cErr.Error()))
		}
	}()

	databases, err := freqman.ListDatabases(config.Scanner.DatabaseDir)
	if err != nil && !errors.Is(err, freqman.ErrNoFiles) {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	logger.Info("databases found", slog.Any("names", databases))

	if err = ctrl.Restore(ctx); err != nil {
		return fmt.Errorf("failed to start scanning: %w", err)
	}

	keys, err := openKeyboard()
	if err != nil {
		return fmt.Errorf("failed to open keyboard: %w", err)
	}
	defer closeKeyboard()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	input := newInput(ctrl, databases, ctrl.Settings().Database, logger)
	go input.run(ctx, keys)

	if err = ctrl.Run(ctx); errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func createReceiver(ctx context.Context, config *ReceiverConfig, logger *slog.Logger) (radio.Receiver, error) {
	switch config.Type {
	case ReceiverSim:
		options := []func(r *sim.Receiver){
			sim.WithLogger(logger),
			sim.WithRate(config.Rate),
		}
		for _, c := range config.Carriers {
			options = append(options, sim.WithCarrier(c.Frequency, c.Power))
		}
		return sim.New(options...), nil

	case ReceiverSDRconnect:
		rx, err := sdrconnect.Dial(ctx, config.Address, sdrconnect.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("creating SDRconnect receiver: %w", err)
		}
		return rx, nil

	default:
		return nil, fmt.Errorf("creating receiver: unknown type '%s'", config.Type)
	}
}

func createStorage(config *StorageConfig) (*storage.SqliteStore, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	dbPath := filepath.Join(wd, storageDir)
	if config.DataDirectory != "" {
		dbPath = config.DataDirectory
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(wd, dbPath)
		}
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("invalid storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("scanner_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
