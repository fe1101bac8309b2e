package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
	"github.com/roman-kulish/radio-scanner/internal/radio/sdrconnect"
	"github.com/roman-kulish/radio-scanner/internal/radio/sim"
	"github.com/roman-kulish/radio-scanner/internal/scan"
)

const (
	ReceiverSim        ReceiverType = "sim"
	ReceiverSDRconnect ReceiverType = "sdrconnect"
)

type ReceiverType string

// Config represents the main application configuration
type Config struct {
	Settings Settings       `yaml:"settings"`
	Receiver ReceiverConfig `yaml:"receiver"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Storage  StorageConfig  `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// ReceiverConfig selects and configures the radio backend
type ReceiverConfig struct {
	Type     ReceiverType `yaml:"type"`
	Address  string       `yaml:"address"` // sdrconnect host:port
	Rate     int          `yaml:"rate"`    // samples per second
	Carriers []Carrier    `yaml:"carriers"`
}

// Carrier is a simulated transmitter
type Carrier struct {
	Frequency freqman.Frequency `yaml:"frequency"`
	Power     float64           `yaml:"power"`
}

// ScannerConfig represents the scan engine settings
type ScannerConfig struct {
	DatabaseDir  string       `yaml:"databaseDir"`
	SettingsFile string       `yaml:"settingsFile"`
	MaxEntries   int          `yaml:"maxEntries"`
	Interval     TimeDuration `yaml:"interval"`
	SettleDelay  TimeDuration `yaml:"settleDelay"`
}

// StorageConfig represents the activity log settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
}

// DefaultConfig returns the configuration values used for keys missing from
// the file.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: "info",
		},
		Receiver: ReceiverConfig{
			Type:    ReceiverSim,
			Address: sdrconnect.DefaultAddress,
			Rate:    sim.DefaultRate,
		},
		Scanner: ScannerConfig{
			DatabaseDir:  "freqman",
			SettingsFile: "scanner.ini",
			MaxEntries:   freqman.MaxEntries,
			Interval:     TimeDuration(scan.DefaultInterval),
			SettleDelay:  TimeDuration(scan.DefaultSettleDelay),
		},
		Storage: StorageConfig{
			DataDirectory: storageDir,
		},
	}
}

// LoadConfig reads the YAML configuration file at path
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	config := DefaultConfig()
	if err = yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	switch c.Receiver.Type {
	case ReceiverSim:
	case ReceiverSDRconnect:
		if c.Receiver.Address == "" {
			return errors.New("app.Config: sdrconnect address is required")
		}
	default:
		return fmt.Errorf("app.Config: unknown receiver type '%s'", c.Receiver.Type)
	}

	if c.Receiver.Rate <= 0 {
		return fmt.Errorf("app.Config: sample rate must be positive: %d", c.Receiver.Rate)
	}
	for _, carrier := range c.Receiver.Carriers {
		if carrier.Frequency <= 0 {
			return fmt.Errorf("app.Config: carrier frequency must be positive: %d", carrier.Frequency)
		}
	}

	if c.Scanner.DatabaseDir == "" {
		return errors.New("app.Config: database directory is required")
	}
	if c.Scanner.MaxEntries <= 0 {
		return fmt.Errorf("app.Config: max entries must be positive: %d", c.Scanner.MaxEntries)
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("app.Config: scan interval must be positive: %s", time.Duration(c.Scanner.Interval))
	}
	if c.Scanner.SettleDelay < 0 {
		return fmt.Errorf("app.Config: settle delay must not be negative: %s", time.Duration(c.Scanner.SettleDelay))
	}

	return nil
}

type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d TimeDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
