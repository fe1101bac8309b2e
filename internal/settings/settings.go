// Package settings persists the user's scanner preferences in an INI file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/roman-kulish/radio-scanner/internal/freqman"
)

const sectionName = "scanner"

const (
	keyBrowseWait = "browse_wait"
	keyLockWait   = "lock_wait"
	keySquelch    = "squelch"
	keyRangeMin   = "range_min"
	keyRangeMax   = "range_max"
	keyRangeStep  = "range_step"
	keyDatabase   = "database"
	keyDirection  = "direction"
)

// Settings are the scanner preferences that survive restarts.
type Settings struct {
	BrowseWait int     // seconds spent on a signal before moving on, 0 = unlimited
	LockWait   int     // seconds of silence before leaving a signal
	Squelch    float64 // dB

	RangeMin  freqman.Frequency
	RangeMax  freqman.Frequency
	RangeStep freqman.Frequency

	Database string // selected database name, without extension
	Reverse  bool
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		BrowseWait: 5,
		LockWait:   2,
		Squelch:    -30,
		RangeMin:   144_000_000,
		RangeMax:   148_000_000,
		RangeStep:  12_500,
		Database:   "FREQMAN",
	}
}

// Validate checks the settings
func (s Settings) Validate() error {
	if s.BrowseWait < 0 {
		return fmt.Errorf("%s must not be negative", keyBrowseWait)
	}
	if s.LockWait < 0 {
		return fmt.Errorf("%s must not be negative", keyLockWait)
	}
	if s.RangeStep < 0 {
		return fmt.Errorf("%s must not be negative", keyRangeStep)
	}
	if s.RangeMin < 0 || s.RangeMax < 0 {
		return fmt.Errorf("%s and %s must not be negative", keyRangeMin, keyRangeMax)
	}
	return nil
}

// Load reads the settings from path. Keys missing from the file keep their
// default values; a missing file yields Default().
func Load(path string) (Settings, error) {
	s := Default()

	cfg, err := ini.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("error loading settings: %w", err)
	}

	sec := cfg.Section(sectionName)

	ints := []struct {
		key string
		dst *int
	}{
		{keyBrowseWait, &s.BrowseWait},
		{keyLockWait, &s.LockWait},
	}
	for _, v := range ints {
		if !sec.HasKey(v.key) {
			continue
		}
		if *v.dst, err = sec.Key(v.key).Int(); err != nil {
			return s, fmt.Errorf("invalid %s: %w", v.key, err)
		}
	}

	freqs := []struct {
		key string
		dst *freqman.Frequency
	}{
		{keyRangeMin, &s.RangeMin},
		{keyRangeMax, &s.RangeMax},
		{keyRangeStep, &s.RangeStep},
	}
	for _, v := range freqs {
		if !sec.HasKey(v.key) {
			continue
		}
		f, err := sec.Key(v.key).Int64()
		if err != nil {
			return s, fmt.Errorf("invalid %s: %w", v.key, err)
		}
		*v.dst = freqman.Frequency(f)
	}

	if sec.HasKey(keySquelch) {
		if s.Squelch, err = sec.Key(keySquelch).Float64(); err != nil {
			return s, fmt.Errorf("invalid %s: %w", keySquelch, err)
		}
	}
	if sec.HasKey(keyDatabase) {
		s.Database = sec.Key(keyDatabase).String()
	}
	if sec.HasKey(keyDirection) {
		switch dir := sec.Key(keyDirection).String(); dir {
		case "forward":
			s.Reverse = false
		case "reverse":
			s.Reverse = true
		default:
			return s, fmt.Errorf("invalid %s: %q", keyDirection, dir)
		}
	}

	if err = s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}

	return s, nil
}

// Save writes the settings to path, keeping any other sections already in
// the file.
func Save(path string, s Settings) error {
	cfg, err := ini.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = ini.Empty(), nil
	}
	if err != nil {
		return fmt.Errorf("error loading settings: %w", err)
	}

	direction := "forward"
	if s.Reverse {
		direction = "reverse"
	}

	sec := cfg.Section(sectionName)
	for _, kv := range [][2]string{
		{keyBrowseWait, strconv.Itoa(s.BrowseWait)},
		{keyLockWait, strconv.Itoa(s.LockWait)},
		{keySquelch, strconv.FormatFloat(s.Squelch, 'f', -1, 64)},
		{keyRangeMin, strconv.FormatInt(int64(s.RangeMin), 10)},
		{keyRangeMax, strconv.FormatInt(int64(s.RangeMax), 10)},
		{keyRangeStep, strconv.FormatInt(int64(s.RangeStep), 10)},
		{keyDatabase, s.Database},
		{keyDirection, direction},
	} {
		sec.Key(kv[0]).SetValue(kv[1])
	}

	tmp := path + ".tmp"
	if err = cfg.SaveTo(tmp); err != nil {
		return fmt.Errorf("error writing settings: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.Join(fmt.Errorf("error writing settings: %w", err), os.Remove(tmp))
	}

	return nil
}
