package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ImagePNG  ImageFormat = "png"
	ImageJPEG ImageFormat = "jpeg"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

const (
	defaultSlot       = time.Minute
	defaultColumns    = 400
	defaultCellWidth  = 2
	defaultCellHeight = 4
	maxRows           = 8192
)

type Config struct {
	DBPath     string
	SessionID  int64
	OutputFile string
	Format     ImageFormat
	Theme      ColorTheme
	TimeZone   *time.Location

	Slot       time.Duration // Duration of one image row
	Columns    int           // Number of frequency bins
	CellWidth  int           // Pixels per frequency bin
	CellHeight int           // Pixels per row

	MinFrequency *int64
	MaxFrequency *int64
	MinTimestamp *time.Time
	MaxTimestamp *time.Time
	MinPower     *float64
	MaxPower     *float64

	ListSessions  bool
	NoAnnotations bool
}

func NewConfig() *Config {
	return &Config{
		Format:     ImagePNG,
		Theme:      ClassicTheme,
		TimeZone:   time.Local,
		Slot:       defaultSlot,
		Columns:    defaultColumns,
		CellWidth:  defaultCellWidth,
		CellHeight: defaultCellHeight,
	}
}

// NewConfigFromCLI parses the command line of the process.
func NewConfigFromCLI() (*Config, error) {
	c, err := ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		flag.Usage()
		return nil, err
	}
	return c, nil
}

// ParseConfig parses args with fs. Timestamps are read as time.DateTime in
// the selected time zone.
func ParseConfig(fs *flag.FlagSet, args []string) (*Config, error) {
	c := NewConfig()

	var (
		imageFormat, theme, zone string
		minFreq, maxFreq         int64
		minPower, maxPower       float64
		minTime, maxTime         string
	)
	fs.StringVar(&c.DBPath, "db", "", "Path to the activity database file")
	fs.Int64Var(&c.SessionID, "s", 0, "Session ID")
	fs.BoolVar(&c.ListSessions, "list", false, "List the sessions stored in the database and exit")
	fs.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	fs.StringVar(&imageFormat, "f", string(ImagePNG), "Output image format. [png, jpeg]")
	fs.StringVar(&theme, "theme", string(ClassicTheme), "Color theme. [classic, grayscale, jungle, thermal, marine]")
	fs.StringVar(&zone, "tz", "Local", "Time zone of the time scale")
	fs.DurationVar(&c.Slot, "slot", defaultSlot, "Time covered by one image row")
	fs.IntVar(&c.Columns, "columns", defaultColumns, "Number of frequency bins")
	fs.IntVar(&c.CellWidth, "cell-width", defaultCellWidth, "Width of a frequency bin in pixels")
	fs.IntVar(&c.CellHeight, "cell-height", defaultCellHeight, "Height of a row in pixels")
	fs.Int64Var(&minFreq, "min-freq", 0, "Lowest frequency to render in Hz")
	fs.Int64Var(&maxFreq, "max-freq", 0, "Highest frequency to render in Hz")
	fs.StringVar(&minTime, "from", "", "Render hits from this time (format YYYY-MM-DD hh:mm:ss)")
	fs.StringVar(&maxTime, "to", "", "Render hits up to this time (format YYYY-MM-DD hh:mm:ss)")
	fs.Float64Var(&minPower, "min-power", 0, "Define a manual minimum power (format nn.n)")
	fs.Float64Var(&maxPower, "max-power", 0, "Define a manual maximum power (format nn.n)")
	fs.BoolVar(&c.NoAnnotations, "no-annotations", false, "Disable annotations such as time and frequency scales")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-freq":
			c.MinFrequency = &minFreq
		case "max-freq":
			c.MaxFrequency = &maxFreq
		case "min-power":
			c.MinPower = &minPower
		case "max-power":
			c.MaxPower = &maxPower
		}
	})

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone: %w", err)
	}
	c.TimeZone = loc

	if c.MinTimestamp, err = parseTimestamp(minTime, loc); err != nil {
		return nil, fmt.Errorf("invalid -from: %w", err)
	}
	if c.MaxTimestamp, err = parseTimestamp(maxTime, loc); err != nil {
		return nil, fmt.Errorf("invalid -to: %w", err)
	}

	c.Format = ImageFormat(strings.ToLower(imageFormat))
	c.Theme = ColorTheme(strings.ToLower(theme))

	if err = c.Validate(); err != nil {
		return nil, err
	}

	if !c.ListSessions {
		c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	}
	return c, nil
}

// Validate checks the configuration. Listing sessions only needs the
// database path.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if c.ListSessions {
		return nil
	}

	var err error
	switch {
	case c.SessionID <= 0:
		err = errors.New("session id is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	case c.Slot < 0:
		err = fmt.Errorf("invalid slot: %s", c.Slot)
	case c.Columns <= 0:
		err = fmt.Errorf("invalid number of columns: %d", c.Columns)
	case c.CellWidth <= 0 || c.CellHeight <= 0:
		err = fmt.Errorf("invalid cell size: %dx%d", c.CellWidth, c.CellHeight)
	case (c.MinFrequency == nil) != (c.MaxFrequency == nil):
		err = errors.New("min-freq and max-freq must be set together")
	case c.MinFrequency != nil && *c.MinFrequency > *c.MaxFrequency:
		err = fmt.Errorf("min-freq %d is greater than max-freq %d", *c.MinFrequency, *c.MaxFrequency)
	case (c.MinTimestamp == nil) != (c.MaxTimestamp == nil):
		err = errors.New("from and to must be set together")
	case c.MinTimestamp != nil && c.MinTimestamp.After(*c.MaxTimestamp):
		err = errors.New("from is after to")
	case c.MinPower != nil && c.MaxPower != nil && *c.MinPower >= *c.MaxPower:
		err = fmt.Errorf("min-power %0.1f must be lower than max-power %0.1f", *c.MinPower, *c.MaxPower)
	}
	if err != nil {
		return err
	}

	if _, ok := validImageFormats[c.Format]; !ok {
		return fmt.Errorf("invalid image format: %s", c.Format)
	}
	if _, ok := colorThemes[c.Theme]; !ok {
		return fmt.Errorf("invalid color theme: %s", c.Theme)
	}
	return nil
}

func parseTimestamp(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateTime, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
