package app

import (
	"flag"
	"io"
	"strings"
	"testing"
	"time"
)

func parse(args ...string) (*Config, error) {
	fs := flag.NewFlagSet("hitmap", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return ParseConfig(fs, args)
}

func TestParseConfig(t *testing.T) {
	config, err := parse(
		"-db", "hits.sqlite",
		"-s", "3",
		"-o", "out",
		"-f", "JPEG",
		"-theme", "thermal",
		"-tz", "UTC",
		"-slot", "30s",
		"-min-freq", "144000000",
		"-max-freq", "146000000",
		"-from", "2024-05-01 12:00:00",
		"-to", "2024-05-01 13:00:00",
		"-min-power", "-50",
	)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	if config.DBPath != "hits.sqlite" || config.SessionID != 3 {
		t.Errorf("db = %q, session = %d", config.DBPath, config.SessionID)
	}
	if config.OutputFile != "out.jpeg" || config.Format != ImageJPEG {
		t.Errorf("output = %q, format = %q", config.OutputFile, config.Format)
	}
	if config.Theme != ThermalTheme {
		t.Errorf("Theme = %q, want %q", config.Theme, ThermalTheme)
	}
	if config.Slot != 30*time.Second {
		t.Errorf("Slot = %s, want 30s", config.Slot)
	}
	if config.MinFrequency == nil || *config.MinFrequency != 144_000_000 || *config.MaxFrequency != 146_000_000 {
		t.Errorf("frequency range = %v..%v", config.MinFrequency, config.MaxFrequency)
	}
	want := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if config.MinTimestamp == nil || !config.MinTimestamp.Equal(want) {
		t.Errorf("MinTimestamp = %v, want %s", config.MinTimestamp, want)
	}
	if config.MinPower == nil || *config.MinPower != -50 || config.MaxPower != nil {
		t.Errorf("power = %v..%v, want -50..nil", config.MinPower, config.MaxPower)
	}
	if config.Columns != defaultColumns || config.CellHeight != defaultCellHeight {
		t.Errorf("columns = %d, cell height = %d", config.Columns, config.CellHeight)
	}
}

func TestParseConfig_List(t *testing.T) {
	config, err := parse("-db", "hits.sqlite", "-list")
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}
	if !config.ListSessions || config.OutputFile != "" {
		t.Errorf("ListSessions = %v, OutputFile = %q", config.ListSessions, config.OutputFile)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no db", []string{"-s", "1", "-o", "out"}, "db path"},
		{"no session", []string{"-db", "x", "-o", "out"}, "session id"},
		{"no output", []string{"-db", "x", "-s", "1"}, "output file"},
		{"format", []string{"-db", "x", "-s", "1", "-o", "out", "-f", "gif"}, "image format"},
		{"theme", []string{"-db", "x", "-s", "1", "-o", "out", "-theme", "neon"}, "color theme"},
		{"half frequency range", []string{"-db", "x", "-s", "1", "-o", "out", "-min-freq", "100"}, "set together"},
		{"reversed frequency range", []string{"-db", "x", "-s", "1", "-o", "out", "-min-freq", "200", "-max-freq", "100"}, "greater than"},
		{"bad time", []string{"-db", "x", "-s", "1", "-o", "out", "-from", "yesterday"}, "-from"},
		{"reversed power", []string{"-db", "x", "-s", "1", "-o", "out", "-min-power", "-10", "-max-power", "-20"}, "lower than"},
		{"columns", []string{"-db", "x", "-s", "1", "-o", "out", "-columns", "0"}, "columns"},
		{"negative slot", []string{"-db", "x", "-s", "1", "-o", "out", "-slot", "-1s"}, "slot"},
		{"time zone", []string{"-db", "x", "-s", "1", "-o", "out", "-tz", "Nowhere/Never"}, "time zone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.args...)
			if err == nil {
				t.Fatal("ParseConfig succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
