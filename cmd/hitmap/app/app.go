package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/radio-scanner/internal/storage"
)

// Run renders the hit map of a session, or lists the sessions of the
// database to out when config.ListSessions is set.
func Run(ctx context.Context, config *Config, out io.Writer, logger *slog.Logger) (err error) {
	if _, err = os.Stat(config.DBPath); err != nil {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer func() {
		err = errors.Join(err, store.Close())
	}()

	if config.ListSessions {
		return listSessions(ctx, store, out)
	}

	grid, info, err := readHits(ctx, store, config, logger)
	if err != nil {
		return err
	}

	var bounds *PowerBounds
	if config.MinPower != nil || config.MaxPower != nil {
		b := grid.Histogram.Bounds()
		if config.MinPower != nil {
			b.Min = *config.MinPower
		}
		if config.MaxPower != nil {
			b.Max = *config.MaxPower
		}
		bounds = &b
	}

	renderer := NewHitRenderer(RenderConfig{
		Location:      config.TimeZone,
		ColorTheme:    config.Theme,
		CellWidth:     config.CellWidth,
		CellHeight:    config.CellHeight,
		Bounds:        bounds,
		NoAnnotations: config.NoAnnotations,
	})

	pb := renderer.Bounds(grid)
	area := renderer.Area(grid)
	logger.Info("rendering hit map",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.String("theme", string(config.Theme)),
			slog.Int("width", area.Dx()),
			slog.Int("height", area.Dy()),
			slog.String("minPower", fmt.Sprintf("%0.1fdB", pb.Min)),
			slog.String("maxPower", fmt.Sprintf("%0.1fdB", pb.Max)),
		))

	img, err := renderer.Render(grid, info)
	if err != nil {
		return fmt.Errorf("rendering hit map: %w", err)
	}

	return writeImage(config.OutputFile, config.Format, img)
}

func readHits(ctx context.Context, store *storage.SqliteStore, config *Config, logger *slog.Logger) (*HitGrid, string, error) {
	opts := []storage.ReaderOption{storage.WithSlot(config.Slot)}
	var filters []any

	if config.MinFrequency != nil && config.MaxFrequency != nil {
		opts = append(opts, storage.WithFrequencyRange(*config.MinFrequency, *config.MaxFrequency))
		filters = append(filters,
			slog.String("minFreq", formatFrequency(float64(*config.MinFrequency))),
			slog.String("maxFreq", formatFrequency(float64(*config.MaxFrequency))))
	}
	if config.MinTimestamp != nil && config.MaxTimestamp != nil {
		opts = append(opts, storage.WithTimeRange(config.MinTimestamp.UTC(), config.MaxTimestamp.UTC()))
		filters = append(filters,
			slog.String("minTimestamp", config.MinTimestamp.UTC().Format(time.DateTime)),
			slog.String("maxTimestamp", config.MaxTimestamp.UTC().Format(time.DateTime)))
	}
	filters = append(filters, slog.Duration("slot", config.Slot))

	logger.Info("reader configuration", filters...)

	iter, err := store.ReadHits(ctx, config.SessionID, opts...)
	if err != nil {
		return nil, "", err
	}
	defer iter.Close()

	minFreq, maxFreq := iter.FrequencyRange()
	start, end := iter.TimeRange()
	grid, err := NewHitGrid(config.Columns, minFreq, maxFreq, start, end, iter.Slot())
	if err != nil {
		return nil, "", fmt.Errorf("creating hit grid: %w", err)
	}

	for iter.Next(ctx) {
		grid.Update(iter.Current())
	}
	if err = iter.Error(); err != nil {
		return nil, "", err
	}

	sess := iter.Session()
	logger.Info("finished reading hits",
		slog.Group("stats",
			slog.String("session", sess.UUID),
			slog.Int("hits", grid.Hits),
			slog.Int("rows", grid.Rows),
			slog.Int("columns", grid.Columns),
			slog.String("minTimestamp", grid.TimestampStart.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", grid.TimestampEnd.Local().Format(time.DateTime)),
			slog.String("minFreq", formatFrequency(float64(grid.FrequencyMin))),
			slog.String("maxFreq", formatFrequency(float64(grid.FrequencyMax))),
		))

	info := fmt.Sprintf("Session %d: %s on %s", sess.ID, sess.Source, sess.Receiver)
	return grid, info, nil
}

func listSessions(ctx context.Context, store *storage.SqliteStore, out io.Writer) error {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return err
	}

	for _, s := range sessions {
		hits, err := store.Hits(ctx, s.ID)
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(out, "%d\t%s\t%s (%s)\t%s\t%s\t%s hits\n",
			s.ID,
			s.UUID,
			s.StartTime.Local().Format(time.DateTime),
			humanize.Time(s.StartTime),
			s.Receiver,
			s.Source,
			humanize.Comma(int64(len(hits))),
		); err != nil {
			return err
		}
	}
	return nil
}

func writeImage(path string, format ImageFormat, img image.Image) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	switch format {
	case ImagePNG:
		return png.Encode(out, img)
	case ImageJPEG:
		return jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return fmt.Errorf("invalid image format: %s", format)
}
