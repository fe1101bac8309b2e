package storage

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

// ReaderOption configures a HitReader with specific filtering criteria.
type ReaderOption func(*HitReader)

// WithFrequencyRange limits the reader to hits between minFreq and maxFreq
// (Hz, inclusive).
func WithFrequencyRange(minFreq, maxFreq int64) ReaderOption {
	return func(r *HitReader) {
		r.minFreq = &minFreq
		r.maxFreq = &maxFreq
	}
}

// WithTimeRange limits the reader to hits between startTime and endTime
// (inclusive).
func WithTimeRange(startTime, endTime time.Time) ReaderOption {
	return func(r *HitReader) {
		r.startTime = &startTime
		r.endTime = &endTime
	}
}

// WithSlot sets the duration of a single ActivitySpan. A zero slot returns
// all hits in one span.
func WithSlot(d time.Duration) ReaderOption {
	return func(r *HitReader) {
		r.slot = d
	}
}

// HitReader iterates over the hits of a session grouped into time slots.
// Slots without hits are skipped.
type HitReader struct {
	db *sql.DB

	sessionID int64
	session   *spectrum.ScanSession
	slot      time.Duration

	startTime *time.Time // Optional start of time range filter
	endTime   *time.Time // Optional end of time range filter
	minFreq   *int64     // Optional minimum frequency filter
	maxFreq   *int64     // Optional maximum frequency filter

	current *spectrum.ActivitySpan
	pending *spectrum.Hit // First hit of the next span
	rows    *sql.Rows
	err     error
}

func newHitReader(ctx context.Context, db *sql.DB, sessionID int64, opts ...ReaderOption) (*HitReader, error) {
	r := &HitReader{
		db:        db,
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return r, nil
}

func (r *HitReader) init(ctx context.Context) error {
	if r.db == nil {
		return errors.New("database connection required")
	}
	if r.sessionID <= 0 {
		return errors.New("session ID required")
	}
	if r.slot < 0 {
		return fmt.Errorf("invalid slot duration %s", r.slot)
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading session", fn: r.loadSession},
		{msg: "initializing filters", fn: r.initFilters},
		{msg: "initializing query", fn: r.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (r *HitReader) loadSession(ctx context.Context) (err error) {
	stmt, err := r.db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var data sessionData
	if err = stmt.QueryRowContext(ctx, r.sessionID).Scan(&data.ID, &data.UUID, &data.StartTime, &data.Receiver, &data.Source, &data.Config); err != nil {
		return fmt.Errorf("querying session: %w", err)
	}

	r.session = toSession(&data)
	return
}

func (r *HitReader) initFilters(ctx context.Context) (err error) {
	timeFiltersSet := r.startTime != nil && r.endTime != nil
	freqFiltersSet := r.minFreq != nil && r.maxFreq != nil

	if timeFiltersSet && r.startTime.After(*r.endTime) {
		return fmt.Errorf("start time %s is after end time %s", r.startTime, r.endTime)
	}
	if freqFiltersSet && *r.minFreq > *r.maxFreq {
		return fmt.Errorf("min frequency %d is greater than max frequency %d", *r.minFreq, *r.maxFreq)
	}
	if timeFiltersSet && freqFiltersSet {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, selectFilterValuesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minFreq, maxFreq, startTime, endTime int64
	if err = stmt.QueryRowContext(ctx, r.sessionID).Scan(&minFreq, &maxFreq, &startTime, &endTime); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if !freqFiltersSet {
		r.minFreq, r.maxFreq = &minFreq, &maxFreq
	}
	if !timeFiltersSet {
		st, et := fromMillis(startTime), fromMillis(endTime)
		r.startTime, r.endTime = &st, &et
	}

	return nil
}

func (r *HitReader) initQuery(ctx context.Context) (err error) {
	r.rows, err = r.db.QueryContext(ctx, selectHitsSQL,
		r.sessionID,
		toMillis(*r.startTime),
		toMillis(*r.endTime),
		*r.minFreq,
		*r.maxFreq,
	)
	if err != nil {
		return fmt.Errorf("querying hits: %w", err)
	}
	return nil
}

func (r *HitReader) scanHit() (*spectrum.Hit, error) {
	data := hitData{SessionID: r.sessionID}
	if err := r.rows.Scan(&data.ID, &data.Timestamp, &data.Frequency, &data.Description, &data.Power); err != nil {
		return nil, fmt.Errorf("scanning hit: %w", err)
	}
	hit := toHit(&data)
	return &hit, nil
}

// slotOf returns the start of the slot t falls into.
func (r *HitReader) slotOf(t time.Time) time.Time {
	if r.slot == 0 {
		return *r.startTime
	}
	return r.startTime.Add(t.Sub(*r.startTime) / r.slot * r.slot)
}

func (r *HitReader) newSpan(first *spectrum.Hit) *spectrum.ActivitySpan {
	start := r.slotOf(first.Timestamp)
	end := r.endTime.Add(time.Millisecond)
	if r.slot > 0 {
		end = start.Add(r.slot)
	}
	return &spectrum.ActivitySpan{
		Start: start,
		End:   end,
		Hits:  []spectrum.Hit{*first},
	}
}

func (r *HitReader) finish(span *spectrum.ActivitySpan) {
	slices.SortStableFunc(span.Hits, func(a, b spectrum.Hit) int {
		return cmp.Compare(a.Frequency, b.Frequency)
	})
	r.current = span
}

// Session returns the session this reader is accessing.
func (r *HitReader) Session() *spectrum.ScanSession {
	return r.session
}

// FrequencyRange returns the effective frequency filter in Hz. Without
// WithFrequencyRange it spans the lowest and highest hit of the session.
func (r *HitReader) FrequencyRange() (minFreq, maxFreq int64) {
	return *r.minFreq, *r.maxFreq
}

// TimeRange returns the effective time filter. Without WithTimeRange it
// spans the first and last hit of the session.
func (r *HitReader) TimeRange() (startTime, endTime time.Time) {
	return *r.startTime, *r.endTime
}

// Slot returns the duration of a single span, 0 when all hits share one.
func (r *HitReader) Slot() time.Duration {
	return r.slot
}

// Next advances to the next non-empty slot. It returns false when the
// iteration is complete or an error occurred; check Error to tell them apart.
func (r *HitReader) Next(ctx context.Context) bool {
	if r.err != nil || r.rows == nil {
		return false
	}

	var span *spectrum.ActivitySpan
	if r.pending != nil {
		span = r.newSpan(r.pending)
		r.pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			r.err = ctx.Err()
			return false
		default:
		}

		if !r.rows.Next() {
			if span != nil {
				r.finish(span)
				return true
			}
			r.current = nil
			return false
		}

		hit, err := r.scanHit()
		if err != nil {
			r.err = err
			return false
		}

		if span == nil {
			span = r.newSpan(hit)
			continue
		}

		if !hit.Timestamp.Before(span.End) {
			r.pending = hit
			r.finish(span)
			return true
		}

		span.Hits = append(span.Hits, *hit)
	}
}

// Current returns the current span. It is nil before the first call to Next.
func (r *HitReader) Current() *spectrum.ActivitySpan {
	return r.current
}

// Error returns the error that stopped the iteration, if any.
func (r *HitReader) Error() error {
	if r.err != nil {
		return r.err
	}
	if r.rows != nil {
		return r.rows.Err()
	}
	return nil
}

// Close releases the database resources held by the reader.
func (r *HitReader) Close() error {
	if r.rows != nil {
		err := r.rows.Close()
		r.current = nil
		r.pending = nil
		r.rows = nil
		return err
	}
	return nil
}
