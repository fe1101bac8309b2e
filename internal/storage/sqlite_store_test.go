package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()

	s := NewSqliteStore(filepath.Join(t.TempDir(), "activity.db"))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteStore_Sessions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.CreateSession(ctx, "sim", "FREQMAN", struct {
		Squelch float64 `json:"squelch"`
	}{-30})
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	second, err := s.CreateSession(ctx, "sdrconnect", "144000000-148000000", nil)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if first.ID == second.ID {
		t.Errorf("session IDs are equal: %d", first.ID)
	}
	if first.UUID == "" || first.UUID == second.UUID {
		t.Errorf("session UUIDs = %q, %q, want unique values", first.UUID, second.UUID)
	}

	got, err := s.Session(ctx, first.ID)
	if err != nil {
		t.Fatalf("Session() error = %v", err)
	}
	if got.UUID != first.UUID || got.Receiver != "sim" || got.Source != "FREQMAN" {
		t.Errorf("Session() = %+v, want %+v", got, first)
	}
	if got.Config == nil || *got.Config != `{"squelch":-30}` {
		t.Errorf("Session().Config = %v, want squelch JSON", got.Config)
	}
	if !got.StartTime.Equal(first.StartTime) {
		t.Errorf("Session().StartTime = %s, want %s", got.StartTime, first.StartTime)
	}

	all, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Sessions() returned %d sessions, want 2", len(all))
	}
	if all[1].Config != nil {
		t.Errorf("Sessions()[1].Config = %q, want nil", *all[1].Config)
	}
}

func TestSqliteStore_Hits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.CreateSession(ctx, "sim", "FREQMAN", "raw config")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	single := spectrum.Hit{Timestamp: base, Frequency: 200, Description: "tower", Power: -20}
	if err = s.StoreHit(ctx, sess.ID, &single); err != nil {
		t.Fatalf("StoreHit() error = %v", err)
	}
	if single.ID == 0 || single.SessionID != sess.ID {
		t.Errorf("StoreHit() did not set IDs: %+v", single)
	}

	batch := []spectrum.Hit{
		{Timestamp: base.Add(time.Second), Frequency: 100, Power: -25},
		{Timestamp: base.Add(65 * time.Second), Frequency: 150, Power: -10},
		{Timestamp: base.Add(130 * time.Second), Frequency: 300, Power: -15},
	}
	if err = s.StoreHits(ctx, sess.ID, batch); err != nil {
		t.Fatalf("StoreHits() error = %v", err)
	}
	if err = s.StoreHits(ctx, sess.ID, nil); err != nil {
		t.Errorf("StoreHits(nil) error = %v", err)
	}

	hits, err := s.Hits(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Hits() error = %v", err)
	}
	wantFreqs := []int64{100, 200, 150, 300}
	if len(hits) != len(wantFreqs) {
		t.Fatalf("Hits() returned %d hits, want %d", len(hits), len(wantFreqs))
	}
	for i, f := range wantFreqs {
		if hits[i].Frequency != f {
			t.Errorf("hits[%d].Frequency = %d, want %d", i, hits[i].Frequency, f)
		}
	}
	if hits[1].Description != "tower" || !hits[1].Timestamp.Equal(base) {
		t.Errorf("hits[1] = %+v, want the stored hit", hits[1])
	}

	r, err := s.ReadHits(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ReadHits() error = %v", err)
	}
	if lo, hi := r.FrequencyRange(); lo != 100 || hi != 300 {
		t.Errorf("FrequencyRange() = %d, %d, want 100, 300", lo, hi)
	}
	if st, et := r.TimeRange(); !st.Equal(base) || !et.Equal(base.Add(130*time.Second)) {
		t.Errorf("TimeRange() = %s, %s, want %s, %s", st, et, base, base.Add(130*time.Second))
	}
	if err = r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	tests := []struct {
		name  string
		opts  []ReaderOption
		spans [][]int64
	}{
		{
			name:  "one minute slots",
			opts:  []ReaderOption{WithSlot(time.Minute)},
			spans: [][]int64{{100, 200}, {150}, {300}},
		},
		{
			name:  "frequency range",
			opts:  []ReaderOption{WithSlot(time.Minute), WithFrequencyRange(100, 160)},
			spans: [][]int64{{100}, {150}},
		},
		{
			name:  "time range",
			opts:  []ReaderOption{WithTimeRange(base.Add(time.Minute), base.Add(3*time.Minute))},
			spans: [][]int64{{150, 300}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := s.ReadHits(ctx, sess.ID, tt.opts...)
			if err != nil {
				t.Fatalf("ReadHits() error = %v", err)
			}
			defer r.Close()

			if r.Session().UUID != sess.UUID {
				t.Errorf("Session().UUID = %q, want %q", r.Session().UUID, sess.UUID)
			}

			var got [][]int64
			for r.Next(ctx) {
				span := r.Current()
				if !span.Start.Before(span.End) {
					t.Errorf("span %s..%s is empty", span.Start, span.End)
				}
				var freqs []int64
				for _, h := range span.Hits {
					if h.Timestamp.Before(span.Start) || !h.Timestamp.Before(span.End) {
						t.Errorf("hit at %s is outside span %s..%s", h.Timestamp, span.Start, span.End)
					}
					freqs = append(freqs, h.Frequency)
				}
				got = append(got, freqs)
			}
			if err := r.Error(); err != nil {
				t.Fatalf("Error() = %v", err)
			}

			if len(got) != len(tt.spans) {
				t.Fatalf("got %d spans %v, want %v", len(got), got, tt.spans)
			}
			for i := range tt.spans {
				if len(got[i]) != len(tt.spans[i]) {
					t.Fatalf("span %d = %v, want %v", i, got[i], tt.spans[i])
				}
				for j := range tt.spans[i] {
					if got[i][j] != tt.spans[i][j] {
						t.Errorf("span %d = %v, want %v", i, got[i], tt.spans[i])
					}
				}
			}
		})
	}
}

func TestSqliteStore_ReadHitsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.CreateSession(ctx, "sim", "FREQMAN", nil)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	now := time.Now()
	tests := []struct {
		name      string
		sessionID int64
		opts      []ReaderOption
	}{
		{"no session", 0, nil},
		{"unknown session", sess.ID + 100, nil},
		{"inverted time range", sess.ID, []ReaderOption{WithTimeRange(now, now.Add(-time.Second))}},
		{"inverted frequency range", sess.ID, []ReaderOption{WithFrequencyRange(200, 100)}},
		{"negative slot", sess.ID, []ReaderOption{WithSlot(-time.Second)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ReadHits(ctx, tt.sessionID, tt.opts...); err == nil {
				t.Error("ReadHits() error = nil, want error")
			}
		})
	}
}

func TestSqliteStore_EmptySession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess, err := s.CreateSession(ctx, "sim", "FREQMAN", nil)
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	hits, err := s.Hits(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Hits() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Hits() = %v, want none", hits)
	}
}

func TestSqliteStore_CloseTwice(t *testing.T) {
	s := NewSqliteStore(filepath.Join(t.TempDir(), "activity.db"))
	if _, err := s.CreateSession(context.Background(), "sim", "FREQMAN", nil); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
