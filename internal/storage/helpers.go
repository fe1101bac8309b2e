package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toHitData(sessionID int64, h *spectrum.Hit) *hitData {
	return &hitData{
		SessionID: sessionID,
		Timestamp: toMillis(h.Timestamp),
		Frequency: h.Frequency,
		Description: sql.NullString{
			String: h.Description,
			Valid:  h.Description != "",
		},
		Power: h.Power,
	}
}

func toSession(d *sessionData) *spectrum.ScanSession {
	sess := spectrum.ScanSession{
		ID:        d.ID,
		UUID:      d.UUID,
		StartTime: fromMillis(d.StartTime),
		Receiver:  d.Receiver,
		Source:    d.Source,
	}
	if d.Config.Valid {
		sess.Config = &d.Config.String
	}
	return &sess
}

func toHit(d *hitData) spectrum.Hit {
	return spectrum.Hit{
		ID:          d.ID,
		SessionID:   d.SessionID,
		Timestamp:   fromMillis(d.Timestamp),
		Frequency:   d.Frequency,
		Description: d.Description.String,
		Power:       d.Power,
	}
}
