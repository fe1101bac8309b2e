package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

var _ Store = (*SqliteStore)(nil)

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// The database and its schema are created on the first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func toConfigData(config any) (configData sql.NullString, err error) {
	if config == nil {
		return
	}

	switch v := config.(type) {
	case string:
		configData.String = v
	case []byte:
		configData.String = string(v)
	default:
		var p []byte
		if p, err = json.Marshal(config); err != nil {
			err = fmt.Errorf("marshaling config: %w", err)
			return
		}
		configData.String = string(p)
	}

	configData.Valid = true
	return
}

func (s *SqliteStore) CreateSession(ctx context.Context, receiver, source string, config any) (session *spectrum.ScanSession, err error) {
	configData, err := toConfigData(config)
	if err != nil {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	data := sessionData{
		UUID:      uuid.NewString(),
		StartTime: toMillis(time.Now()),
		Receiver:  receiver,
		Source:    source,
		Config:    configData,
	}

	result, err := stmt.ExecContext(ctx, data.UUID, data.StartTime, data.Receiver, data.Source, data.Config)
	if err != nil {
		err = fmt.Errorf("inserting session: %w", err)
		return
	}

	if data.ID, err = result.LastInsertId(); err != nil {
		err = fmt.Errorf("getting session ID: %w", err)
		return
	}

	return toSession(&data), nil
}

func (s *SqliteStore) Session(ctx context.Context, id int64) (session *spectrum.ScanSession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectSessionSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	var data sessionData
	if err = stmt.QueryRowContext(ctx, id).Scan(&data.ID, &data.UUID, &data.StartTime, &data.Receiver, &data.Source, &data.Config); err != nil {
		err = fmt.Errorf("scanning session: %w", err)
		return
	}

	return toSession(&data), nil
}

func (s *SqliteStore) Sessions(ctx context.Context) (sessions []*spectrum.ScanSession, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectSessionsSQL)
	if err != nil {
		err = fmt.Errorf("querying sessions: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data sessionData
		if err = rows.Scan(&data.ID, &data.UUID, &data.StartTime, &data.Receiver, &data.Source, &data.Config); err != nil {
			err = fmt.Errorf("scanning session: %w", err)
			return
		}
		sessions = append(sessions, toSession(&data))
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("iterating sessions: %w", err)
	}
	return
}

func (s *SqliteStore) StoreHit(ctx context.Context, sessionID int64, hit *spectrum.Hit) (err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	stmt, err := db.PrepareContext(ctx, insertHitSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	data := toHitData(sessionID, hit)

	result, err := stmt.ExecContext(ctx, data.SessionID, data.Timestamp, data.Frequency, data.Description, data.Power)
	if err != nil {
		return fmt.Errorf("inserting hit: %w", err)
	}

	if hit.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("getting hit ID: %w", err)
	}
	hit.SessionID = sessionID

	return nil
}

const insertHitsSQL = `
    INSERT INTO hits (
        session_id,
        timestamp,
        frequency,
        description,
        power
    )
    VALUES `

func (s *SqliteStore) StoreHits(ctx context.Context, sessionID int64, hits []spectrum.Hit) (err error) {
	if len(hits) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	values := make([]any, 0, len(hits)*5)
	valuesPlaceholder := "(?, ?, ?, ?, ?)"

	var sb strings.Builder

	sb.WriteString(insertHitsSQL)

	for i := range hits {
		data := toHitData(sessionID, &hits[i])
		values = append(values,
			data.SessionID,
			data.Timestamp,
			data.Frequency,
			data.Description,
			data.Power,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	if _, err = tx.ExecContext(ctx, sb.String(), values...); err != nil {
		return fmt.Errorf("batch inserting hits: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Hits returns every hit of a session, ordered by time, then frequency.
func (s *SqliteStore) Hits(ctx context.Context, sessionID int64) ([]spectrum.Hit, error) {
	r, err := s.ReadHits(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var hits []spectrum.Hit
	for r.Next(ctx) {
		hits = append(hits, r.Current().Hits...)
	}
	if err = r.Error(); err != nil {
		return nil, err
	}
	return hits, nil
}

// ReadHits creates a HitReader over the hits of a scanning session. Hits are
// grouped into ActivitySpan slots of equal duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - sessionID: Unique identifier of the scanning session to read from
//   - opts: Optional filters (WithTimeRange, WithFrequencyRange, WithSlot)
//
// The returned HitReader must be closed after use to release database resources.
// Each reader instance should only be used from a single goroutine.
func (s *SqliteStore) ReadHits(ctx context.Context, sessionID int64, opts ...ReaderOption) (*HitReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newHitReader(ctx, db, sessionID, opts...)
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
