package storage

import (
	"database/sql"
)

type sessionData struct {
	ID        int64
	UUID      string
	StartTime int64 // unix milliseconds
	Receiver  string
	Source    string
	Config    sql.NullString
}

type hitData struct {
	ID          int64
	SessionID   int64
	Timestamp   int64 // unix milliseconds
	Frequency   int64
	Description sql.NullString
	Power       float64
}
