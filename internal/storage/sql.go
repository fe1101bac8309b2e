package storage

const (
	initSchemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid       TEXT    NOT NULL UNIQUE,
    start_time INTEGER NOT NULL,
    receiver   TEXT    NOT NULL,
    source     TEXT    NOT NULL,
    config     TEXT
);

CREATE TABLE IF NOT EXISTS hits (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  INTEGER NOT NULL REFERENCES sessions (id),
    timestamp   INTEGER NOT NULL,
    frequency   INTEGER NOT NULL,
    description TEXT,
    power       REAL    NOT NULL
);`

	initIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_hits_session_timestamp ON hits (session_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_hits_session_frequency ON hits (session_id, frequency);`

	insertSessionSQL = `
INSERT INTO sessions (
                      uuid,
                      start_time,
                      receiver,
                      source,
                      config)
VALUES (?, ?, ?, ?, ?)`

	selectSessionSQL = `
SELECT
    id,
    uuid,
    start_time,
    receiver,
    source,
    config
FROM sessions
WHERE
    id = ?`

	selectSessionsSQL = `
SELECT
    id,
    uuid,
    start_time,
    receiver,
    source,
    config
FROM sessions
ORDER BY start_time, id`

	insertHitSQL = `
INSERT INTO hits (session_id,
                  timestamp,
                  frequency,
                  description,
                  power)
VALUES (?, ?, ?, ?, ?)`

	selectFilterValuesSQL = `
SELECT
    COALESCE(MIN(frequency), 0),
    COALESCE(MAX(frequency), 0),
    COALESCE(MIN(timestamp), 0),
    COALESCE(MAX(timestamp), 0)
FROM hits
WHERE session_id = ?`

	selectHitsSQL = `
SELECT
    id,
    timestamp,
    frequency,
    description,
    power
FROM hits
WHERE
    session_id = ?
    AND timestamp BETWEEN ? AND ?
    AND frequency BETWEEN ? AND ?
ORDER BY timestamp, frequency, id`
)
