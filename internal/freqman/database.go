package freqman

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxEntries is the default capacity of a database.
	MaxEntries = 150

	// End is returned by Find when no entry matches.
	End = -1
)

// WithCreate creates the database file when it does not exist.
func WithCreate() func(db *Database) {
	return func(db *Database) {
		db.create = true
	}
}

// WithMaxEntries overrides the default capacity.
func WithMaxEntries(n int) func(db *Database) {
	return func(db *Database) {
		if n > 0 {
			db.maxEntries = n
		}
	}
}

// WithLogger sets the logger for the database
func WithLogger(logger *slog.Logger) func(db *Database) {
	return func(db *Database) {
		db.logger = logger
	}
}

// Database is an in-memory copy of a database file. The file is read in
// full by Open and rewritten by Save. A Database is not safe for concurrent
// use.
type Database struct {
	path       string
	entries    []Entry
	maxEntries int
	create     bool

	index     *frequencyIndex
	dirty     bool
	truncated bool
	closed    bool

	logger *slog.Logger
}

// Open reads the database at path.
func Open(path string, options ...func(db *Database)) (*Database, error) {
	db := Database{
		path:       path,
		maxEntries: MaxEntries,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&db)
	}

	db.logger = db.logger.With(slog.String("database", filepath.Base(path)))

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && db.create:
		if err = os.WriteFile(path, nil, 0o644); err != nil {
			return nil, &AccessError{Op: "create", Path: path, Err: err}
		}
		db.logger.Info("created database file")
	case err != nil:
		return nil, &AccessError{Op: "open", Path: path, Err: err}
	default:
		db.load(data)
	}

	return &db, nil
}

func (db *Database) load(data []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	var lineNo int
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		e, err := Parse(line)
		if err != nil {
			db.logger.Warn(fmt.Sprintf("skipping line: %s", err.Error()), slog.Int("line", lineNo))
			continue
		}

		if len(db.entries) >= db.maxEntries {
			db.truncated = true
			db.logger.Warn("database truncated", slog.Int("maxEntries", db.maxEntries), slog.Int("line", lineNo))
			break
		}

		db.entries = append(db.entries, e)
	}
}

// Path returns the file backing the database.
func (db *Database) Path() string {
	return db.path
}

// Len returns the number of entries.
func (db *Database) Len() int {
	return len(db.entries)
}

// Cap returns the maximum number of entries.
func (db *Database) Cap() int {
	return db.maxEntries
}

// Truncated reports whether the file held more entries than the database
// could take.
func (db *Database) Truncated() bool {
	return db.truncated
}

// Dirty reports whether there are unsaved changes.
func (db *Database) Dirty() bool {
	return db.dirty
}

// Entry returns the entry at position i.
func (db *Database) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(db.entries) {
		return Entry{}, false
	}
	return db.entries[i], true
}

// Entries returns a copy of all entries in file order.
func (db *Database) Entries() []Entry {
	return append([]Entry(nil), db.entries...)
}

// Append adds e at the end. It returns ErrTruncated if the database is full.
func (db *Database) Append(e Entry) error {
	if db.closed {
		return ErrClosed
	}
	if len(db.entries) >= db.maxEntries {
		return ErrTruncated
	}

	db.entries = append(db.entries, e)
	db.changed()
	return nil
}

// Replace overwrites the entry at position i.
func (db *Database) Replace(i int, e Entry) error {
	if db.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(db.entries) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}

	db.entries[i] = e
	db.changed()
	return nil
}

// Delete removes the entry at position i; later entries move down by one.
func (db *Database) Delete(i int) error {
	if db.closed {
		return ErrClosed
	}
	if i < 0 || i >= len(db.entries) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, i)
	}

	db.entries = append(db.entries[:i], db.entries[i+1:]...)
	db.changed()
	return nil
}

// Find returns the position of the first entry matching pred, or End.
func (db *Database) Find(pred func(e Entry) bool) int {
	for i, e := range db.entries {
		if pred(e) {
			return i
		}
	}
	return End
}

// Lookup returns the entry describing f: a point entry tuned exactly to f,
// or else the first range containing it.
func (db *Database) Lookup(f Frequency) (Entry, bool) {
	if db.index == nil {
		db.index = buildIndex(db.entries)
	}

	if pos, ok := db.index.first(f); ok {
		return db.entries[pos], true
	}

	if i := db.Find(func(e Entry) bool { return e.Contains(f) }); i != End {
		return db.entries[i], true
	}
	return Entry{}, false
}

func (db *Database) changed() {
	db.dirty = true
	db.index = nil
}

// Save writes every entry to the file, one per line. The file is replaced
// atomically.
func (db *Database) Save() error {
	if db.closed {
		return ErrClosed
	}

	var buf bytes.Buffer
	for _, e := range db.entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.path), "."+filepath.Base(db.path)+".*")
	if err != nil {
		return &AccessError{Op: "write", Path: db.path, Err: err}
	}

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		return removeWithError(tmp, &AccessError{Op: "write", Path: db.path, Err: err})
	}
	if err = tmp.Close(); err != nil {
		return removeWithError(nil, &AccessError{Op: "write", Path: tmp.Name(), Err: err}, tmp.Name())
	}
	if err = os.Rename(tmp.Name(), db.path); err != nil {
		return removeWithError(nil, &AccessError{Op: "write", Path: db.path, Err: err}, tmp.Name())
	}

	db.dirty = false
	db.logger.Debug("database saved", slog.Int("entries", len(db.entries)))
	return nil
}

// Close saves pending changes and releases the database. Further calls are
// no-ops.
func (db *Database) Close() error {
	if db.closed {
		return nil
	}

	var err error
	if db.dirty {
		err = db.Save()
	}

	db.closed = true
	db.entries = nil
	db.index = nil
	return err
}

// removeWithError discards a failed temporary file and returns err, joined
// with any cleanup failure.
func removeWithError(f *os.File, err error, names ...string) error {
	if f != nil {
		names = append(names, f.Name())
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	for _, name := range names {
		if rerr := os.Remove(name); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
			err = errors.Join(err, rerr)
		}
	}
	return err
}
