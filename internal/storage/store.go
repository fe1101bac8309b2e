package storage

import (
	"context"

	"github.com/roman-kulish/radio-scanner/internal/spectrum"
)

// Store provides an interface for the scanner activity log.
// It records scanning sessions and the signals the scanner locked onto.
type Store interface {
	// CreateSession starts a new scanning session and returns its identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - receiver: Receiver backend (e.g., "sim", "sdrconnect")
	//   - source: Name of the scanned database or a description of the range
	//   - config: Optional scanner settings. Can be string, []byte, or JSON-serializable object
	//
	// Returns:
	//   - session: The created session, including its UUID
	//   - error: If session creation fails or context is cancelled
	CreateSession(ctx context.Context, receiver, source string, config any) (session *spectrum.ScanSession, err error)

	// Session retrieves a session by its ID.
	Session(ctx context.Context, id int64) (session *spectrum.ScanSession, err error)

	// Sessions returns all sessions ordered by start time.
	Sessions(ctx context.Context) (sessions []*spectrum.ScanSession, err error)

	// StoreHit records a locked signal for a session.
	StoreHit(ctx context.Context, sessionID int64, hit *spectrum.Hit) error

	// StoreHits records several hits in a single transaction.
	StoreHits(ctx context.Context, sessionID int64, hits []spectrum.Hit) error

	// Hits returns the hits of a session ordered by time, then frequency.
	Hits(ctx context.Context, sessionID int64) ([]spectrum.Hit, error)

	// Close releases all database connections and resources.
	// It is safe to call Close multiple times.
	Close() error
}
