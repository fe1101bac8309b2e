package spectrum

import (
	"time"
)

// ScanSession represents a single run of the scanner.
// Each session captures metadata about when and how the scanning was performed.
type ScanSession struct {
	ID        int64     `json:"ID"`                      // Unique identifier for the session
	UUID      string    `json:"uuid"`                    // Globally unique session identifier, safe to share between log files
	StartTime time.Time `json:"startTime"`               // When the scanning session began
	Receiver  string    `json:"receiver"`                // Receiver backend used (e.g., "sim", "sdrconnect")
	Source    string    `json:"source"`                  // Scanned database name or range
	Config    *string   `json:"config,string,omitempty"` // Optional scanner settings in JSON format
}

// Hit is a signal that made the scanner lock onto a frequency.
type Hit struct {
	ID          int64     `json:"ID"`
	SessionID   int64     `json:"sessionID"`
	Timestamp   time.Time `json:"timestamp"`             // When the signal was verified
	Frequency   int64     `json:"frequency"`             // Frequency in Hz
	Description string    `json:"description,omitempty"` // Database description of the frequency, if any
	Power       float64   `json:"power"`                 // Signal power in dB at the time of the lock
}

// ActivitySpan groups the hits of one time slot, ordered by frequency.
type ActivitySpan struct {
	Start time.Time `json:"start"` // Inclusive start of the slot
	End   time.Time `json:"end"`   // Exclusive end of the slot
	Hits  []Hit     `json:"hits,omitempty"`
}
