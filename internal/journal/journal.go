// Package journal provides persistent storage for served prediction
// decisions. It uses BoltDB as the underlying storage engine so each
// decision survives restarts and can be pulled back for audits and the
// monitoring dashboard.
//
// Writes happen on the request path but failures never surface to the
// caller of the HTTP API; the server counts them and keeps serving.
package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

const decisionsBucket = "decisions" // Bucket name for served decision records

// Entry is one served prediction decision.
type Entry struct {
	Timestamp   time.Time `json:"timestamp"`
	Features    []float64 `json:"features"`
	Label       int       `json:"label"`
	Probability float64   `json:"probability"`
	Risk        string    `json:"risk"`
	LatencyMS   float64   `json:"latency_ms"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
}

// Store persists decision entries using BoltDB. Keys are zero-padded
// nanosecond timestamps so cursor scans return entries in time order.
type Store struct {
	db  *bbolt.DB
	seq atomic.Uint64
}

// New creates a journal store under the given data directory.
// Returns an error if the database cannot be opened or the bucket cannot
// be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "cardiopredict.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(decisionsBucket)); err != nil {
			return fmt.Errorf("create decisions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append stores one decision. A zero Timestamp is filled with the current
// time before writing.
func (s *Store) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(decisionsBucket))

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}

		// The sequence suffix disambiguates entries written in the same
		// nanosecond so none overwrite each other.
		key := fmt.Sprintf("%020d_%09d", entry.Timestamp.UnixNano(), s.seq.Add(1))
		return b.Put([]byte(key), data)
	})
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(decisionsBucket)).Cursor()

		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed records
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// Range returns entries with timestamps in [start, end], oldest first.
func (s *Store) Range(start, end time.Time) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(decisionsBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d", end.UnixNano()))

		// Only the padded-timestamp prefix participates in the bound check;
		// the sequence suffix keeps same-instant entries distinct.
		for k, v := c.Seek(startKey); k != nil && len(k) >= len(endKey) && bytes.Compare(k[:len(endKey)], endKey) <= 0; k, v = c.Next() {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				continue // Skip malformed records
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// Count returns the number of journaled decisions.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket([]byte(decisionsBucket)).Stats().KeyN
		return nil
	})
	return count, err
}
